/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

// Roots collects every GcRef a caller considers reachable before a
// collection: active frames' locals/operand stacks, the string intern
// table, pinned globals, the current thread instance. The interpreter
// builds this slice fresh before each Collect call.
type Roots []uint32

// Mark grey-marks the slot at index if it is not already marked. index
// comes from a root or from a Traceable.VisitRefs callback.
func (g *Gc) Mark(index uint32) {
	i := int(index)
	if i < 0 || i >= len(g.objects) {
		return
	}
	s := g.objects[i]
	if s == nil || s.marked {
		return
	}
	s.marked = true
	g.grey = append(g.grey, i)
}

// MarkRoots marks every root index.
func (g *Gc) MarkRoots(roots Roots) {
	for _, idx := range roots {
		g.Mark(idx)
	}
}

func (g *Gc) traceReferences() {
	for len(g.grey) > 0 {
		i := g.grey[len(g.grey)-1]
		g.grey = g.grey[:len(g.grey)-1]
		s := g.objects[i]
		if s == nil {
			continue
		}
		s.value.VisitRefs(g.Mark)
	}
}

func (g *Gc) sweep() {
	for i, s := range g.objects {
		if s == nil {
			continue
		}
		if s.marked {
			s.marked = false
		} else {
			g.bytesUsed -= s.size
			g.objects[i] = nil
			g.freeSlots = append(g.freeSlots, i)
		}
	}
}

// Collect runs one mark-and-sweep cycle: MarkRoots marks roots, trace
// grows the mark to everything reachable from them,
// sweep frees everything left unmarked, and the collection threshold
// grows to bytesUsed * heapGrowFactor.
func (g *Gc) Collect(roots Roots) {
	g.MarkRoots(roots)
	g.traceReferences()
	g.sweep()
	g.nextGC = g.bytesUsed * heapGrowFactor
}
