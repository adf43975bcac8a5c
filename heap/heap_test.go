/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import "testing"

// box is a minimal Traceable for exercising Gc independent of object's
// concrete instance types.
type box struct {
	val  int
	refs []uint32
}

func (b *box) VisitRefs(visit func(index uint32)) {
	for _, r := range b.refs {
		visit(r)
	}
}

func TestAllocAndDeref(t *testing.T) {
	g := New()
	ref := Alloc[*box](g, &box{val: 42}, 8)

	got, ok := Deref(g, ref)
	if !ok || got.val != 42 {
		t.Fatalf("expected deref to find val 42, got %+v ok=%v", got, ok)
	}
}

func TestDerefMutatesThroughPointer(t *testing.T) {
	g := New()
	ref := Alloc[*box](g, &box{val: 1}, 8)

	got, _ := Deref(g, ref)
	got.val = 99

	got2, _ := Deref(g, ref)
	if got2.val != 99 {
		t.Errorf("expected mutation through returned pointer to stick, got %d", got2.val)
	}
}

func TestDerefOfNilRefFails(t *testing.T) {
	g := New()
	_, ok := Deref(g, NilRef[*box]())
	if ok {
		t.Errorf("expected deref of nil ref to fail")
	}
}

func TestCollectFreesUnreachable(t *testing.T) {
	g := New()
	kept := Alloc[*box](g, &box{val: 1}, 8)
	garbage := Alloc[*box](g, &box{val: 2}, 8)

	g.Collect(Roots{kept.Index()})

	if _, ok := Deref(g, kept); !ok {
		t.Errorf("expected rooted object to survive collection")
	}
	if _, ok := Deref(g, garbage); ok {
		t.Errorf("expected unreachable object to be swept")
	}
}

func TestCollectTracesOutgoingRefs(t *testing.T) {
	g := New()
	leaf := Alloc[*box](g, &box{val: 1}, 8)
	root := Alloc[*box](g, &box{val: 2, refs: []uint32{leaf.Index()}}, 8)

	g.Collect(Roots{root.Index()})

	if _, ok := Deref(g, leaf); !ok {
		t.Errorf("expected leaf reachable from root to survive collection")
	}
}

func TestShouldGCCrossesThreshold(t *testing.T) {
	g := New()
	g.nextGC = 10
	if g.ShouldGC() {
		t.Fatalf("fresh heap should not need gc")
	}
	Alloc[*box](g, &box{}, 100)
	if !g.ShouldGC() {
		t.Errorf("expected ShouldGC to report true after crossing threshold")
	}
}

func TestAllocReusesFreedSlot(t *testing.T) {
	g := New()
	first := Alloc[*box](g, &box{val: 1}, 8)
	Alloc[*box](g, &box{val: 2, refs: []uint32{first.Index()}}, 8)

	// Collecting with no roots frees both, returning their indices to the
	// free list; the next alloc should reuse one of them.
	g.Collect(nil)
	reused := Alloc[*box](g, &box{val: 3}, 8)

	if len(g.freeSlots) != 1 {
		t.Errorf("expected exactly one free slot left after reuse, got %d", len(g.freeSlots))
	}
	if got, ok := Deref(g, reused); !ok || got.val != 3 {
		t.Errorf("expected reused slot to hold the new value, got %+v ok=%v", got, ok)
	}
}

type boxAny interface {
	Traceable
}

func TestIntoGenericPreservesIndex(t *testing.T) {
	g := New()
	ref := Alloc[*box](g, &box{val: 7}, 8)

	widened := IntoGeneric[*box, boxAny](ref)
	if widened.Index() != ref.Index() {
		t.Fatalf("expected widened ref to keep the same index, got %d want %d", widened.Index(), ref.Index())
	}

	got, ok := Deref[boxAny](g, widened)
	if !ok {
		t.Fatalf("expected widened ref to still deref")
	}
	if got.(*box).val != 7 {
		t.Errorf("expected underlying value preserved, got %+v", got)
	}
}

func TestIntoGenericOfNilStaysNil(t *testing.T) {
	widened := IntoGeneric[*box, boxAny](NilRef[*box]())
	if !widened.IsNil() {
		t.Errorf("expected widening a nil ref to stay nil")
	}
}
