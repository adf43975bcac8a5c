/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap is the mark-and-sweep object store: a dense slice of slots
// indexed by GcRef, each holding a mark bit, a cached byte size, and a
// Traceable payload. The package never imports object's concrete instance
// types; every stored value need only report its outgoing references
// through VisitRefs, which keeps heap reusable by anything the interpreter
// wants to put on the heap.
package heap

// Traceable is implemented by every value a Gc can hold. VisitRefs must
// call visit once per outgoing reference (skipping nils), passing that
// reference's raw slot index.
type Traceable interface {
	VisitRefs(visit func(index uint32))
}

type slot struct {
	marked bool
	size   int
	value  Traceable
}

const (
	heapGrowFactor = 2
	initialNextGC  = 1024 * 1024
	slotOverhead   = 24 // rough per-slot bookkeeping cost, mirrors size_of::<GcObject>()
)

// Gc owns every heap-allocated object. There is a single owner at any
// instant, threaded through the interpreter the same way the rest of rho's
// registries are.
type Gc struct {
	bytesUsed int
	nextGC    int
	objects   []*slot
	freeSlots []int
	grey      []int
}

// New creates an empty heap with the default collection threshold.
func New() *Gc {
	return &Gc{nextGC: initialNextGC}
}

// GcRef is a typed handle into a Gc. The zero value is the null reference.
type GcRef[T any] struct {
	index uint32
	ok    bool
}

// NilRef returns the null reference for T.
func NilRef[T any]() GcRef[T] { return GcRef[T]{} }

// IsNil reports whether r is the null reference. It does not check
// liveness; a non-nil ref can still be stale if its slot was swept.
func (r GcRef[T]) IsNil() bool { return !r.ok }

// Index returns r's raw slot index, used to enumerate outgoing references
// in a Traceable.VisitRefs implementation without re-exposing GcRef's type
// parameter.
func (r GcRef[T]) Index() uint32 { return r.index }

func refAt[T any](index int) GcRef[T] {
	return GcRef[T]{index: uint32(index), ok: true}
}

// RefFromIndex reconstructs a typed ref from a raw index, the counterpart
// to Index, used when walking a VisitRefs callback's indices back into
// typed marks.
func RefFromIndex[T any](index uint32) GcRef[T] {
	return GcRef[T]{index: index, ok: true}
}

// IntoGeneric reinterprets r's capability tag as U without touching the
// underlying slot, mirroring GcRef::into_generic/unchecked_as: callers are
// responsible for U being a valid supertype or alias of T.
func IntoGeneric[T, U any](r GcRef[T]) GcRef[U] {
	if !r.ok {
		return GcRef[U]{}
	}
	return GcRef[U]{index: r.index, ok: true}
}

// Alloc stores value, reusing a freed slot if one is available, and
// returns a handle to it. size is the caller's self-reported payload size
// in bytes, used only to drive the collection threshold.
func Alloc[T Traceable](g *Gc, value T, size int) GcRef[T] {
	memSize := size + slotOverhead
	g.bytesUsed += memSize

	s := &slot{size: memSize, value: value}

	var index int
	if n := len(g.freeSlots); n > 0 {
		index = g.freeSlots[n-1]
		g.freeSlots = g.freeSlots[:n-1]
		g.objects[index] = s
	} else {
		g.objects = append(g.objects, s)
		index = len(g.objects) - 1
	}
	return refAt[T](index)
}

// Deref resolves ref to its stored value. It returns false for a nil ref,
// an out-of-range or swept slot, or a slot whose value is not actually a
// T (a stale handle reused after a variant-changing realloc, which never
// happens in practice but which Deref still guards against).
func Deref[T any](g *Gc, ref GcRef[T]) (T, bool) {
	var zero T
	if !ref.ok || int(ref.index) >= len(g.objects) {
		return zero, false
	}
	s := g.objects[ref.index]
	if s == nil {
		return zero, false
	}
	v, ok := s.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// ShouldGC reports whether bytesUsed has crossed the collection threshold.
// The interpreter calls neither ShouldGC nor Collect; a collection runs
// only when a caller invokes Collect with its own root set.
func (g *Gc) ShouldGC() bool {
	return g.bytesUsed > g.nextGC
}

// BytesUsed reports the heap's current tracked allocation size.
func (g *Gc) BytesUsed() int {
	return g.bytesUsed
}
