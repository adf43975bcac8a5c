/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"testing"

	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/types"
)

func TestClassInstanceVisitsFieldAndStaticRefs(t *testing.T) {
	g := heap.New()
	statics := Alloc(g, NewStaticClassInstance(1))

	leaf := Alloc[Instance](g, NewClassInstance(2, "a/Leaf", heap.NilRef[*StaticClassInstance]()))

	owner := NewClassInstance(3, "a/Owner", statics)
	owner.FieldTable["child"] = Field{Ftype: "La/Leaf;", Fvalue: leaf}

	var seen []uint32
	owner.VisitRefs(func(idx uint32) { seen = append(seen, idx) })

	if len(seen) != 2 {
		t.Fatalf("expected 2 outgoing refs (field + static), got %d: %v", len(seen), seen)
	}
}

func TestReferenceArrayInstanceSkipsNullElements(t *testing.T) {
	g := heap.New()
	elem := Alloc[Instance](g, NewClassInstance(1, "a/Thing", heap.NilRef[*StaticClassInstance]()))

	arr := NewReferenceArrayInstance(2, 1, []heap.GcRef[Instance]{elem, heap.NilRef[Instance]()})
	if arr.Len() != 2 {
		t.Fatalf("expected length 2, got %d", arr.Len())
	}

	var seen []uint32
	arr.VisitRefs(func(idx uint32) { seen = append(seen, idx) })
	if len(seen) != 1 || seen[0] != elem.Index() {
		t.Errorf("expected exactly the non-null element visited, got %v", seen)
	}
}

func TestPrimitiveArrayInstanceHasNoOutgoingRefs(t *testing.T) {
	arr := NewPrimitiveArrayInstance(classnames.ClassId(1), types.Int, []interface{}{int32(1), int32(2)})
	called := false
	arr.VisitRefs(func(uint32) { called = true })
	if called {
		t.Errorf("expected a primitive array to have no outgoing references")
	}
	if arr.Len() != 2 {
		t.Errorf("expected length 2, got %d", arr.Len())
	}
}

func TestStaticClassInstanceStartsWithEmptyFields(t *testing.T) {
	s := NewStaticClassInstance(classnames.ClassId(5))
	if len(s.Fields) != 0 {
		t.Errorf("expected a fresh static class instance to have no fields, got %d", len(s.Fields))
	}
	if s.InstanceOf() != 5 {
		t.Errorf("expected InstanceOf to report 5, got %d", s.InstanceOf())
	}
}

// Alloc is a small test helper binding heap.Alloc's size argument, since
// these tests don't care about memory accounting.
func Alloc[T heap.Traceable](g *heap.Gc, v T) heap.GcRef[T] {
	return heap.Alloc(g, v, 0)
}
