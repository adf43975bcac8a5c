/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"testing"

	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/types"
)

func TestCurrentTimeMillisAndNanoTimeAreMonotonicallySane(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ms, err := currentTimeMillis(e, nil, nil)
	if err != nil {
		t.Fatalf("currentTimeMillis: %v", err)
	}
	if ms.(int64) <= 0 {
		t.Fatalf("currentTimeMillis = %v, want a positive epoch millisecond count", ms)
	}
	ns, err := nanoTime(e, nil, nil)
	if err != nil {
		t.Fatalf("nanoTime: %v", err)
	}
	if ns.(int64) == 0 {
		t.Fatalf("nanoTime = 0, want nonzero")
	}
}

func TestGetPropertyKnownAndUnknownKeys(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got, err := getProperty(e, nil, []interface{}{newJavaString(e, "file.encoding")})
	if err != nil {
		t.Fatalf("getProperty(file.encoding): %v", err)
	}
	if s := mustGoString(t, e, got); s != "UTF-8" {
		t.Fatalf("file.encoding = %q, want UTF-8", s)
	}

	got, err = getProperty(e, nil, []interface{}{newJavaString(e, "no.such.property")})
	if err != nil {
		t.Fatalf("getProperty(unknown): %v", err)
	}
	if ref, ok := got.(heap.GcRef[object.Instance]); !ok || !ref.IsNil() {
		t.Fatalf("getProperty(unknown) = %v, want a nil reference", got)
	}

	dflt := newJavaString(e, "fallback")
	got, err = getProperty(e, nil, []interface{}{newJavaString(e, "no.such.property"), dflt})
	if err != nil {
		t.Fatalf("getProperty(unknown, default): %v", err)
	}
	if s := mustGoString(t, e, got); s != "fallback" {
		t.Fatalf("getProperty(unknown, default) = %q, want fallback", s)
	}
}

func TestArraycopyPrimitive(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := e.Names.IdForArrayOfPrimitive(types.Byte)
	src := object.NewPrimitiveArrayInstance(id, types.Byte, []interface{}{int64(1), int64(2), int64(3), int64(4)})
	dst := object.NewPrimitiveArrayInstance(id, types.Byte, []interface{}{int64(0), int64(0), int64(0), int64(0)})
	srcRef := heap.Alloc[object.Instance](e.Gc, src, 4)
	dstRef := heap.Alloc[object.Instance](e.Gc, dst, 4)

	_, err := arraycopy(e, nil, []interface{}{srcRef, int64(1), dstRef, int64(0), int64(2)})
	if err != nil {
		t.Fatalf("arraycopy: %v", err)
	}
	if dst.Elements[0].(int64) != 2 || dst.Elements[1].(int64) != 3 {
		t.Fatalf("dst after arraycopy = %v, want [2 3 0 0]", dst.Elements)
	}
}

func TestArraycopyOutOfBoundsRaises(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := e.Names.IdForArrayOfPrimitive(types.Byte)
	src := object.NewPrimitiveArrayInstance(id, types.Byte, []interface{}{int64(1), int64(2)})
	dst := object.NewPrimitiveArrayInstance(id, types.Byte, []interface{}{int64(0), int64(0)})
	srcRef := heap.Alloc[object.Instance](e.Gc, src, 2)
	dstRef := heap.Alloc[object.Instance](e.Gc, dst, 2)

	if _, err := arraycopy(e, nil, []interface{}{srcRef, int64(0), dstRef, int64(0), int64(5)}); err == nil {
		t.Fatalf("expected out-of-bounds arraycopy to raise")
	}
}
