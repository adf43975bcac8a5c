/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import "testing"

func TestNewFrameStartsEmpty(t *testing.T) {
	f := New(1, 0, "a/Widget", "doIt", []byte{0x00}, 4, 4)
	if !f.IsEmpty() {
		t.Fatalf("expected a fresh frame to have an empty operand stack")
	}
	if len(f.Locals) != 4 {
		t.Errorf("expected 4 local slots, got %d", len(f.Locals))
	}
}

func TestPushPopRoundTrips(t *testing.T) {
	f := New(1, 0, "a/Widget", "doIt", nil, 0, 4)
	f.Push(int64(27))
	f.Push(int64(10))

	v, ok := f.Pop()
	if !ok || v.(int64) != 10 {
		t.Fatalf("expected to pop 10, got %v ok=%v", v, ok)
	}
	v, ok = f.Pop()
	if !ok || v.(int64) != 27 {
		t.Fatalf("expected to pop 27, got %v ok=%v", v, ok)
	}
	if !f.IsEmpty() {
		t.Errorf("expected stack to be empty after popping both values")
	}
}

func TestPopOnEmptyStackFails(t *testing.T) {
	f := New(1, 0, "a/Widget", "doIt", nil, 0, 2)
	if _, ok := f.Pop(); ok {
		t.Errorf("expected popping an empty stack to fail")
	}
}

func TestPushBeyondMaxStackFails(t *testing.T) {
	f := New(1, 0, "a/Widget", "doIt", nil, 0, 1)
	if !f.Push(int64(1)) {
		t.Fatalf("expected the first push to succeed")
	}
	if f.Push(int64(2)) {
		t.Errorf("expected pushing past maxStack to fail")
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	f := New(1, 0, "a/Widget", "doIt", nil, 0, 2)
	f.Push(int64(5))

	v, ok := f.Peek()
	if !ok || v.(int64) != 5 {
		t.Fatalf("expected peek to see 5, got %v ok=%v", v, ok)
	}
	if f.IsEmpty() {
		t.Errorf("expected peek not to remove the value")
	}
}

func TestStackPushPopOrdering(t *testing.T) {
	s := NewStack()
	outer := New(1, 0, "a/Widget", "outer", nil, 0, 0)
	inner := New(1, 1, "a/Widget", "inner", nil, 0, 0)

	s.PushFrame(outer)
	s.PushFrame(inner)

	cur, ok := s.Current()
	if !ok || cur.MethName != "inner" {
		t.Fatalf("expected current frame to be inner, got %+v", cur)
	}
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", s.Depth())
	}

	popped, ok := s.PopFrame()
	if !ok || popped.MethName != "inner" {
		t.Fatalf("expected to pop inner, got %+v", popped)
	}
	cur, ok = s.Current()
	if !ok || cur.MethName != "outer" {
		t.Fatalf("expected current frame to be outer after popping inner, got %+v", cur)
	}
}
