/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import "container/list"

// Stack is the call stack: a chain of Frames, newest at the front. The
// interpreter pushes a callee's Frame here on a Call continuation and pops
// it back off when that callee returns or raises an exception that
// unwinds past it.
type Stack struct {
	l *list.List
}

// NewStack creates an empty call stack.
func NewStack() *Stack {
	return &Stack{l: list.New()}
}

// PushFrame makes f the current (topmost) frame.
func (s *Stack) PushFrame(f *Frame) {
	s.l.PushFront(f)
}

// Current returns the topmost frame, if any.
func (s *Stack) Current() (*Frame, bool) {
	e := s.l.Front()
	if e == nil {
		return nil, false
	}
	return e.Value.(*Frame), true
}

// PopFrame removes and returns the topmost frame.
func (s *Stack) PopFrame() (*Frame, bool) {
	e := s.l.Front()
	if e == nil {
		return nil, false
	}
	s.l.Remove(e)
	return e.Value.(*Frame), true
}

// Depth reports how many frames are currently on the stack.
func (s *Stack) Depth() int {
	return s.l.Len()
}

// Frames returns a snapshot slice of the current stack, topmost frame
// first, for callers (the native bridge's Throwable.fillInStackTrace
// replacement, in particular) that need to walk the call chain without
// reaching into Stack's internal list.
func (s *Stack) Frames() []*Frame {
	frames := make([]*Frame, 0, s.l.Len())
	for e := s.l.Front(); e != nil; e = e.Next() {
		frames = append(frames, e.Value.(*Frame))
	}
	return frames
}
