/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package frames implements one method activation: a fixed-size locals
// array, a LIFO operand stack of known maximum depth, a program counter,
// and the identity of the method being executed.
package frames

import (
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/fieldid"
)

// Frame is one method activation. Locals and OpStack slots hold either a
// Go primitive value (int64 for every integral or boolean primitive,
// float32 for float, float64 for double), a heap.GcRef[object.Instance]
// for a reference,
// or nil for a null reference or an unset local — frames intentionally
// does not import heap/object to stay a leaf package; the interpreter is
// the one place that knows what a slot's interface{} actually holds.
type Frame struct {
	ClassID  classnames.ClassId
	MethodID fieldid.MethodId
	ClName   string // display name, used for trace output
	MethName string

	Code []byte
	PC   int

	Locals  []interface{}
	OpStack []interface{}
	// TOS is the index of the top operand-stack element; -1 means empty.
	TOS int
}

// New allocates a fresh activation. Local variable 0 is left to the
// caller to fill in (the receiver for non-static methods); maxLocals and
// maxStack come from the method's Code attribute.
func New(classID classnames.ClassId, methodID fieldid.MethodId, className, methodName string, code []byte, maxLocals, maxStack int) *Frame {
	return &Frame{
		ClassID:  classID,
		MethodID: methodID,
		ClName:   className,
		MethName: methodName,
		Code:     code,
		Locals:   make([]interface{}, maxLocals),
		OpStack:  make([]interface{}, maxStack),
		TOS:      -1,
	}
}

// IsEmpty reports whether the operand stack currently holds no values.
func (f *Frame) IsEmpty() bool { return f.TOS == -1 }

// Push places x on top of the operand stack. It reports false instead of
// growing past maxStack; frames raises nothing itself, and the
// interpreter's dispatch loop does not check this result.
func (f *Frame) Push(x interface{}) bool {
	if f.TOS == len(f.OpStack)-1 {
		return false
	}
	f.TOS++
	f.OpStack[f.TOS] = x
	return true
}

// Pop removes and returns the top of the operand stack. ok is false if it
// was already empty.
func (f *Frame) Pop() (interface{}, bool) {
	if f.TOS == -1 {
		return nil, false
	}
	v := f.OpStack[f.TOS]
	f.OpStack[f.TOS] = nil
	f.TOS--
	return v, true
}

// Peek returns the top of the operand stack without removing it.
func (f *Frame) Peek() (interface{}, bool) {
	if f.TOS == -1 {
		return nil, false
	}
	return f.OpStack[f.TOS], true
}
