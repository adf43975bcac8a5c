/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interpreter runs one method's bytecode to completion: the
// instruction dispatch loop, method resolution at call sites, the
// class-initialization barrier, cast/instanceof checking, and exception
// table dispatch.
package interpreter

import (
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
)

// stepKind is what one instruction did to its frame.
type stepKind int

const (
	stepContinue stepKind = iota
	stepReturnVoid
	stepReturn
	stepException
)

// stepResult is one instruction's outcome; the dispatch loop in EvalMethod
// turns stepReturn/stepReturnVoid into a MethodResult and stepException
// into an exception-table lookup.
type stepResult struct {
	kind  stepKind
	value interface{}
	exc   heap.GcRef[object.Instance]
}

// MethodResult is what EvalMethod reports once a method activation ends,
// however it ended.
type MethodResult struct {
	// Void is true for a method that returned via "return" (no value).
	Void bool
	// Value holds the returned value for ireturn/lreturn/freturn/dreturn/
	// areturn, using the same representation convention as frame operand
	// stack slots.
	Value interface{}
	// Threw is true if the method unwound completely without any of its
	// own handlers matching; Exc is the propagating exception.
	Threw bool
	Exc   heap.GcRef[object.Instance]
}
