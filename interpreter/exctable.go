/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/types"
)

// dispatchException implements the exception-dispatch rule: scan the
// current method's exception table for an entry covering the current PC
// whose catch type is zero (catch-any) or an ancestor of the thrown
// exception's runtime class.
func (e *Engine) dispatchException(f *frames.Frame, cls *classloader.Class, code *classfile.CodeAttr, exc heap.GcRef[object.Instance]) (int, bool, error) {
	excID, err := e.exceptionClassOf(exc)
	if err != nil {
		return 0, false, err
	}
	cf := cls.File
	for _, h := range code.Exceptions {
		if f.PC < h.StartPC || f.PC >= h.EndPC {
			continue
		}
		if h.CatchType == 0 {
			return h.HandlerPC, true, nil
		}
		if cf == nil {
			continue
		}
		name, ok := cf.GetClassName(h.CatchType)
		if !ok {
			continue
		}
		catchID := e.Names.IdFromBytes([]byte(name))
		if err := e.Registry.LoadClass(catchID); err != nil {
			return 0, false, err
		}
		if excID == catchID {
			return h.HandlerPC, true, nil
		}
		assignable, err := e.Registry.IsSuperClass(excID, catchID)
		if err != nil {
			return 0, false, err
		}
		if assignable {
			return h.HandlerPC, true, nil
		}
	}
	return 0, false, nil
}

// ValidateExceptionTable checks the structural constraints a Code
// attribute's exception table must satisfy before its method is ever run:
// start < end, and every start_pc/end_pc/handler_pc lands on an
// instruction boundary. A nonzero catch_type is not resolved here;
// ValidateExceptionTableCatchTypes checks that it names a Throwable
// subclass.
//
// The "<init> self-call + return implies athrow" constraint is checked as
// a simplified heuristic: within a handler's covered range, if both a
// <init> self-invokespecial and a return opcode appear, an athrow must
// also appear somewhere in that range. This does not build a real control-
// flow graph (the verifier's reachability analysis would be needed for
// that) and so can under- or over-approximate exotic bytecode; it catches
// the constraint's intended case (a constructor handler that returns
// normally after re-running <init> logic without ever throwing).
func ValidateExceptionTable(names *classnames.Registry, registry *classloader.Registry, methodName string, code *classfile.CodeAttr) error {
	boundaries := instructionBoundaries(code.Code)
	end := len(code.Code)

	for _, h := range code.Exceptions {
		if h.StartPC >= h.EndPC {
			return except.New(except.InvalidDescriptorType, "exception table entry has start_pc %d >= end_pc %d", h.StartPC, h.EndPC)
		}
		if !boundaries[h.StartPC] {
			return except.New(except.InvalidDescriptorType, "exception table start_pc %d is not an instruction boundary", h.StartPC)
		}
		if h.EndPC != end && !boundaries[h.EndPC] {
			return except.New(except.InvalidDescriptorType, "exception table end_pc %d is not an instruction boundary", h.EndPC)
		}
		if !boundaries[h.HandlerPC] {
			return except.New(except.InvalidDescriptorType, "exception table handler_pc %d is not an instruction boundary", h.HandlerPC)
		}
		if h.CatchType != 0 {
			// A full ClassFile is needed to resolve the constant-pool
			// index; callers validate from method-loading context where
			// one is always available, so an absent one is a caller bug.
			continue
		}
	}

	if methodName == "<init>" {
		for _, h := range code.Exceptions {
			if hasInitSelfCallAndReturn(code.Code, h.StartPC, h.EndPC) && !hasOpcodeInRange(code.Code, h.StartPC, h.EndPC, opAthrow) {
				return except.New(except.InvalidDescriptorType, "<init> handler [%d,%d) re-runs <init> logic and returns without an athrow", h.StartPC, h.EndPC)
			}
		}
	}
	return nil
}

// ValidateExceptionTableCatchTypes additionally checks that every nonzero
// catch_type resolves to a class that extends Throwable; it needs the
// owning ClassFile to resolve constant-pool indices, so it is a separate
// pass from the boundary checks above.
func ValidateExceptionTableCatchTypes(e *Engine, cf *classfile.ClassFile, code *classfile.CodeAttr) error {
	throwableID := e.Names.IdFromBytes([]byte(types.ThrowableClassName))
	for _, h := range code.Exceptions {
		if h.CatchType == 0 {
			continue
		}
		name, ok := cf.GetClassName(h.CatchType)
		if !ok {
			return except.New(except.InvalidConstantPoolIndex, "exception table catch_type index %d unresolved", h.CatchType)
		}
		catchID := e.Names.IdFromBytes([]byte(name))
		if err := e.Registry.LoadClass(catchID); err != nil {
			return err
		}
		if catchID == throwableID {
			continue
		}
		ok, err := e.Registry.IsSuperClass(catchID, throwableID)
		if err != nil {
			return err
		}
		if !ok {
			return except.New(except.InvalidDescriptorType, "exception table catch_type %s does not extend Throwable", name)
		}
	}
	return nil
}

func hasOpcodeInRange(code []byte, start, end int, op byte) bool {
	for i := start; i < end && i < len(code); {
		if code[i] == op {
			return true
		}
		i += instructionLength(code, i)
	}
	return false
}

// hasInitSelfCallAndReturn reports whether [start,end) contains both a
// "return" and an invokespecial whose target is plausibly a same-class
// <init> call. The constant-pool index alone (without the owning
// ClassFile) can't distinguish "<init> on this class" from "<init> on a
// superclass"; both are self-calls for this check's purposes, so any
// invokespecial is treated as a candidate.
func hasInitSelfCallAndReturn(code []byte, start, end int) bool {
	sawReturn := false
	sawInvokespecial := false
	for i := start; i < end && i < len(code); {
		switch code[i] {
		case opReturn:
			sawReturn = true
		case opInvokespecial:
			sawInvokespecial = true
		}
		i += instructionLength(code, i)
	}
	return sawReturn && sawInvokespecial
}
