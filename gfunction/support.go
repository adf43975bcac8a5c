/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction holds the Go-native replacements for a handful of JDK
// methods the interpreter cannot run as interpreted bytecode (they're
// declared native, or they need host access the verifier can't express).
// RegisterAll wires every replacement here into a rnative.Bridge; nothing
// in this package is reachable except through that table.
package gfunction

import (
	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/rnative"
	"github.com/jacobin-run/rho/types"
)

// raise allocates a managed exception of kind and wraps it as the
// *rnative.Thrown a NativeFunc returns to signal a Java-visible throw
// (as opposed to a native-layer Go error, which surfaces as
// except.NativeCallFailed instead).
func raise(e *interpreter.Engine, kind excNames.ExceptionType) error {
	exc, err := e.NewManagedException(kind)
	if err != nil {
		return err
	}
	return &rnative.Thrown{Exc: exc}
}

// asClassInstance resolves v (a this receiver or argument slot) to its
// backing *object.ClassInstance, raising NullPointerException for a
// null/absent reference and ClassCastException for anything not
// instance-shaped.
func asClassInstance(e *interpreter.Engine, v interface{}) (*object.ClassInstance, error) {
	ref, ok := v.(heap.GcRef[object.Instance])
	if !ok || ref.IsNil() {
		return nil, raise(e, excNames.NullPointerException)
	}
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		return nil, raise(e, excNames.NullPointerException)
	}
	ci, ok := inst.(*object.ClassInstance)
	if !ok {
		return nil, raise(e, excNames.ClassCastException)
	}
	return ci, nil
}

// asString is asClassInstance with the additional check that the instance
// is actually a java/lang/String.
func asString(e *interpreter.Engine, v interface{}) (*object.ClassInstance, error) {
	ci, err := asClassInstance(e, v)
	if err != nil {
		return nil, err
	}
	if !object.IsJavaString(ci) {
		return nil, raise(e, excNames.ClassCastException)
	}
	return ci, nil
}

// goString is asString followed by unwrapping the Go string it carries.
func goString(e *interpreter.Engine, v interface{}) (string, error) {
	ci, err := asString(e, v)
	if err != nil {
		return "", err
	}
	return object.GetGoStringFromJavaStringPtr(ci), nil
}

// allocString builds a java/lang/String from s and allocates it on the
// heap, in the heap.GcRef[object.Instance]-as-interface{} form every
// operand-stack slot and native argument/return value shares.
func allocString(e *interpreter.Engine, s string) interface{} {
	inst := object.NewStringFromGoString(s)
	return heap.Alloc[object.Instance](e.Gc, inst, len(s))
}

// allocByteArray builds a primitive byte[] from b and allocates it.
func allocByteArray(e *interpreter.Engine, b []byte) interface{} {
	id := e.Names.IdForArrayOfPrimitive(types.Byte)
	elems := make([]interface{}, len(b))
	for i, c := range b {
		elems[i] = int64(int8(c))
	}
	arr := object.NewPrimitiveArrayInstance(id, types.Byte, elems)
	return heap.Alloc[object.Instance](e.Gc, arr, len(b))
}
