/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/types"
)

// NewManagedException allocates a heap-resident exception of the given
// type, exported so packages outside interpreter (the native bridge, in
// particular) can raise one without duplicating allocation logic.
func (e *Engine) NewManagedException(kind excNames.ExceptionType) (heap.GcRef[object.Instance], error) {
	return e.newManagedException(kind)
}

// newManagedException allocates a heap-resident instance of a runtime-
// managed exception type (NullPointerException, ArrayIndexOutOfBounds...,
// etc.) through newInstance, so its declared instance fields hold their
// default values; no message or cause is set.
func (e *Engine) newManagedException(kind excNames.ExceptionType) (heap.GcRef[object.Instance], error) {
	name := excNames.JVMClassNames[kind]
	id := e.Names.IdFromBytes([]byte(name))
	if err := e.Registry.LoadClass(id); err != nil {
		return heap.NilRef[object.Instance](), err
	}
	// The JVM's own exception classes are always concrete, so newInstance's
	// exc return is unreachable here; still check it rather than assume,
	// since a malformed or user-supplied classpath could shadow one of
	// these names with an abstract class of the same name.
	ref, exc, err := e.newInstance(id)
	if err != nil {
		return heap.NilRef[object.Instance](), err
	}
	if !exc.IsNil() {
		return exc, nil
	}
	return ref, nil
}

func primitiveTagFromAtype(atype byte) types.PrimitiveTag {
	switch atype {
	case atBoolean:
		return types.Boolean
	case atChar:
		return types.Char
	case atFloat:
		return types.Float
	case atDouble:
		return types.Double
	case atByte:
		return types.Byte
	case atShort:
		return types.Short
	case atInt:
		return types.Int
	case atLong:
		return types.Long
	}
	return types.Int
}

func defaultElementValue(p types.PrimitiveTag) interface{} {
	switch p {
	case types.Float:
		return float32(0)
	case types.Double:
		return float64(0)
	default:
		return int64(0)
	}
}

// newPrimitiveArray allocates a length-n array of the given primitive
// type, every element defaulted.
func (e *Engine) newPrimitiveArray(tag types.PrimitiveTag, n int32) (heap.GcRef[object.Instance], error) {
	id := e.Names.IdForArrayOfPrimitive(tag)
	elems := make([]interface{}, n)
	def := defaultElementValue(tag)
	for i := range elems {
		elems[i] = def
	}
	arr := object.NewPrimitiveArrayInstance(id, tag, elems)
	return heap.Alloc[object.Instance](e.Gc, arr, int(n)), nil
}

// newReferenceArray allocates a length-n array of elemType, every element
// null.
func (e *Engine) newReferenceArray(elemType classnames.ClassId, n int32) (heap.GcRef[object.Instance], error) {
	level, err := e.Names.IdForArrayLevel(1, elemType)
	if err != nil {
		return heap.NilRef[object.Instance](), err
	}
	elems := make([]heap.GcRef[object.Instance], n)
	arr := object.NewReferenceArrayInstance(level, elemType, elems)
	return heap.Alloc[object.Instance](e.Gc, arr, int(n)*4), nil
}

// multiNewArray recursively builds a multi-dimensional array: dims holds
// one declared length per dimension level (from outermost in); only the
// leading dims with a positive size are actually filled in, per spec.
func (e *Engine) multiNewArray(elemType classnames.ClassId, dims []int32) (heap.GcRef[object.Instance], error) {
	n := dims[0]
	if len(dims) == 1 {
		return e.newReferenceArray(elemType, n)
	}
	subLevel, err := e.Names.IdForArrayLevel(len(dims)-1, elemType)
	if err != nil {
		return heap.NilRef[object.Instance](), err
	}
	outerID, err := e.Names.IdForArrayLevel(len(dims), elemType)
	if err != nil {
		return heap.NilRef[object.Instance](), err
	}

	elems := make([]heap.GcRef[object.Instance], n)
	for i := int32(0); i < n; i++ {
		sub, err := e.multiNewArray(elemType, dims[1:])
		if err != nil {
			return heap.NilRef[object.Instance](), err
		}
		elems[i] = sub
	}
	outer := object.NewReferenceArrayInstance(outerID, subLevel, elems)
	return heap.Alloc[object.Instance](e.Gc, outer, int(n)*4), nil
}

// arrayLoad/arrayStore implement the bounds- and type-checked array
// element access every *aload/*astore opcode shares.
func (e *Engine) arrayLoad(ref heap.GcRef[object.Instance], index int64) (interface{}, heap.GcRef[object.Instance], error) {
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		npe, err := e.newManagedException(excNames.NullPointerException)
		return nil, npe, err
	}
	switch a := inst.(type) {
	case *object.PrimitiveArrayInstance:
		if index < 0 || index >= int64(len(a.Elements)) {
			exc, err := e.newManagedException(excNames.ArrayIndexOutOfBoundsException)
			return nil, exc, err
		}
		return a.Elements[index], heap.NilRef[object.Instance](), nil
	case *object.ReferenceArrayInstance:
		if index < 0 || index >= int64(len(a.Elements)) {
			exc, err := e.newManagedException(excNames.ArrayIndexOutOfBoundsException)
			return nil, exc, err
		}
		el := a.Elements[index]
		if el.IsNil() {
			return nil, heap.NilRef[object.Instance](), nil
		}
		return el, heap.NilRef[object.Instance](), nil
	default:
		return nil, heap.NilRef[object.Instance](), except.New(except.InvalidDescriptorType, "arrayload on a non-array instance")
	}
}

func (e *Engine) arrayStore(ref heap.GcRef[object.Instance], index int64, value interface{}) (heap.GcRef[object.Instance], error) {
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		return e.newManagedException(excNames.NullPointerException)
	}
	switch a := inst.(type) {
	case *object.PrimitiveArrayInstance:
		if index < 0 || index >= int64(len(a.Elements)) {
			return e.newManagedException(excNames.ArrayIndexOutOfBoundsException)
		}
		a.Elements[index] = value
		return heap.NilRef[object.Instance](), nil
	case *object.ReferenceArrayInstance:
		if index < 0 || index >= int64(len(a.Elements)) {
			return e.newManagedException(excNames.ArrayIndexOutOfBoundsException)
		}
		var vref heap.GcRef[object.Instance]
		if value != nil {
			vref = value.(heap.GcRef[object.Instance])
			vi, ok := heap.Deref(e.Gc, vref)
			if !ok {
				return e.newManagedException(excNames.NullPointerException)
			}
			assignable, err := e.CheckCast(vi.InstanceOf(), a.ElementType)
			if err != nil {
				return heap.NilRef[object.Instance](), err
			}
			if !assignable {
				return e.newManagedException(excNames.ArrayStoreException)
			}
		}
		a.Elements[index] = vref
		return heap.NilRef[object.Instance](), nil
	default:
		return heap.NilRef[object.Instance](), except.New(except.InvalidDescriptorType, "arraystore on a non-array instance")
	}
}

func arrayLength(inst object.Instance) (int32, bool) {
	switch a := inst.(type) {
	case *object.PrimitiveArrayInstance:
		return a.Len(), true
	case *object.ReferenceArrayInstance:
		return a.Len(), true
	default:
		return 0, false
	}
}
