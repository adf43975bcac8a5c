/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stackmap verifies that a method's declared StackMapTable frames
// are internally consistent with its instruction sequence.
package stackmap

import (
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/types"
)

// FrameType is the verifier's in-memory type for one stack slot or local
// variable: either a primitive tag (all of bool/byte/char/short/int share
// one representation, since they are interchangeable on the stack) or a
// reference.
type FrameType struct {
	Primitive     types.PrimitiveTag
	IsPrimitive   bool
	Class         classnames.ClassId
	Uninitialized bool // true for UninitializedThis / new-site UninitializedVariable
	IsNull        bool
	IsTop         bool // placeholder: the upper slot of a category-2 local
}

func PrimitiveFrameType(p types.PrimitiveTag) FrameType {
	return FrameType{Primitive: p, IsPrimitive: true}
}

func ReferenceFrameType(class classnames.ClassId) FrameType {
	return FrameType{Class: class}
}

func UninitializedFrameType(class classnames.ClassId) FrameType {
	return FrameType{Class: class, Uninitialized: true}
}

func NullFrameType() FrameType { return FrameType{IsNull: true} }

// IsCategory1 reports whether ft occupies a single stack/local slot.
func (ft FrameType) IsCategory1() bool {
	return !(ft.IsPrimitive && ft.Primitive.IsCategory2())
}

// isSameTypeOnStack treats bool/byte/char/short/int as interchangeable;
// long/float/double only match themselves.
func isSameTypeOnStack(a, b types.PrimitiveTag) bool {
	asInt := func(p types.PrimitiveTag) bool {
		return p == types.Boolean || p == types.Byte || p == types.Char || p == types.Short || p == types.Int
	}
	if asInt(a) && asInt(b) {
		return true
	}
	return a == b
}

// IsAssignableFrom reports whether a value of type right may appear where
// left is expected, per spec.md §4.D's compatibility rules: primitive
// categories are interchangeable per isSameTypeOnStack, null matches any
// reference slot, and uninitialized reference types match their
// initialized counterpart.
func IsAssignableFrom(reg *classloader.Registry, left, right FrameType) (bool, error) {
	if left.IsPrimitive || right.IsPrimitive {
		if !left.IsPrimitive || !right.IsPrimitive {
			return false, nil
		}
		return isSameTypeOnStack(left.Primitive, right.Primitive), nil
	}

	if right.IsNull {
		return true, nil
	}
	if left.IsNull {
		return right.IsNull, nil
	}

	if left.Class == right.Class {
		return true, nil
	}
	if ok, err := reg.IsSuperClass(right.Class, left.Class); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if ok, err := reg.ImplementsInterface(right.Class, left.Class); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if ok, err := reg.IsCastableArray(right.Class, left.Class); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	return false, nil
}
