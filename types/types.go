/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the primitive type tags, Java boolean constants, and
// the RuntimeType descriptor sum that every other package in rho shares.
// Keeping these in one leaf package avoids import cycles between classnames,
// classfile, object, and the interpreter.
package types

// PrimitiveTag identifies one of the eight JVM primitive types plus the
// two pseudo-types (void, returnAddress) that show up in descriptors.
type PrimitiveTag uint8

const (
	Boolean PrimitiveTag = iota
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Void
	ReturnAddress
)

func (p PrimitiveTag) String() string {
	switch p {
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Void:
		return "void"
	case ReturnAddress:
		return "returnAddress"
	}
	return "?"
}

// IsCategory2 reports whether a primitive occupies two stack/local slots.
func (p PrimitiveTag) IsCategory2() bool {
	return p == Long || p == Double
}

// DescPrefix returns the single-character descriptor prefix used when
// synthesizing array class names (e.g. "[I" for an int array).
func (p PrimitiveTag) DescPrefix() byte {
	switch p {
	case Boolean:
		return 'Z'
	case Byte:
		return 'B'
	case Char:
		return 'C'
	case Short:
		return 'S'
	case Int:
		return 'I'
	case Long:
		return 'J'
	case Float:
		return 'F'
	case Double:
		return 'D'
	case Void:
		return 'V'
	}
	return '?'
}

// RuntimeType is the canonical in-memory form of every descriptor rho
// parses: either a primitive tag or a reference to a named class. ClassID
// is left as uint32 here (rather than importing classnames.ClassId) to
// keep this package leaf-level; classnames.ClassId is defined as the same
// underlying type.
type RuntimeType struct {
	Primitive PrimitiveTag
	ClassID   uint32
	IsClass   bool // true => ClassID is meaningful; false => Primitive is
}

func PrimitiveType(p PrimitiveTag) RuntimeType { return RuntimeType{Primitive: p} }
func ClassType(id uint32) RuntimeType           { return RuntimeType{ClassID: id, IsClass: true} }

// Java booleans are represented as int64 0/1 on the operand stack.
const (
	JavaBoolFalse int64 = 0
	JavaBoolTrue  int64 = 1
)

// ConvertGoBoolToJavaBool converts a Go bool to its operand-stack form.
func ConvertGoBoolToJavaBool(b bool) int64 {
	if b {
		return JavaBoolTrue
	}
	return JavaBoolFalse
}

// ByteArray is the Ftype tag used by object.Field for raw byte-backed
// fields (notably java/lang/String's compact "value" field).
const ByteArray = "[B"

// Well-known class names used throughout the runtime.
const (
	StringClassName    = "java/lang/String"
	ObjectClassName    = "java/lang/Object"
	ThrowableClassName = "java/lang/Throwable"
	CloneableIface     = "java/lang/Cloneable"
	SerializableIface  = "java/io/Serializable"
)

// Array marks the leading descriptor byte for array types.
const Array = "["
