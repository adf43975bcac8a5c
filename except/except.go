/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package except defines the native-error axis: failures that are not
// recoverable from bytecode's perspective and bubble out of eval_method as
// a plain Go error, as opposed to managed Java exceptions (see excNames)
// which are values on the heap.
package except

import (
	"errors"
	"fmt"
)

// Kind enumerates the native error kinds the runtime can raise.
type Kind int

const (
	BadClassId Kind = iota
	InvalidConstantPoolIndex
	MissingMethod
	MissingField
	ClassFileLoad
	InvalidDescriptorType
	UnparsedFieldType
	StepError
	VerifyStackMapFrame
	VerifyStackMapPop
	VerifyStackMapLocal
	VerifyStackMapNoTable
	BadGcRef
	NativeCallFailed
)

func (k Kind) String() string {
	switch k {
	case BadClassId:
		return "BadClassId"
	case InvalidConstantPoolIndex:
		return "InvalidConstantPoolIndex"
	case MissingMethod:
		return "MissingMethod"
	case MissingField:
		return "MissingField"
	case ClassFileLoad:
		return "ClassFileLoad"
	case InvalidDescriptorType:
		return "InvalidDescriptorType"
	case UnparsedFieldType:
		return "UnparsedFieldType"
	case StepError:
		return "StepError"
	case VerifyStackMapFrame:
		return "VerifyStackMapFrame"
	case VerifyStackMapPop:
		return "VerifyStackMapPop"
	case VerifyStackMapLocal:
		return "VerifyStackMapLocal"
	case VerifyStackMapNoTable:
		return "VerifyStackMapNoTable(NoStackMap)"
	case BadGcRef:
		return "BadGcRef"
	case NativeCallFailed:
		return "NativeCallFailed"
	}
	return "UnknownKind"
}

// Error is the concrete Go error type carrying a Kind plus context.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an *Error for the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
