/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excNames is the table of managed-exception class names the
// runtime itself throws.
package excNames

// ExceptionType is an internal tag identifying a managed exception class;
// the interpreter's Engine.NewManagedException maps it to the actual class
// name below before allocating the exception object.
type ExceptionType int

const (
	NullPointerException ExceptionType = iota
	ClassCastException
	ArrayIndexOutOfBoundsException
	ArrayStoreException
	ArithmeticException
	NegativeArraySizeException
	ClassNotFoundException
	NoSuchMethodError
	NoSuchFieldError
	IncompatibleClassChangeError
	LinkageError
	OutOfMemoryError
	InstantiationError
	StringIndexOutOfBoundsException
	UnsupportedOperationException
	VirtualMachineError
	InternalException
	StackOverflowError
	InvalidTypeException
	ClassNotLoadedException
	UnsupportedEncodingException
	UnsatisfiedLinkError
)

// JVMClassNames maps each internal exception type to its fully-qualified
// JVM class name, in internal / (slash) form.
var JVMClassNames = map[ExceptionType]string{
	NullPointerException:            "java/lang/NullPointerException",
	ClassCastException:              "java/lang/ClassCastException",
	ArrayIndexOutOfBoundsException:  "java/lang/ArrayIndexOutOfBoundsException",
	ArrayStoreException:             "java/lang/ArrayStoreException",
	ArithmeticException:             "java/lang/ArithmeticException",
	NegativeArraySizeException:      "java/lang/NegativeArraySizeException",
	ClassNotFoundException:          "java/lang/ClassNotFoundException",
	NoSuchMethodError:               "java/lang/NoSuchMethodError",
	NoSuchFieldError:                "java/lang/NoSuchFieldError",
	IncompatibleClassChangeError:    "java/lang/IncompatibleClassChangeError",
	LinkageError:                    "java/lang/LinkageError",
	OutOfMemoryError:                "java/lang/OutOfMemoryError",
	InstantiationError:              "java/lang/InstantiationError",
	StringIndexOutOfBoundsException: "java/lang/StringIndexOutOfBoundsException",
	UnsupportedOperationException:   "java/lang/UnsupportedOperationException",
	VirtualMachineError:             "java/lang/VirtualMachineError",
	InternalException:               "java/lang/InternalError",
	StackOverflowError:              "java/lang/StackOverflowError",
	InvalidTypeException:            "java/lang/InternalError",
	ClassNotLoadedException:         "java/lang/NoClassDefFoundError",
	UnsupportedEncodingException:    "java/io/UnsupportedEncodingException",
	UnsatisfiedLinkError:            "java/lang/UnsatisfiedLinkError",
}
