/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/statics"
	"github.com/jacobin-run/rho/types"
)

// stringClassId is a process-wide placeholder ClassId for java/lang/String
// instances built by these helpers, which run before a classnames.Registry
// necessarily exists (bootstrap constants, native-bridge glue code).
// Callers that already have a Registry should prefer building the
// ClassInstance directly with its real interned id.
const stringClassId classnames.ClassId = 0

// NewString builds an empty java/lang/String instance: an empty backing
// byte slice, coder/hash/hashIsZero all zeroed.
func NewString() *ClassInstance {
	name := types.StringClassName
	s := &ClassInstance{
		Klass:        &name,
		InstanceOfId: stringClassId,
		FieldTable: Fields{
			"value":      Field{Ftype: types.ByteArray, Fvalue: []byte{}},
			"coder":      Field{Ftype: "B", Fvalue: int64(0)},
			"hash":       Field{Ftype: "I", Fvalue: int64(0)},
			"hashIsZero": Field{Ftype: "Z", Fvalue: types.JavaBoolFalse},
		},
	}
	return s
}

// coderFor chooses String's "coder" byte: 0 (LATIN1) when COMPACT_STRINGS
// is enabled and every byte fits in one latin1 byte, 1 (UTF16) otherwise.
func coderFor(content []byte) int64 {
	compact, ok := statics.GetStatic("java/lang/String.COMPACT_STRINGS")
	if ok {
		if v, isInt := compact.Value.(int64); isInt && v == 0 {
			return 1
		}
	}
	for _, b := range content {
		if b >= 0x80 {
			return 1
		}
	}
	return 0
}

// NewStringFromGoString builds a java/lang/String whose content is s,
// encoded byte-for-byte (rho does not yet model UTF16 surrogate content;
// non-ASCII Go strings still round-trip through GetGoStringFromJavaStringPtr).
func NewStringFromGoString(s string) *ClassInstance {
	content := []byte(s)
	str := NewString()
	str.FieldTable["value"] = Field{Ftype: types.ByteArray, Fvalue: content}
	str.FieldTable["coder"] = Field{Ftype: "B", Fvalue: coderFor(content)}
	return str
}

// CreateCompactStringFromGoString is NewStringFromGoString taking its
// input by pointer, for call sites that already hold a *string (avoiding
// a copy at native-bridge boundaries).
func CreateCompactStringFromGoString(s *string) *ClassInstance {
	return NewStringFromGoString(*s)
}

// GetGoStringFromJavaStringPtr reads back a java/lang/String instance's
// backing bytes as a Go string.
func GetGoStringFromJavaStringPtr(s *ClassInstance) string {
	if s == nil {
		return ""
	}
	f, ok := s.FieldTable["value"]
	if !ok {
		return ""
	}
	b, ok := f.Fvalue.([]byte)
	if !ok {
		return ""
	}
	return string(b)
}

// IsJavaString reports whether v is a *ClassInstance representing
// java/lang/String (as opposed to a nil reference, a Go string, or some
// other instance variant).
func IsJavaString(v interface{}) bool {
	s, ok := v.(*ClassInstance)
	if !ok || s == nil {
		return false
	}
	if s.Klass == nil || *s.Klass != types.StringClassName {
		return false
	}
	_, hasValue := s.FieldTable["value"]
	return hasValue
}
