/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"testing"

	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
)

func mustGoString(t *testing.T, e *interpreter.Engine, v interface{}) string {
	t.Helper()
	s, err := goString(e, v)
	if err != nil {
		t.Fatalf("goString: %v", err)
	}
	return s
}

func TestStringEquals(t *testing.T) {
	e, _, _ := newTestEngine(t)
	a := newJavaString(e, "hello")
	b := newJavaString(e, "hello")
	c := newJavaString(e, "world")

	if got, err := stringEquals(e, a, []interface{}{b}); err != nil || got.(int64) != 1 {
		t.Fatalf("equals(same) = (%v, %v), want (1, nil)", got, err)
	}
	if got, err := stringEquals(e, a, []interface{}{c}); err != nil || got.(int64) != 0 {
		t.Fatalf("equals(different) = (%v, %v), want (0, nil)", got, err)
	}
	if got, err := stringEquals(e, a, []interface{}{heap.NilRef[object.Instance]()}); err != nil || got.(int64) != 0 {
		t.Fatalf("equals(null) = (%v, %v), want (0, nil)", got, err)
	}
}

func TestStringLength(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newJavaString(e, "abcde")
	got, err := stringLength(e, s, nil)
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if got.(int64) != 5 {
		t.Fatalf("length = %v, want 5", got)
	}
}

func TestStringGetBytesRejectsCharsetOverload(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newJavaString(e, "ab")
	if _, err := stringGetBytes(e, s, []interface{}{newJavaString(e, "UTF-8")}); err == nil {
		t.Fatalf("expected getBytes(charset) to be rejected")
	}

	got, err := stringGetBytes(e, s, nil)
	if err != nil {
		t.Fatalf("getBytes: %v", err)
	}
	ref := got.(heap.GcRef[object.Instance])
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		t.Fatalf("dangling byte array reference")
	}
	arr := inst.(*object.PrimitiveArrayInstance)
	if len(arr.Elements) != 2 || arr.Elements[0].(int64) != int64('a') {
		t.Fatalf("getBytes = %v, want [97 98]", arr.Elements)
	}
}

func TestStringCaseConversion(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newJavaString(e, "MixedCase")

	lower, err := stringToLowerCase(e, s, nil)
	if err != nil {
		t.Fatalf("toLowerCase: %v", err)
	}
	if got := mustGoString(t, e, lower); got != "mixedcase" {
		t.Fatalf("toLowerCase = %q, want mixedcase", got)
	}

	upper, err := stringToUpperCase(e, s, nil)
	if err != nil {
		t.Fatalf("toUpperCase: %v", err)
	}
	if got := mustGoString(t, e, upper); got != "MIXEDCASE" {
		t.Fatalf("toUpperCase = %q, want MIXEDCASE", got)
	}
}

func TestStringCompareTo(t *testing.T) {
	e, _, _ := newTestEngine(t)
	a := newJavaString(e, "abc")
	b := newJavaString(e, "abd")

	if got, err := stringCompareTo(e, a, []interface{}{b}); err != nil || got.(int64) != -1 {
		t.Fatalf("compareTo = (%v, %v), want (-1, nil)", got, err)
	}
	if got, err := stringCompareTo(e, a, []interface{}{a}); err != nil || got.(int64) != 0 {
		t.Fatalf("compareTo(self) = (%v, %v), want (0, nil)", got, err)
	}

	ci := newJavaString(e, "ABC")
	if got, err := stringCompareToIgnoreCase(e, a, []interface{}{ci}); err != nil || got.(int64) != 0 {
		t.Fatalf("compareToIgnoreCase = (%v, %v), want (0, nil)", got, err)
	}
}

func TestStringConcat(t *testing.T) {
	e, _, _ := newTestEngine(t)
	a := newJavaString(e, "foo")
	b := newJavaString(e, "bar")
	got, err := stringConcat(e, a, []interface{}{b})
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if s := mustGoString(t, e, got); s != "foobar" {
		t.Fatalf("concat = %q, want foobar", s)
	}
}

func TestStringValueOfDispatchesOnGoType(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if got, err := stringValueOf(e, nil, []interface{}{int64(42)}); err != nil || mustGoString(t, e, got) != "42" {
		t.Fatalf("valueOf(int64) = (%v, %v), want (\"42\", nil)", got, err)
	}
	if got, err := stringValueOf(e, nil, []interface{}{float32(2.5)}); err != nil || mustGoString(t, e, got) != "2.5" {
		t.Fatalf("valueOf(float32) = (%v, %v), want (\"2.5\", nil)", got, err)
	}
	if got, err := stringValueOf(e, nil, []interface{}{float64(3.0)}); err != nil || mustGoString(t, e, got) != "3.0" {
		t.Fatalf("valueOf(float64) = (%v, %v), want (\"3.0\", nil)", got, err)
	}
	ref := newJavaString(e, "already-a-string")
	if got, err := stringValueOf(e, nil, []interface{}{ref}); err != nil || mustGoString(t, e, got) != "already-a-string" {
		t.Fatalf("valueOf(String) = (%v, %v), want (\"already-a-string\", nil)", got, err)
	}
}

func TestStringEqualsWrongTypeRaisesNoException(t *testing.T) {
	e, _, _ := newTestEngine(t)
	a := newJavaString(e, "x")
	got, err := stringEquals(e, a, []interface{}{int64(5)})
	if err != nil {
		t.Fatalf("equals(nonString) unexpectedly errored: %v", err)
	}
	if got.(int64) != 0 {
		t.Fatalf("equals(nonString) = %v, want 0", got)
	}
}
