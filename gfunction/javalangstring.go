/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/rnative"
)

// registerString installs java/lang/String's native replacements. rnative's
// internal table is keyed by mangled symbol only (class + method name, no
// descriptor), so overloads sharing a name collide onto one registration —
// stringValueOf below documents how that collision is resolved for
// String.valueOf, which has the most overloads of anything registered here.
func registerString(br *rnative.Bridge) {
	const cls = "java/lang/String"
	br.Register(cls, "equals", stringEquals)
	br.Register(cls, "length", stringLength)
	br.Register(cls, "getBytes", stringGetBytes)
	br.Register(cls, "toLowerCase", stringToLowerCase)
	br.Register(cls, "toUpperCase", stringToUpperCase)
	br.Register(cls, "compareTo", stringCompareTo)
	br.Register(cls, "compareToIgnoreCase", stringCompareToIgnoreCase)
	br.Register(cls, "concat", stringConcat)
	br.Register(cls, "valueOf", stringValueOf)
}

func stringEquals(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	a, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	other, err := asClassInstance(e, args[0])
	if err != nil {
		// Not a NullPointerException-worthy failure: equals(null) and
		// equals(someNonString) both just answer false.
		return int64(0), nil
	}
	if !object.IsJavaString(other) {
		return int64(0), nil
	}
	if a == object.GetGoStringFromJavaStringPtr(other) {
		return int64(1), nil
	}
	return int64(0), nil
}

func stringLength(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	s, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	return int64(len(s)), nil
}

// stringGetBytes only supports the no-argument, platform-default-charset
// form; the String.getBytes(String)/getBytes(Charset) overloads collide
// onto this same registration (mangled-symbol limitation) and are rejected
// with UnsupportedEncodingException rather than silently ignoring the
// requested charset.
func stringGetBytes(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	s, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		return nil, raise(e, excNames.UnsupportedEncodingException)
	}
	return allocByteArray(e, []byte(s)), nil
}

func stringToLowerCase(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	s, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	return allocString(e, strings.ToLower(s)), nil
}

func stringToUpperCase(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	s, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	return allocString(e, strings.ToUpper(s)), nil
}

func stringCompareTo(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	a, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	b, err := goString(e, args[0])
	if err != nil {
		return nil, err
	}
	return int64(strings.Compare(a, b)), nil
}

func stringCompareToIgnoreCase(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	a, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	b, err := goString(e, args[0])
	if err != nil {
		return nil, err
	}
	return int64(strings.Compare(strings.ToLower(a), strings.ToLower(b))), nil
}

func stringConcat(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	a, err := goString(e, this)
	if err != nil {
		return nil, err
	}
	b, err := goString(e, args[0])
	if err != nil {
		return nil, err
	}
	return allocString(e, a+b), nil
}

// stringValueOf handles every String.valueOf(...) overload that reaches
// this table. Since the table can't distinguish descriptors, it dispatches
// on the Go type the marshaled argument actually carries: float32/float64
// are unambiguous (float/double), a heap reference is an Object, and every
// other primitive overload (boolean, char, short, int, long) arrives as
// int64 and is rendered as a decimal integer — valueOf(true) therefore
// prints "1", not "true", and valueOf('A') prints "65", not "A". A caller
// that needs Java-faithful boolean/char formatting should go through
// Boolean.toString/Character.toString instead of String.valueOf.
func stringValueOf(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	if len(args) == 0 {
		return allocString(e, "null"), nil
	}
	switch v := args[0].(type) {
	case float32:
		return allocString(e, formatJavaFloat(float64(v))), nil
	case float64:
		return allocString(e, formatJavaFloat(v)), nil
	case int64:
		return allocString(e, strconv.FormatInt(v, 10)), nil
	case heap.GcRef[object.Instance]:
		if v.IsNil() {
			return allocString(e, "null"), nil
		}
		inst, ok := heap.Deref(e.Gc, v)
		if !ok {
			return allocString(e, "null"), nil
		}
		if ci, ok := inst.(*object.ClassInstance); ok && object.IsJavaString(ci) {
			return allocString(e, object.GetGoStringFromJavaStringPtr(ci)), nil
		}
		return allocString(e, fmt.Sprintf("%v", inst)), nil
	default:
		return allocString(e, fmt.Sprintf("%v", v)), nil
	}
}

func formatJavaFloat(v float64) string {
	str := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return str
}
