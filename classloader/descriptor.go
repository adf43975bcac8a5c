/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/types"
)

// MethodDescriptor is the parsed form of a method's "(...)..." descriptor:
// one RuntimeType per parameter plus a return type (IsVoidReturn when the
// method returns nothing).
type MethodDescriptor struct {
	Params       []types.RuntimeType
	Return       types.RuntimeType
	IsVoidReturn bool
}

// parseFieldType parses one field descriptor starting at desc[pos],
// returning the type and the index just past it. Array descriptors
// recurse through classnames so "[[Ljava/lang/String;" gets exactly one
// ClassId regardless of how many times it's parsed.
func parseFieldType(desc string, pos int, names *classnames.Registry) (types.RuntimeType, int, error) {
	if pos >= len(desc) {
		return types.RuntimeType{}, pos, except.New(except.UnparsedFieldType, "descriptor truncated at %d", pos)
	}

	switch desc[pos] {
	case 'Z':
		return types.PrimitiveType(types.Boolean), pos + 1, nil
	case 'B':
		return types.PrimitiveType(types.Byte), pos + 1, nil
	case 'C':
		return types.PrimitiveType(types.Char), pos + 1, nil
	case 'S':
		return types.PrimitiveType(types.Short), pos + 1, nil
	case 'I':
		return types.PrimitiveType(types.Int), pos + 1, nil
	case 'J':
		return types.PrimitiveType(types.Long), pos + 1, nil
	case 'F':
		return types.PrimitiveType(types.Float), pos + 1, nil
	case 'D':
		return types.PrimitiveType(types.Double), pos + 1, nil
	case 'L':
		end := pos + 1
		for end < len(desc) && desc[end] != ';' {
			end++
		}
		if end >= len(desc) {
			return types.RuntimeType{}, pos, except.New(except.InvalidDescriptorType, "unterminated class descriptor at %d", pos)
		}
		id := names.IdFromBytes([]byte(desc[pos+1 : end]))
		return types.ClassType(uint32(id)), end + 1, nil
	case '[':
		level := pos
		for level < len(desc) && desc[level] == '[' {
			level++
		}
		depth := level - pos
		elem, next, err := parseFieldType(desc, level, names)
		if err != nil {
			return types.RuntimeType{}, pos, err
		}
		var elemID classnames.ClassId
		if elem.IsClass {
			elemID = classnames.ClassId(elem.ClassID)
		} else {
			elemID = names.IdForArrayOfPrimitive(elem.Primitive)
			depth-- // the primitive array constructor already adds one level
		}
		id, err := names.IdForArrayLevel(depth, elemID)
		if err != nil {
			return types.RuntimeType{}, pos, err
		}
		return types.ClassType(uint32(id)), next, nil
	default:
		return types.RuntimeType{}, pos, except.New(except.InvalidDescriptorType, "unknown descriptor tag %q at %d", desc[pos], pos)
	}
}

// ParseFieldDescriptor parses a complete field descriptor, e.g. "I" or
// "Ljava/lang/String;" or "[[I".
func ParseFieldDescriptor(desc string, names *classnames.Registry) (types.RuntimeType, error) {
	rt, pos, err := parseFieldType(desc, 0, names)
	if err != nil {
		return types.RuntimeType{}, err
	}
	if pos != len(desc) {
		return types.RuntimeType{}, except.New(except.InvalidDescriptorType, "trailing bytes after descriptor %q", desc)
	}
	return rt, nil
}

// ParseMethodDescriptor parses "(paramTypes)returnType" into its typed
// form.
func ParseMethodDescriptor(desc string, names *classnames.Registry) (MethodDescriptor, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return MethodDescriptor{}, except.New(except.InvalidDescriptorType, "method descriptor %q must start with '('", desc)
	}
	pos := 1
	var params []types.RuntimeType
	for pos < len(desc) && desc[pos] != ')' {
		p, next, err := parseFieldType(desc, pos, names)
		if err != nil {
			return MethodDescriptor{}, err
		}
		params = append(params, p)
		pos = next
	}
	if pos >= len(desc) {
		return MethodDescriptor{}, except.New(except.InvalidDescriptorType, "method descriptor %q missing ')'", desc)
	}
	pos++ // consume ')'

	if pos < len(desc) && desc[pos] == 'V' {
		return MethodDescriptor{Params: params, IsVoidReturn: true}, nil
	}
	ret, next, err := parseFieldType(desc, pos, names)
	if err != nil {
		return MethodDescriptor{}, err
	}
	if next != len(desc) {
		return MethodDescriptor{}, except.New(except.InvalidDescriptorType, "trailing bytes after return type in %q", desc)
	}
	return MethodDescriptor{Params: params, Return: ret}, nil
}

// SlotCount reports how many operand-stack/local-variable slots the params
// occupy (category-2 types take two).
func (md MethodDescriptor) SlotCount() int {
	n := 0
	for _, p := range md.Params {
		if !p.IsClass && p.Primitive.IsCategory2() {
			n += 2
		} else {
			n++
		}
	}
	return n
}
