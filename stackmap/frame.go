/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package stackmap

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/types"
)

// Frame is the verifier's notion of the type state at one bytecode offset:
// the full locals array (category-2 values occupy two slots, the upper one
// a don't-care placeholder never read directly) and the operand stack,
// bottom first.
type Frame struct {
	Locals []FrameType
	Stack  []FrameType
}

// Clone makes an independent copy, since frame processing mutates in place.
func (f Frame) Clone() Frame {
	locals := make([]FrameType, len(f.Locals))
	copy(locals, f.Locals)
	stack := make([]FrameType, len(f.Stack))
	copy(stack, f.Stack)
	return Frame{Locals: locals, Stack: stack}
}

// OffsetFrame pairs a declared frame with the bytecode offset it applies
// from (inclusive) until the next declared frame or the method's end.
type OffsetFrame struct {
	Offset int
	Frame  Frame
}

const (
	frameSameMax                  = 63
	frameSameLocals1StackItemMax  = 127
	frameSameLocals1StackItemExt  = 247
	frameChopMin                  = 248
	frameChopMax                  = 250
	frameSameExtended             = 251
	frameAppendMin                = 252
	frameAppendMax                = 254
	frameFull                     = 255
)

type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) u1() (int, error) {
	if c.pos >= len(c.data) {
		return 0, except.New(except.VerifyStackMapFrame, "StackMapTable: truncated at offset %d", c.pos)
	}
	v := int(c.data[c.pos])
	c.pos++
	return v, nil
}

func (c *byteCursor) u2() (int, error) {
	hi, err := c.u1()
	if err != nil {
		return 0, err
	}
	lo, err := c.u1()
	if err != nil {
		return 0, err
	}
	return hi<<8 | lo, nil
}

// verificationType decodes one verification_type_info entry. A new-site
// UninitializedVariable entry references a bytecode offset which must be a
// `new` instruction in code's raw bytes.
func verificationType(c *byteCursor, cf *classfile.ClassFile, names *classnames.Registry, code []byte) (FrameType, bool, error) {
	tag, err := c.u1()
	if err != nil {
		return FrameType{}, false, err
	}
	switch tag {
	case 0: // Top
		return FrameType{IsTop: true}, true, nil
	case 1:
		return PrimitiveFrameType(types.Int), true, nil
	case 2:
		return PrimitiveFrameType(types.Float), true, nil
	case 3:
		return PrimitiveFrameType(types.Double), true, nil
	case 4:
		return PrimitiveFrameType(types.Long), true, nil
	case 5: // Null
		return NullFrameType(), true, nil
	case 6: // UninitializedThis
		thisName, ok := cf.ThisClassName()
		if !ok {
			return FrameType{}, false, except.New(except.InvalidConstantPoolIndex, "StackMapTable: bad this-class index")
		}
		return UninitializedFrameType(names.IdFromBytes([]byte(thisName))), true, nil
	case 7: // Object
		cpIndex, err := c.u2()
		if err != nil {
			return FrameType{}, false, err
		}
		name, ok := cf.GetClassName(cpIndex)
		if !ok {
			return FrameType{}, false, except.New(except.InvalidConstantPoolIndex, "StackMapTable: bad class index %d", cpIndex)
		}
		return ReferenceFrameType(names.IdFromBytes([]byte(name))), true, nil
	case 8: // Uninitialized (new-site)
		newOffset, err := c.u2()
		if err != nil {
			return FrameType{}, false, err
		}
		classIdx, err := newIndexAt(code, newOffset)
		if err != nil {
			return FrameType{}, false, err
		}
		name, ok := cf.GetClassName(classIdx)
		if !ok {
			return FrameType{}, false, except.New(except.InvalidConstantPoolIndex, "StackMapTable: bad new-site class index %d", classIdx)
		}
		return UninitializedFrameType(names.IdFromBytes([]byte(name))), true, nil
	}
	return FrameType{}, false, except.New(except.VerifyStackMapFrame, "StackMapTable: unknown verification tag %d", tag)
}

// newIndexAt reads the two-byte constant-pool index operand of the `new`
// instruction (opcode 0xBB) expected at code[offset].
func newIndexAt(code []byte, offset int) (int, error) {
	const opNew = 0xBB
	if offset < 0 || offset+3 > len(code) || code[offset] != opNew {
		return 0, except.New(except.VerifyStackMapFrame, "StackMapTable: uninitialized-variable offset %d is not a new instruction", offset)
	}
	return int(code[offset+1])<<8 | int(code[offset+2]), nil
}

// expandLocals turns a flat list of decoded verification types into a
// locals array where every category-2 entry occupies two slots.
func expandLocals(vts []FrameType) []FrameType {
	out := make([]FrameType, 0, len(vts)+2)
	for _, vt := range vts {
		out = append(out, vt)
		if vt.IsPrimitive && vt.Primitive.IsCategory2() {
			out = append(out, FrameType{IsTop: true})
		}
	}
	return out
}

// chopLocals removes the last k logical locals from locals: a trailing Top
// placeholder preceded by a category-2 primitive counts, together with that
// primitive, as a single logical local removed by one unit of k.
func chopLocals(locals []FrameType, k int) []FrameType {
	consumed := 0
	for consumed < k && len(locals) > 0 {
		last := locals[len(locals)-1]
		if last.IsTop && len(locals) >= 2 {
			prev := locals[len(locals)-2]
			if prev.IsPrimitive && prev.Primitive.IsCategory2() {
				locals = locals[:len(locals)-1]
			}
		}
		locals = locals[:len(locals)-1]
		consumed++
	}
	return locals
}

// DecodeFrames parses a method's raw StackMapTable payload (the bytes
// following number_of_entries) into its declared frames, applying each
// frame kind's update rule against the running locals/stack state. initial
// is the frame synthesized from the method's own signature.
func DecodeFrames(data []byte, cf *classfile.ClassFile, names *classnames.Registry, code []byte, initial Frame) ([]OffsetFrame, error) {
	c := &byteCursor{data: data}
	count, err := c.u2()
	if err != nil {
		return nil, err
	}

	frames := make([]OffsetFrame, 0, count)
	cur := initial.Clone()
	offset := -1

	for i := 0; i < count; i++ {
		tag, err := c.u1()
		if err != nil {
			return nil, err
		}

		var delta int
		switch {
		case tag <= frameSameMax:
			delta = tag
		case tag <= frameSameLocals1StackItemMax:
			delta = tag - 64
		case tag == frameSameLocals1StackItemExt:
			delta, err = c.u2()
		case tag >= frameChopMin && tag <= frameChopMax:
			delta, err = c.u2()
		case tag == frameSameExtended:
			delta, err = c.u2()
		case tag >= frameAppendMin && tag <= frameAppendMax:
			delta, err = c.u2()
		case tag == frameFull:
			delta, err = c.u2()
		default:
			return nil, except.New(except.VerifyStackMapFrame, "StackMapTable: reserved frame tag %d", tag)
		}
		if err != nil {
			return nil, err
		}

		if offset < 0 {
			offset = delta
		} else {
			offset = offset + delta + 1
		}

		switch {
		case tag <= frameSameMax:
			if offset == 0 {
				// a JVM-emitted no-op immediately after the initial frame.
			} else {
				cur.Stack = nil
			}
		case tag <= frameSameLocals1StackItemMax:
			vt, ok, err := verificationType(c, cf, names, code)
			if err != nil {
				return nil, err
			}
			cur.Stack = nil
			if ok {
				cur.Stack = append(cur.Stack, vt)
			}
		case tag == frameSameLocals1StackItemExt:
			vt, ok, err := verificationType(c, cf, names, code)
			if err != nil {
				return nil, err
			}
			cur.Stack = nil
			if ok {
				cur.Stack = append(cur.Stack, vt)
			}
		case tag >= frameChopMin && tag <= frameChopMax:
			k := frameChopMax - tag + 1
			cur.Locals = chopLocals(cur.Locals, k)
			cur.Stack = nil
		case tag == frameSameExtended:
			cur.Stack = nil
		case tag >= frameAppendMin && tag <= frameAppendMax:
			k := tag - frameAppendMin + 1
			added := make([]FrameType, 0, k)
			for j := 0; j < k; j++ {
				vt, ok, err := verificationType(c, cf, names, code)
				if err != nil {
					return nil, err
				}
				if ok {
					added = append(added, vt)
				}
			}
			cur.Locals = append(cur.Locals, expandLocals(added)...)
			cur.Stack = nil
		case tag == frameFull:
			numLocals, err := c.u2()
			if err != nil {
				return nil, err
			}
			locals := make([]FrameType, 0, numLocals)
			for j := 0; j < numLocals; j++ {
				vt, ok, err := verificationType(c, cf, names, code)
				if err != nil {
					return nil, err
				}
				if ok {
					locals = append(locals, vt)
				}
			}
			numStack, err := c.u2()
			if err != nil {
				return nil, err
			}
			stack := make([]FrameType, 0, numStack)
			for j := 0; j < numStack; j++ {
				vt, ok, err := verificationType(c, cf, names, code)
				if err != nil {
					return nil, err
				}
				if ok {
					stack = append(stack, vt)
				}
			}
			cur.Locals = expandLocals(locals)
			cur.Stack = stack
		}

		frames = append(frames, OffsetFrame{Offset: offset, Frame: cur.Clone()})
	}

	return frames, nil
}
