/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"math"

	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/fieldid"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
)

func cmp64(a, b int64) int64 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// fcmp implements fcmpl/fcmpg and dcmpl/dcmpg: identical except for which
// sentinel they push when either operand is NaN.
func fcmp(a, b float64, nanIsGreater bool) int64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if nanIsGreater {
			return 1
		}
		return -1
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func compareToZero(op byte, v int64) bool {
	switch op {
	case opIfeq:
		return v == 0
	case opIfne:
		return v != 0
	case opIflt:
		return v < 0
	case opIfge:
		return v >= 0
	case opIfgt:
		return v > 0
	case opIfle:
		return v <= 0
	}
	return false
}

func compareInts(op byte, a, b int64) bool {
	switch op {
	case opIfIcmpeq:
		return a == b
	case opIfIcmpne:
		return a != b
	case opIfIcmplt:
		return a < b
	case opIfIcmpge:
		return a >= b
	case opIfIcmpgt:
		return a > b
	case opIfIcmple:
		return a <= b
	}
	return false
}

// refEquals compares two operand-stack reference slots (nil or
// heap.GcRef[object.Instance]) by identity.
func refEquals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, aok := a.(heap.GcRef[object.Instance])
	rb, bok := b.(heap.GcRef[object.Instance])
	if !aok || !bok {
		return false
	}
	return ra.Index() == rb.Index()
}

func (e *Engine) stepLdc(f *frames.Frame, cf *classfile.ClassFile, op byte, code []byte, pc int, advance func() stepResult) (stepResult, error) {
	var cpIndex int
	if op == opLdc {
		cpIndex = int(code[pc+1])
	} else {
		cpIndex = int(be16(code, pc+1))
	}
	if cpIndex <= 0 || cpIndex >= len(cf.CP.CpIndex) {
		return stepResult{}, except.New(except.InvalidConstantPoolIndex, "bad ldc index %d", cpIndex)
	}
	entry := cf.CP.CpIndex[cpIndex]
	switch entry.Tag {
	case classfile.TagInteger:
		f.Push(int64(cf.CP.IntConsts[entry.Slot]))
	case classfile.TagFloat:
		f.Push(cf.CP.Floats[entry.Slot])
	case classfile.TagLong:
		f.Push(cf.CP.LongConsts[entry.Slot])
	case classfile.TagDouble:
		f.Push(cf.CP.Doubles[entry.Slot])
	case classfile.TagStringConst:
		s, ok := cf.GetUtf8(cf.CP.StringRefs[entry.Slot])
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "unresolved string constant at %d", cpIndex)
		}
		strInst := object.NewStringFromGoString(s)
		ref := heap.Alloc[object.Instance](e.Gc, strInst, len(s))
		f.Push(ref)
	case classfile.TagClassRef:
		name, ok := cf.GetClassName(cpIndex)
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "unresolved class constant at %d", cpIndex)
		}
		id := e.Names.IdFromBytes([]byte(name))
		if _, err := e.InitClass(id); err != nil {
			return stepResult{}, err
		}
		sci, _ := heap.Deref(e.Gc, e.statics[id])
		if sci != nil && !sci.Form.IsNil() {
			f.Push(heap.IntoGeneric[*object.StaticFormInstance, object.Instance](sci.Form))
		} else {
			f.Push(nil)
		}
	default:
		return stepResult{}, except.New(except.InvalidConstantPoolIndex, "ldc of unsupported constant-pool tag %d", entry.Tag)
	}
	return advance(), nil
}

func (e *Engine) stepIntBinOp(f *frames.Frame, op byte, raise func(excNames.ExceptionType) (stepResult, error), advance func() stepResult) (stepResult, error) {
	b, _ := f.Pop()
	a, _ := f.Pop()
	x, y := int32(a.(int64)), int32(b.(int64))
	switch op {
	case opIadd:
		f.Push(int64(x + y))
	case opIsub:
		f.Push(int64(x - y))
	case opImul:
		f.Push(int64(x * y))
	case opIdiv:
		if y == 0 {
			return raise(excNames.ArithmeticException)
		}
		f.Push(int64(x / y))
	case opIrem:
		if y == 0 {
			return raise(excNames.ArithmeticException)
		}
		f.Push(int64(x % y))
	case opIand:
		f.Push(int64(x & y))
	case opIor:
		f.Push(int64(x | y))
	case opIxor:
		f.Push(int64(x ^ y))
	case opIshl:
		f.Push(int64(x << (uint32(y) & 0x1f)))
	case opIshr:
		f.Push(int64(x >> (uint32(y) & 0x1f)))
	case opIushr:
		f.Push(int64(int32(uint32(x) >> (uint32(y) & 0x1f))))
	}
	return advance(), nil
}

func (e *Engine) stepLongBinOp(f *frames.Frame, op byte, raise func(excNames.ExceptionType) (stepResult, error), advance func() stepResult) (stepResult, error) {
	b, _ := f.Pop()
	a, _ := f.Pop()
	x, y := a.(int64), b.(int64)
	switch op {
	case opLadd:
		f.Push(x + y)
	case opLsub:
		f.Push(x - y)
	case opLmul:
		f.Push(x * y)
	case opLdiv:
		if y == 0 {
			return raise(excNames.ArithmeticException)
		}
		f.Push(x / y)
	case opLrem:
		if y == 0 {
			return raise(excNames.ArithmeticException)
		}
		f.Push(x % y)
	case opLand:
		f.Push(x & y)
	case opLor:
		f.Push(x | y)
	case opLxor:
		f.Push(x ^ y)
	case opLshl:
		f.Push(x << (uint64(y) & 0x3f))
	case opLshr:
		f.Push(x >> (uint64(y) & 0x3f))
	case opLushr:
		f.Push(int64(uint64(x) >> (uint64(y) & 0x3f)))
	}
	return advance(), nil
}

func stepFloatBinOp(f *frames.Frame, op byte, advance func() stepResult) (stepResult, error) {
	b, _ := f.Pop()
	a, _ := f.Pop()
	x, y := a.(float32), b.(float32)
	switch op {
	case opFadd:
		f.Push(x + y)
	case opFsub:
		f.Push(x - y)
	case opFmul:
		f.Push(x * y)
	case opFdiv:
		f.Push(x / y)
	case opFrem:
		f.Push(float32(math.Mod(float64(x), float64(y))))
	}
	return advance(), nil
}

func stepDoubleBinOp(f *frames.Frame, op byte, advance func() stepResult) (stepResult, error) {
	b, _ := f.Pop()
	a, _ := f.Pop()
	x, y := a.(float64), b.(float64)
	switch op {
	case opDadd:
		f.Push(x + y)
	case opDsub:
		f.Push(x - y)
	case opDmul:
		f.Push(x * y)
	case opDdiv:
		f.Push(x / y)
	case opDrem:
		f.Push(math.Mod(x, y))
	}
	return advance(), nil
}

func (e *Engine) stepStaticField(f *frames.Frame, cf *classfile.ClassFile, op byte, code []byte, pc int, advance func() stepResult) (stepResult, error) {
	parts, err := resolveFieldRef(cf, int(be16(code, pc+1)))
	if err != nil {
		return stepResult{}, err
	}
	classID := e.Names.IdFromBytes([]byte(parts.className))
	owner, err := e.findFieldOwner(classID, parts.memberName)
	if err != nil {
		return stepResult{}, err
	}
	if op == opGetstatic {
		v, err := e.getStaticField(owner, parts.memberName)
		if err != nil {
			return stepResult{}, err
		}
		f.Push(v)
	} else {
		v, _ := f.Pop()
		if err := e.putStaticField(owner, parts.memberName, parts.descriptor, v); err != nil {
			return stepResult{}, err
		}
	}
	return advance(), nil
}

func (e *Engine) stepInstanceField(f *frames.Frame, cf *classfile.ClassFile, op byte, code []byte, pc int, advance func() stepResult, raise func(excNames.ExceptionType) (stepResult, error)) (stepResult, error) {
	parts, err := resolveFieldRef(cf, int(be16(code, pc+1)))
	if err != nil {
		return stepResult{}, err
	}
	if op == opGetfield {
		v, _ := f.Pop()
		ref := asRef(v)
		if ref.IsNil() {
			return raise(excNames.NullPointerException)
		}
		val, err := e.getInstanceField(ref, parts.memberName)
		if err != nil {
			return stepResult{}, err
		}
		f.Push(val)
		return advance(), nil
	}
	val, _ := f.Pop()
	objv, _ := f.Pop()
	ref := asRef(objv)
	if ref.IsNil() {
		return raise(excNames.NullPointerException)
	}
	if err := e.putInstanceField(ref, parts.memberName, parts.descriptor, val); err != nil {
		return stepResult{}, err
	}
	return advance(), nil
}

func (e *Engine) stepInvoke(f *frames.Frame, cf *classfile.ClassFile, op byte, code []byte, pc int, advance func() stepResult) (stepResult, error) {
	cpIndex := int(be16(code, pc+1))
	parts, _, err := resolveMethodRef(cf, cpIndex)
	if err != nil {
		return stepResult{}, err
	}
	declaredClassID := e.Names.IdFromBytes([]byte(parts.className))
	if err := e.Registry.LoadClass(declaredClassID); err != nil {
		return stepResult{}, err
	}
	md, err := classloader.ParseMethodDescriptor(parts.descriptor, e.Names)
	if err != nil {
		return stepResult{}, err
	}

	// The operand stack holds exactly one slot per value regardless of
	// category (see dispatch.go's dup2 comment), so argument popping is by
	// parameter count, not by descriptor slot width.
	nArgs := len(md.Params)
	args := make([]interface{}, nArgs)
	for i := nArgs - 1; i >= 0; i-- {
		v, _ := f.Pop()
		args[i] = v
	}

	hasReceiver := op != opInvokestatic
	var receiver interface{}
	if hasReceiver {
		receiver, _ = f.Pop()
	}

	var methodID fieldid.MethodId
	switch op {
	case opInvokestatic:
		methodID, err = e.ResolveStatic(declaredClassID, parts.memberName, parts.descriptor)
	case opInvokespecial:
		methodID, err = e.ResolveSpecial(declaredClassID, parts.memberName, parts.descriptor)
	case opInvokevirtual, opInvokeinterface:
		ref := asRef(receiver)
		if ref.IsNil() {
			exc, excErr := e.newManagedException(excNames.NullPointerException)
			if excErr != nil {
				return stepResult{}, excErr
			}
			return stepResult{kind: stepException, exc: exc}, nil
		}
		inst, ok := heap.Deref(e.Gc, ref)
		if !ok {
			return stepResult{}, except.New(except.BadGcRef, "dangling receiver reference")
		}
		if op == opInvokevirtual {
			methodID, err = e.ResolveVirtual(declaredClassID, parts.memberName, parts.descriptor, inst.InstanceOf())
		} else {
			methodID, err = e.ResolveInterface(declaredClassID, parts.memberName, parts.descriptor, inst.InstanceOf())
		}
	}
	if err != nil {
		return stepResult{}, err
	}

	calleeClassID, methodIndex := methodID.Decompose()
	m, err := e.Registry.LoadMethodByIndex(calleeClassID, methodIndex)
	if err != nil {
		return stepResult{}, err
	}

	// maxLocals is sized in real JVM slot units (a long/double local
	// reserves two array slots, the second left forever nil) so that a
	// callee's own iload_N/lload_N addressing — which names locals by
	// javac's slot assignment, not by argument position — lands correctly.
	maxLocals := md.SlotCount()
	if hasReceiver {
		maxLocals++
	}
	var code2 []byte
	maxStack := 0
	if m.Code != nil {
		if m.Code.MaxLocals > maxLocals {
			maxLocals = m.Code.MaxLocals
		}
		maxStack = m.Code.MaxStack
		code2 = m.Code.Code
	}
	callee := frames.New(calleeClassID, methodID, nameOf(e.Names, calleeClassID), parts.memberName, code2, maxLocals, maxStack)

	slot := 0
	if hasReceiver {
		callee.Locals[slot] = receiver
		slot++
	}
	for i, a := range args {
		callee.Locals[slot] = a
		if !md.Params[i].IsClass && md.Params[i].Primitive.IsCategory2() {
			slot += 2
		} else {
			slot++
		}
	}

	res, err := e.EvalMethod(methodID, callee)
	if err != nil {
		return stepResult{}, err
	}
	if res.Threw {
		return stepResult{kind: stepException, exc: res.Exc}, nil
	}
	if !res.Void {
		f.Push(res.Value)
	}
	return advance(), nil
}
