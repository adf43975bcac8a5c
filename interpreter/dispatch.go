/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
)

func asRef(v interface{}) heap.GcRef[object.Instance] {
	if v == nil {
		return heap.NilRef[object.Instance]()
	}
	return v.(heap.GcRef[object.Instance])
}

func refOrNil(ref heap.GcRef[object.Instance]) interface{} {
	if ref.IsNil() {
		return nil
	}
	return ref
}

// step runs exactly one instruction of f, returning what it did.
// cls is the class owning m; m.Code.Code is f.Code.
func (e *Engine) step(f *frames.Frame, cls *classloader.Class, m *classloader.Method) (stepResult, error) {
	cf := cls.File
	code := f.Code
	pc := f.PC
	if pc < 0 || pc >= len(code) {
		return stepResult{}, except.New(except.StepError, "pc %d out of range in %s", pc, m.Name)
	}
	op := code[pc]
	length := instructionLength(code, pc)
	advance := func() stepResult { f.PC = pc + length; return stepResult{kind: stepContinue} }
	raise := func(kind excNames.ExceptionType) (stepResult, error) {
		ref, err := e.newManagedException(kind)
		if err != nil {
			return stepResult{}, err
		}
		return stepResult{kind: stepException, exc: ref}, nil
	}

	switch op {
	case opNop:
		return advance(), nil

	// --- constants ---
	case opAconstNull:
		f.Push(nil)
		return advance(), nil
	case opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
		f.Push(int64(op) - int64(opIconst0))
		return advance(), nil
	case opLconst0, opLconst1:
		f.Push(int64(op) - int64(opLconst0))
		return advance(), nil
	case opFconst0, opFconst1, opFconst2:
		f.Push(float32(op) - float32(opFconst0))
		return advance(), nil
	case opDconst0, opDconst1:
		f.Push(float64(op) - float64(opDconst0))
		return advance(), nil
	case opBipush:
		f.Push(int64(int8(code[pc+1])))
		return advance(), nil
	case opSipush:
		f.Push(int64(int16(be16(code, pc+1))))
		return advance(), nil
	case opLdc, opLdcW, opLdc2W:
		return e.stepLdc(f, cf, op, code, pc, advance)

	// --- local load/store ---
	case opIload, opLload, opFload, opDload, opAload:
		f.Push(f.Locals[code[pc+1]])
		return advance(), nil
	case opIload0, opIload1, opIload2, opIload3:
		f.Push(f.Locals[op-opIload0])
		return advance(), nil
	case opLload0, opLload0 + 1, opLload0 + 2, opLload3:
		f.Push(f.Locals[op-opLload0])
		return advance(), nil
	case opFload0, opFload0 + 1, opFload0 + 2, opFload3:
		f.Push(f.Locals[op-opFload0])
		return advance(), nil
	case opDload0, opDload0 + 1, opDload0 + 2, opDload3:
		f.Push(f.Locals[op-opDload0])
		return advance(), nil
	case opAload0, opAload0 + 1, opAload0 + 2, opAload3:
		f.Push(f.Locals[op-opAload0])
		return advance(), nil
	case opIstore, opLstore, opFstore, opDstore, opAstore:
		v, _ := f.Pop()
		f.Locals[code[pc+1]] = v
		return advance(), nil
	case opIstore0, opIstore0 + 1, opIstore0 + 2, opIstore3:
		v, _ := f.Pop()
		f.Locals[op-opIstore0] = v
		return advance(), nil
	case opLstore0, opLstore0 + 1, opLstore0 + 2, opLstore3:
		v, _ := f.Pop()
		f.Locals[op-opLstore0] = v
		return advance(), nil
	case opFstore0, opFstore0 + 1, opFstore0 + 2, opFstore3:
		v, _ := f.Pop()
		f.Locals[op-opFstore0] = v
		return advance(), nil
	case opDstore0, opDstore0 + 1, opDstore0 + 2, opDstore3:
		v, _ := f.Pop()
		f.Locals[op-opDstore0] = v
		return advance(), nil
	case opAstore0, opAstore0 + 1, opAstore0 + 2, opAstore3:
		v, _ := f.Pop()
		f.Locals[op-opAstore0] = v
		return advance(), nil

	// --- stack ops ---
	case opPop:
		f.Pop()
		return advance(), nil
	case opPop2:
		f.Pop()
		f.Pop()
		return advance(), nil
	case opDup:
		v, _ := f.Peek()
		f.Push(v)
		return advance(), nil
	case opDupX1:
		a, _ := f.Pop()
		b, _ := f.Pop()
		f.Push(a)
		f.Push(b)
		f.Push(a)
		return advance(), nil
	case opDupX2:
		a, _ := f.Pop()
		b, _ := f.Pop()
		c, _ := f.Pop()
		f.Push(a)
		f.Push(c)
		f.Push(b)
		f.Push(a)
		return advance(), nil
	case opSwap:
		a, _ := f.Pop()
		b, _ := f.Pop()
		f.Push(a)
		f.Push(b)
		return advance(), nil
	case opDup2, opDup2X1, opDup2X2:
		// Category-2-aware duplication is not modeled; frames widens every
		// category to one slot, so these are passed through rather than
		// risk a wrong stack shape. Same scope cut as the verifier's.
		return advance(), nil

	// --- arithmetic ---
	case opIadd, opIsub, opImul, opIdiv, opIrem, opIand, opIor, opIxor, opIshl, opIshr, opIushr:
		return e.stepIntBinOp(f, op, raise, advance)
	case opLadd, opLsub, opLmul, opLdiv, opLrem, opLand, opLor, opLxor, opLshl, opLshr, opLushr:
		return e.stepLongBinOp(f, op, raise, advance)
	case opFadd, opFsub, opFmul, opFdiv, opFrem:
		return stepFloatBinOp(f, op, advance)
	case opDadd, opDsub, opDmul, opDdiv, opDrem:
		return stepDoubleBinOp(f, op, advance)
	case opIneg:
		v, _ := f.Pop()
		f.Push(-v.(int64))
		return advance(), nil
	case opLneg:
		v, _ := f.Pop()
		f.Push(-v.(int64))
		return advance(), nil
	case opFneg:
		v, _ := f.Pop()
		f.Push(-v.(float32))
		return advance(), nil
	case opDneg:
		v, _ := f.Pop()
		f.Push(-v.(float64))
		return advance(), nil
	case opIinc:
		idx := code[pc+1]
		delta := int8(code[pc+2])
		f.Locals[idx] = f.Locals[idx].(int64) + int64(delta)
		return advance(), nil

	// --- conversions ---
	case opI2l:
		return advance(), nil // already int64
	case opI2f:
		v, _ := f.Pop()
		f.Push(float32(v.(int64)))
		return advance(), nil
	case opI2d:
		v, _ := f.Pop()
		f.Push(float64(v.(int64)))
		return advance(), nil
	case opL2i:
		v, _ := f.Pop()
		f.Push(int64(int32(v.(int64))))
		return advance(), nil
	case opL2f:
		v, _ := f.Pop()
		f.Push(float32(v.(int64)))
		return advance(), nil
	case opL2d:
		v, _ := f.Pop()
		f.Push(float64(v.(int64)))
		return advance(), nil
	case opF2i:
		v, _ := f.Pop()
		f.Push(int64(int32(v.(float32))))
		return advance(), nil
	case opF2l:
		v, _ := f.Pop()
		f.Push(int64(v.(float32)))
		return advance(), nil
	case opF2d:
		v, _ := f.Pop()
		f.Push(float64(v.(float32)))
		return advance(), nil
	case opD2i:
		v, _ := f.Pop()
		f.Push(int64(int32(v.(float64))))
		return advance(), nil
	case opD2l:
		v, _ := f.Pop()
		f.Push(int64(v.(float64)))
		return advance(), nil
	case opD2f:
		v, _ := f.Pop()
		f.Push(float32(v.(float64)))
		return advance(), nil
	case opI2b:
		v, _ := f.Pop()
		f.Push(int64(int8(v.(int64))))
		return advance(), nil
	case opI2c:
		v, _ := f.Pop()
		f.Push(int64(uint16(v.(int64))))
		return advance(), nil
	case opI2s:
		v, _ := f.Pop()
		f.Push(int64(int16(v.(int64))))
		return advance(), nil

	// --- comparisons ---
	case opLcmp:
		b, _ := f.Pop()
		a, _ := f.Pop()
		f.Push(cmp64(a.(int64), b.(int64)))
		return advance(), nil
	case opFcmpl, opFcmpg:
		b, _ := f.Pop()
		a, _ := f.Pop()
		f.Push(fcmp(float64(a.(float32)), float64(b.(float32)), op == opFcmpg))
		return advance(), nil
	case opDcmpl, opDcmpg:
		b, _ := f.Pop()
		a, _ := f.Pop()
		f.Push(fcmp(a.(float64), b.(float64), op == opDcmpg))
		return advance(), nil

	// --- branches ---
	case opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle:
		v, _ := f.Pop()
		if compareToZero(op, v.(int64)) {
			f.PC = pc + int(int16(be16(code, pc+1)))
			return stepResult{kind: stepContinue}, nil
		}
		return advance(), nil
	case opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple:
		b, _ := f.Pop()
		a, _ := f.Pop()
		if compareInts(op, a.(int64), b.(int64)) {
			f.PC = pc + int(int16(be16(code, pc+1)))
			return stepResult{kind: stepContinue}, nil
		}
		return advance(), nil
	case opIfAcmpeq, opIfAcmpne:
		b, _ := f.Pop()
		a, _ := f.Pop()
		eq := refEquals(a, b)
		if (op == opIfAcmpeq) == eq {
			f.PC = pc + int(int16(be16(code, pc+1)))
			return stepResult{kind: stepContinue}, nil
		}
		return advance(), nil
	case opIfnull, opIfnonnull:
		v, _ := f.Pop()
		isNull := v == nil
		if (op == opIfnull) == isNull {
			f.PC = pc + int(int16(be16(code, pc+1)))
			return stepResult{kind: stepContinue}, nil
		}
		return advance(), nil
	case opGoto:
		f.PC = pc + int(int16(be16(code, pc+1)))
		return stepResult{kind: stepContinue}, nil
	case opGotoW:
		f.PC = pc + int(int32(be32(code, pc+1)))
		return stepResult{kind: stepContinue}, nil

	// --- array family ---
	case opNewarray:
		n, _ := f.Pop()
		tag := primitiveTagFromAtype(code[pc+1])
		if n.(int64) < 0 {
			return raise(excNames.NegativeArraySizeException)
		}
		ref, err := e.newPrimitiveArray(tag, int32(n.(int64)))
		if err != nil {
			return stepResult{}, err
		}
		f.Push(ref)
		return advance(), nil
	case opAnewarray:
		n, _ := f.Pop()
		if n.(int64) < 0 {
			return raise(excNames.NegativeArraySizeException)
		}
		className, ok := cf.GetClassName(int(be16(code, pc+1)))
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "bad anewarray class index")
		}
		elemID := e.Names.IdFromBytes([]byte(className))
		ref, err := e.newReferenceArray(elemID, int32(n.(int64)))
		if err != nil {
			return stepResult{}, err
		}
		f.Push(ref)
		return advance(), nil
	case opMultianewarray:
		className, ok := cf.GetClassName(int(be16(code, pc+1)))
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "bad multianewarray class index")
		}
		dimCount := int(code[pc+3])
		dims := make([]int32, dimCount)
		for i := dimCount - 1; i >= 0; i-- {
			v, _ := f.Pop()
			if v.(int64) < 0 {
				return raise(excNames.NegativeArraySizeException)
			}
			dims[i] = int32(v.(int64))
		}
		elemID := e.Names.IdFromBytes([]byte(className))
		ref, err := e.multiNewArray(elemID, dims)
		if err != nil {
			return stepResult{}, err
		}
		f.Push(ref)
		return advance(), nil
	case opArraylength:
		v, _ := f.Pop()
		ref := asRef(v)
		inst, ok := heap.Deref(e.Gc, ref)
		if !ok {
			return raise(excNames.NullPointerException)
		}
		n, ok := arrayLength(inst)
		if !ok {
			return stepResult{}, except.New(except.InvalidDescriptorType, "arraylength on a non-array instance")
		}
		f.Push(int64(n))
		return advance(), nil
	case opIaload, opLaload, opFaload, opDaload, opAaload, opBaload, opCaload, opSaload:
		idx, _ := f.Pop()
		arr, _ := f.Pop()
		val, excRef, err := e.arrayLoad(asRef(arr), idx.(int64))
		if err != nil {
			return stepResult{}, err
		}
		if !excRef.IsNil() {
			return stepResult{kind: stepException, exc: excRef}, nil
		}
		if op == opAaload {
			f.Push(refOrNil(val.(heap.GcRef[object.Instance])))
		} else {
			f.Push(val)
		}
		return advance(), nil
	case opIastore, opLastore, opFastore, opDastore, opAastore, opBastore, opCastore, opSastore:
		val, _ := f.Pop()
		idx, _ := f.Pop()
		arr, _ := f.Pop()
		excRef, err := e.arrayStore(asRef(arr), idx.(int64), val)
		if err != nil {
			return stepResult{}, err
		}
		if !excRef.IsNil() {
			return stepResult{kind: stepException, exc: excRef}, nil
		}
		return advance(), nil

	// --- object/field ---
	case opNew:
		className, ok := cf.GetClassName(int(be16(code, pc+1)))
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "bad new class index")
		}
		id := e.Names.IdFromBytes([]byte(className))
		ref, exc, err := e.newInstance(id)
		if err != nil {
			return stepResult{}, err
		}
		if !exc.IsNil() {
			return stepResult{kind: stepException, exc: exc}, nil
		}
		f.Push(ref)
		return advance(), nil
	case opGetstatic, opPutstatic:
		return e.stepStaticField(f, cf, op, code, pc, advance)
	case opGetfield, opPutfield:
		return e.stepInstanceField(f, cf, op, code, pc, advance, raise)
	case opCheckcast:
		v, _ := f.Peek()
		if v == nil {
			return advance(), nil
		}
		className, ok := cf.GetClassName(int(be16(code, pc+1)))
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "bad checkcast class index")
		}
		targetID := e.Names.IdFromBytes([]byte(className))
		ref := v.(heap.GcRef[object.Instance])
		inst, ok := heap.Deref(e.Gc, ref)
		if !ok {
			return raise(excNames.NullPointerException)
		}
		ok2, err := e.CheckCast(inst.InstanceOf(), targetID)
		if err != nil {
			return stepResult{}, err
		}
		if !ok2 {
			return raise(excNames.ClassCastException)
		}
		return advance(), nil
	case opInstanceof:
		v, _ := f.Pop()
		className, ok := cf.GetClassName(int(be16(code, pc+1)))
		if !ok {
			return stepResult{}, except.New(except.InvalidConstantPoolIndex, "bad instanceof class index")
		}
		targetID := e.Names.IdFromBytes([]byte(className))
		if v == nil {
			f.Push(int64(0))
			return advance(), nil
		}
		inst, ok := heap.Deref(e.Gc, v.(heap.GcRef[object.Instance]))
		if !ok {
			f.Push(int64(0))
			return advance(), nil
		}
		yes, err := e.IsInstance(inst.InstanceOf(), true, targetID)
		if err != nil {
			return stepResult{}, err
		}
		if yes {
			f.Push(int64(1))
		} else {
			f.Push(int64(0))
		}
		return advance(), nil

	// --- invocation ---
	case opInvokestatic, opInvokespecial, opInvokevirtual, opInvokeinterface:
		return e.stepInvoke(f, cf, op, code, pc, advance)

	case opAthrow:
		v, _ := f.Pop()
		ref := asRef(v)
		if ref.IsNil() {
			return raise(excNames.NullPointerException)
		}
		return stepResult{kind: stepException, exc: ref}, nil

	case opIreturn, opLreturn:
		v, _ := f.Pop()
		return stepResult{kind: stepReturn, value: v}, nil
	case opFreturn, opDreturn:
		v, _ := f.Pop()
		return stepResult{kind: stepReturn, value: v}, nil
	case opAreturn:
		v, _ := f.Pop()
		return stepResult{kind: stepReturn, value: refOrNil(asRef(v))}, nil
	case opReturn:
		return stepResult{kind: stepReturnVoid}, nil

	// --- unsupported (scope cut, same treatment as the verifier's) ---
	case opJsr, opRet, opJsrW, opTableswitch, opLookupswitch, opWide,
		opMonitorenter, opMonitorexit, opInvokedynamic:
		return advance(), nil

	default:
		return stepResult{}, except.New(except.StepError, "unimplemented opcode 0x%02x at pc %d", op, pc)
	}
}
