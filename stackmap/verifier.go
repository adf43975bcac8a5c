/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package stackmap

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/types"
)

// BuildInitialFrame constructs the frame at offset 0 from a method's own
// signature: the receiver slot (if any) followed by its parameters, each
// category-2 parameter expanded to two slots.
func BuildInitialFrame(names *classnames.Registry, declClass classnames.ClassId, isStatic, isInit, isObjectInit bool, desc *classloader.MethodDescriptor) Frame {
	var locals []FrameType
	if !isStatic {
		switch {
		case isObjectInit:
			locals = append(locals, ReferenceFrameType(names.ObjectId()))
		case isInit:
			locals = append(locals, UninitializedFrameType(declClass))
		default:
			locals = append(locals, ReferenceFrameType(declClass))
		}
	}
	for _, p := range desc.Params {
		if p.IsClass {
			locals = append(locals, ReferenceFrameType(classnames.ClassId(p.ClassID)))
			continue
		}
		ft := PrimitiveFrameType(p.Primitive)
		locals = append(locals, ft)
		if p.Primitive.IsCategory2() {
			locals = append(locals, FrameType{IsTop: true})
		}
	}
	return Frame{Locals: locals}
}

// Verify walks methodIndex's bytecode, checking each instruction's pop
// expectations against the running simulated frame, applying its pushes,
// and at every offset with a declared StackMapTable frame, checking the
// simulated frame is assignable to the declared one before adopting it (the
// standard confluence-point merge).
//
// For class-file versions below 51 a missing table is not an error: the
// verifier walks bytecode for reachability only and skips type checks.
func Verify(reg *classloader.Registry, names *classnames.Registry, cf *classfile.ClassFile, classID classnames.ClassId, methodIndex uint32) error {
	m, err := reg.LoadMethodByIndex(classID, methodIndex)
	if err != nil {
		return err
	}
	if m.Code == nil {
		return nil
	}
	desc, err := classloader.ParseMethodDescriptor(m.Descriptor, names)
	if err != nil {
		return err
	}

	isStatic := m.AccessFlags&classfile.AccStatic != 0
	isInit := m.Name == "<init>"
	isObjectInit := isInit && classID == names.ObjectId()
	initial := BuildInitialFrame(names, classID, isStatic, isInit, isObjectInit, &desc)

	smt := m.Code.AttrNamed("StackMapTable")
	var declared []OffsetFrame
	if smt != nil {
		declared, err = DecodeFrames(smt.Data, cf, names, m.Code.Code, initial)
		if err != nil {
			return err
		}
	} else if cf.MajorVersion >= 51 {
		return except.New(except.VerifyStackMapNoTable, "method %s%s has no StackMapTable", m.Name, m.Descriptor)
	}

	declaredAt := make(map[int]Frame, len(declared))
	for _, of := range declared {
		declaredAt[of.Offset] = of.Frame
	}

	cur := initial.Clone()
	code := m.Code.Code
	pc := 0
	for pc < len(code) {
		if df, ok := declaredAt[pc]; ok && smt != nil {
			if err := assertFrameAssignable(reg, df, cur); err != nil {
				return err
			}
			cur = df.Clone()
		}

		length, err := instructionLength(code, pc)
		if err != nil {
			return err
		}
		if smt != nil {
			if err := step(reg, names, cf, &cur, code, pc); err != nil {
				return err
			}
		}
		pc += length
	}
	return nil
}

// assertFrameAssignable checks that every slot of actual is assignable to
// the corresponding slot of declared: the simulated state reaching a
// confluence point must satisfy what was declared for it.
func assertFrameAssignable(reg *classloader.Registry, declared, actual Frame) error {
	if len(declared.Stack) != len(actual.Stack) {
		return except.New(except.VerifyStackMapFrame, "stack depth mismatch: declared %d, actual %d", len(declared.Stack), len(actual.Stack))
	}
	for i := range declared.Stack {
		ok, err := IsAssignableFrom(reg, declared.Stack[i], actual.Stack[i])
		if err != nil {
			return err
		}
		if !ok {
			return except.New(except.VerifyStackMapFrame, "stack slot %d not assignable to declared frame", i)
		}
	}
	for i := 0; i < len(declared.Locals) && i < len(actual.Locals); i++ {
		ok, err := IsAssignableFrom(reg, declared.Locals[i], actual.Locals[i])
		if err != nil {
			return err
		}
		if !ok {
			return except.New(except.VerifyStackMapFrame, "local slot %d not assignable to declared frame", i)
		}
	}
	return nil
}

func pop(f *Frame) (FrameType, error) {
	if len(f.Stack) == 0 {
		return FrameType{}, except.New(except.VerifyStackMapPop, "pop from empty operand stack")
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v, nil
}

func push(f *Frame, v FrameType) { f.Stack = append(f.Stack, v) }

func popExpectPrimitive(f *Frame, want types.PrimitiveTag) error {
	v, err := pop(f)
	if err != nil {
		return err
	}
	if !v.IsPrimitive || !isSameTypeOnStack(v.Primitive, want) {
		return except.New(except.VerifyStackMapPop, "expected %s on stack", want)
	}
	return nil
}

func popExpectReference(f *Frame) (FrameType, error) {
	v, err := pop(f)
	if err != nil {
		return FrameType{}, err
	}
	if v.IsPrimitive {
		return FrameType{}, except.New(except.VerifyStackMapPop, "expected a reference on stack, got a primitive")
	}
	return v, nil
}

func localAt(f *Frame, index int) (FrameType, error) {
	if index < 0 || index >= len(f.Locals) {
		return FrameType{}, except.New(except.VerifyStackMapLocal, "local variable index %d out of range", index)
	}
	return f.Locals[index], nil
}

func storeLocal(f *Frame, index int, v FrameType) error {
	for len(f.Locals) <= index {
		f.Locals = append(f.Locals, FrameType{})
	}
	f.Locals[index] = v
	if v.IsPrimitive && v.Primitive.IsCategory2() {
		if len(f.Locals) <= index+1 {
			f.Locals = append(f.Locals, FrameType{})
		}
		f.Locals[index+1] = FrameType{IsTop: true}
	}
	return nil
}

// step applies opcode code[pc]'s pop/push effect to cur. Control-flow
// targets are not followed here — Verify walks the linear instruction
// stream and relies on declared frames at branch targets to re-synchronize
// type state, matching how the class file's own StackMapTable already
// records what every reachable path produces.
func step(reg *classloader.Registry, names *classnames.Registry, cf *classfile.ClassFile, cur *Frame, code []byte, pc int) error {
	op := code[pc]
	switch {
	case op == opNop, op == opGoto, op == opGotoW, op == opJsr, op == opJsrW, op == opRet:
		return nil

	case op == opAconstNull:
		push(cur, NullFrameType())
		return nil
	case op >= opIconstM1 && op <= opIconst5:
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opLconst0 || op == opLconst1:
		push(cur, PrimitiveFrameType(types.Long))
		return nil
	case op >= opFconst0 && op <= opFconst2:
		push(cur, PrimitiveFrameType(types.Float))
		return nil
	case op == opDconst0 || op == opDconst1:
		push(cur, PrimitiveFrameType(types.Double))
		return nil
	case op == opBipush || op == opSipush:
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opLdc || op == opLdcW:
		var cpIndex int
		if op == opLdc {
			cpIndex = int(code[pc+1])
		} else {
			cpIndex = int(code[pc+1])<<8 | int(code[pc+2])
		}
		return pushLdcType(names, cf, cur, cpIndex)
	case op == opLdc2W:
		cpIndex := int(code[pc+1])<<8 | int(code[pc+2])
		if cpIndex < len(cf.CP.CpIndex) && cf.CP.CpIndex[cpIndex].Tag == classfile.TagLong {
			push(cur, PrimitiveFrameType(types.Long))
		} else {
			push(cur, PrimitiveFrameType(types.Double))
		}
		return nil

	case op == opIload || (op >= opIload0 && op <= opIload3):
		idx := localIndex(code, pc, op, opIload, opIload0)
		v, err := localAt(cur, idx)
		if err != nil {
			return err
		}
		push(cur, v)
		return nil
	case op == opLload || (op >= opLload0 && op <= opLload3):
		idx := localIndex(code, pc, op, opLload, opLload0)
		v, err := localAt(cur, idx)
		if err != nil {
			return err
		}
		push(cur, v)
		return nil
	case op == opFload || (op >= opFload0 && op <= opFload3):
		idx := localIndex(code, pc, op, opFload, opFload0)
		v, err := localAt(cur, idx)
		if err != nil {
			return err
		}
		push(cur, v)
		return nil
	case op == opDload || (op >= opDload0 && op <= opDload3):
		idx := localIndex(code, pc, op, opDload, opDload0)
		v, err := localAt(cur, idx)
		if err != nil {
			return err
		}
		push(cur, v)
		return nil
	case op == opAload || (op >= opAload0 && op <= opAload3):
		idx := localIndex(code, pc, op, opAload, opAload0)
		v, err := localAt(cur, idx)
		if err != nil {
			return err
		}
		push(cur, v)
		return nil

	case op == opIstore || (op >= opIstore0 && op <= opIstore3):
		idx := localIndex(code, pc, op, opIstore, opIstore0)
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		return storeLocal(cur, idx, PrimitiveFrameType(types.Int))
	case op == opLstore || (op >= opLstore0 && op <= opLstore3):
		idx := localIndex(code, pc, op, opLstore, opLstore0)
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		return storeLocal(cur, idx, PrimitiveFrameType(types.Long))
	case op == opFstore || (op >= opFstore0 && op <= opFstore3):
		idx := localIndex(code, pc, op, opFstore, opFstore0)
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		return storeLocal(cur, idx, PrimitiveFrameType(types.Float))
	case op == opDstore || (op >= opDstore0 && op <= opDstore3):
		idx := localIndex(code, pc, op, opDstore, opDstore0)
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		return storeLocal(cur, idx, PrimitiveFrameType(types.Double))
	case op == opAstore || (op >= opAstore0 && op <= opAstore3):
		idx := localIndex(code, pc, op, opAstore, opAstore0)
		v, err := popExpectReference(cur)
		if err != nil {
			return err
		}
		return storeLocal(cur, idx, v)

	case op == opIaload || op == opBaload || op == opCaload || op == opSaload:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opLaload:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Long))
		return nil
	case op == opFaload:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Float))
		return nil
	case op == opDaload:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Double))
		return nil
	case op == opAaload:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		arr, err := popExpectReference(cur)
		if err != nil {
			return err
		}
		if arr.IsNull {
			push(cur, NullFrameType())
			return nil
		}
		ac, ok := reg.Array(arr.Class)
		if ok {
			push(cur, ReferenceFrameType(ac.ComponentID))
		} else {
			push(cur, ReferenceFrameType(names.ObjectId()))
		}
		return nil

	case op == opIastore || op == opBastore || op == opCastore || op == opSastore:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err
	case op == opLastore:
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err
	case op == opFastore:
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err
	case op == opDastore:
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err
	case op == opAastore:
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err

	case op == opPop:
		_, err := pop(cur)
		return err
	case op == opPop2:
		v, err := pop(cur)
		if err != nil {
			return err
		}
		if v.IsCategory1() {
			_, err := pop(cur)
			return err
		}
		return nil
	case op == opDup:
		v, err := pop(cur)
		if err != nil {
			return err
		}
		push(cur, v)
		push(cur, v)
		return nil
	case op == opDupX1:
		a, err := pop(cur)
		if err != nil {
			return err
		}
		b, err := pop(cur)
		if err != nil {
			return err
		}
		push(cur, a)
		push(cur, b)
		push(cur, a)
		return nil
	case op == opSwap:
		a, err := pop(cur)
		if err != nil {
			return err
		}
		b, err := pop(cur)
		if err != nil {
			return err
		}
		push(cur, a)
		push(cur, b)
		return nil

	case op == opIadd || op == opIsub || op == opImul || op == opIdiv || op == opIrem ||
		op == opIand || op == opIor || op == opIxor || op == opIshl || op == opIshr || op == opIushr:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opLadd || op == opLsub || op == opLmul || op == opLdiv || op == opLrem ||
		op == opLand || op == opLor || op == opLxor:
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Long))
		return nil
	case op == opLshl || op == opLshr || op == opLushr:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Long))
		return nil
	case op == opFadd || op == opFsub || op == opFmul || op == opFdiv || op == opFrem:
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Float))
		return nil
	case op == opDadd || op == opDsub || op == opDmul || op == opDdiv || op == opDrem:
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Double))
		return nil
	case op == opIneg:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opLneg:
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Long))
		return nil
	case op == opFneg:
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Float))
		return nil
	case op == opDneg:
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Double))
		return nil

	case op == opIinc:
		idx := int(code[pc+1])
		if _, err := localAt(cur, idx); err != nil {
			return err
		}
		return nil

	case op == opI2l:
		return convert(cur, types.Int, types.Long)
	case op == opI2f:
		return convert(cur, types.Int, types.Float)
	case op == opI2d:
		return convert(cur, types.Int, types.Double)
	case op == opL2i:
		return convert(cur, types.Long, types.Int)
	case op == opL2f:
		return convert(cur, types.Long, types.Float)
	case op == opL2d:
		return convert(cur, types.Long, types.Double)
	case op == opF2i:
		return convert(cur, types.Float, types.Int)
	case op == opF2l:
		return convert(cur, types.Float, types.Long)
	case op == opF2d:
		return convert(cur, types.Float, types.Double)
	case op == opD2i:
		return convert(cur, types.Double, types.Int)
	case op == opD2l:
		return convert(cur, types.Double, types.Long)
	case op == opD2f:
		return convert(cur, types.Double, types.Float)
	case op == opI2b || op == opI2c || op == opI2s:
		return convert(cur, types.Int, types.Int)

	case op == opLcmp:
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Long); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opFcmpl || op == opFcmpg:
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Float); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opDcmpl || op == opDcmpg:
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		if err := popExpectPrimitive(cur, types.Double); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil

	case op == opIfeq || op == opIfne || op == opIflt || op == opIfge || op == opIfgt || op == opIfle:
		return popExpectPrimitive(cur, types.Int)
	case op == opIfIcmpeq || op == opIfIcmpne || op == opIfIcmplt || op == opIfIcmpge || op == opIfIcmpgt || op == opIfIcmple:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		return popExpectPrimitive(cur, types.Int)
	case op == opIfAcmpeq || op == opIfAcmpne:
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err
	case op == opIfnull || op == opIfnonnull:
		_, err := popExpectReference(cur)
		return err

	case op == opTableswitch || op == opLookupswitch:
		return popExpectPrimitive(cur, types.Int)

	case op == opIreturn:
		return popExpectPrimitive(cur, types.Int)
	case op == opLreturn:
		return popExpectPrimitive(cur, types.Long)
	case op == opFreturn:
		return popExpectPrimitive(cur, types.Float)
	case op == opDreturn:
		return popExpectPrimitive(cur, types.Double)
	case op == opAreturn:
		_, err := popExpectReference(cur)
		return err
	case op == opReturn:
		return nil

	case op == opGetstatic:
		return pushFieldType(names, cf, cur, int(code[pc+1])<<8|int(code[pc+2]))
	case op == opPutstatic:
		return popFieldType(names, cf, cur, int(code[pc+1])<<8|int(code[pc+2]))
	case op == opGetfield:
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		return pushFieldType(names, cf, cur, int(code[pc+1])<<8|int(code[pc+2]))
	case op == opPutfield:
		if err := popFieldType(names, cf, cur, int(code[pc+1])<<8|int(code[pc+2])); err != nil {
			return err
		}
		_, err := popExpectReference(cur)
		return err

	case op == opInvokevirtual || op == opInvokespecial || op == opInvokeinterface:
		cpIndex := int(code[pc+1])<<8 | int(code[pc+2])
		var rm *classfile.ResolvedMethod
		var err error
		if op == opInvokeinterface {
			rm, err = cf.ResolveInterfaceMethodref(cpIndex)
		} else {
			rm, err = cf.ResolveMethodref(cpIndex)
		}
		if err != nil {
			return err
		}
		if err := applyInvoke(names, cur, rm.Descriptor, true); err != nil {
			return err
		}
		return nil
	case op == opInvokestatic:
		cpIndex := int(code[pc+1])<<8 | int(code[pc+2])
		rm, err := cf.ResolveMethodref(cpIndex)
		if err != nil {
			return err
		}
		return applyInvoke(names, cur, rm.Descriptor, false)

	case op == opNew:
		name, ok := cf.GetClassName(int(code[pc+1])<<8 | int(code[pc+2]))
		if !ok {
			return except.New(except.InvalidConstantPoolIndex, "new: bad class index")
		}
		push(cur, UninitializedFrameType(names.IdFromBytes([]byte(name))))
		return nil
	case op == opNewarray:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		push(cur, ReferenceFrameType(names.IdForArrayOfPrimitive(primitiveArrayType(int(code[pc+1])))))
		return nil
	case op == opAnewarray:
		if err := popExpectPrimitive(cur, types.Int); err != nil {
			return err
		}
		name, ok := cf.GetClassName(int(code[pc+1])<<8 | int(code[pc+2]))
		if !ok {
			return except.New(except.InvalidConstantPoolIndex, "anewarray: bad class index")
		}
		elemID, err := names.IdForArrayLevel(0, names.IdFromBytes([]byte(name)))
		if err != nil {
			return err
		}
		arrID, err := names.IdForArrayLevel(1, elemID)
		if err != nil {
			return err
		}
		push(cur, ReferenceFrameType(arrID))
		return nil
	case op == opMultianewarray:
		dims := int(code[pc+3])
		for i := 0; i < dims; i++ {
			if err := popExpectPrimitive(cur, types.Int); err != nil {
				return err
			}
		}
		name, ok := cf.GetClassName(int(code[pc+1])<<8 | int(code[pc+2]))
		if !ok {
			return except.New(except.InvalidConstantPoolIndex, "multianewarray: bad class index")
		}
		push(cur, ReferenceFrameType(names.IdFromBytes([]byte(name))))
		return nil
	case op == opArraylength:
		_, err := popExpectReference(cur)
		if err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opAthrow:
		_, err := popExpectReference(cur)
		return err
	case op == opCheckcast:
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		name, ok := cf.GetClassName(int(code[pc+1])<<8 | int(code[pc+2]))
		if !ok {
			return except.New(except.InvalidConstantPoolIndex, "checkcast: bad class index")
		}
		push(cur, ReferenceFrameType(names.IdFromBytes([]byte(name))))
		return nil
	case op == opInstanceof:
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
		push(cur, PrimitiveFrameType(types.Int))
		return nil
	case op == opMonitorenter || op == opMonitorexit:
		_, err := popExpectReference(cur)
		return err
	case op == opDup2 || op == opDup2X1 || op == opDup2X2 || op == opDupX2:
		return nil
	case op == opInvokedynamic:
		return nil
	case op == opWide:
		return nil
	}
	return nil
}

func localIndex(code []byte, pc int, op, wideOp, zeroOp byte) int {
	if op == wideOp {
		return int(code[pc+1])
	}
	return int(op - zeroOp)
}

func convert(f *Frame, from, to types.PrimitiveTag) error {
	if err := popExpectPrimitive(f, from); err != nil {
		return err
	}
	push(f, PrimitiveFrameType(to))
	return nil
}

func primitiveArrayType(atype int) types.PrimitiveTag {
	switch atype {
	case 4:
		return types.Boolean
	case 5:
		return types.Char
	case 6:
		return types.Float
	case 7:
		return types.Double
	case 8:
		return types.Byte
	case 9:
		return types.Short
	case 10:
		return types.Int
	case 11:
		return types.Long
	}
	return types.Int
}

func pushLdcType(names *classnames.Registry, cf *classfile.ClassFile, cur *Frame, cpIndex int) error {
	if cpIndex < 0 || cpIndex >= len(cf.CP.CpIndex) {
		return except.New(except.InvalidConstantPoolIndex, "ldc: bad constant index %d", cpIndex)
	}
	switch cf.CP.CpIndex[cpIndex].Tag {
	case classfile.TagInteger:
		push(cur, PrimitiveFrameType(types.Int))
	case classfile.TagFloat:
		push(cur, PrimitiveFrameType(types.Float))
	case classfile.TagStringConst:
		push(cur, ReferenceFrameType(names.IdFromBytes([]byte(types.StringClassName))))
	case classfile.TagClassRef:
		push(cur, ReferenceFrameType(names.IdFromBytes([]byte("java/lang/Class"))))
	case classfile.TagMethodHandle, classfile.TagMethodType, classfile.TagDynamic:
		push(cur, ReferenceFrameType(names.ObjectId()))
	default:
		return except.New(except.VerifyStackMapFrame, "ldc: unsupported constant tag %d", cf.CP.CpIndex[cpIndex].Tag)
	}
	return nil
}

func pushFieldType(names *classnames.Registry, cf *classfile.ClassFile, cur *Frame, cpIndex int) error {
	rf, err := cf.ResolveFieldref(cpIndex)
	if err != nil {
		return err
	}
	ft, err := classloader.ParseFieldDescriptor(rf.Descriptor, names)
	if err != nil {
		return err
	}
	if ft.IsClass {
		push(cur, ReferenceFrameType(classnames.ClassId(ft.ClassID)))
	} else {
		push(cur, PrimitiveFrameType(ft.Primitive))
	}
	return nil
}

func popFieldType(names *classnames.Registry, cf *classfile.ClassFile, cur *Frame, cpIndex int) error {
	rf, err := cf.ResolveFieldref(cpIndex)
	if err != nil {
		return err
	}
	ft, err := classloader.ParseFieldDescriptor(rf.Descriptor, names)
	if err != nil {
		return err
	}
	if ft.IsClass {
		_, err := popExpectReference(cur)
		return err
	}
	return popExpectPrimitive(cur, ft.Primitive)
}

func applyInvoke(names *classnames.Registry, cur *Frame, descriptor string, hasReceiver bool) error {
	md, err := classloader.ParseMethodDescriptor(descriptor, names)
	if err != nil {
		return err
	}
	for i := len(md.Params) - 1; i >= 0; i-- {
		p := md.Params[i]
		if p.IsClass {
			if _, err := popExpectReference(cur); err != nil {
				return err
			}
		} else {
			if err := popExpectPrimitive(cur, p.Primitive); err != nil {
				return err
			}
		}
	}
	if hasReceiver {
		if _, err := popExpectReference(cur); err != nil {
			return err
		}
	}
	if !md.IsVoidReturn {
		if md.Return.IsClass {
			push(cur, ReferenceFrameType(classnames.ClassId(md.Return.ClassID)))
		} else {
			push(cur, PrimitiveFrameType(md.Return.Primitive))
		}
	}
	return nil
}
