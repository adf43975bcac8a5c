/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// parseConstantPool reads constant_pool_count-1 entries into a CPool.
// CpIndex is sized count, with slot 0 left unused (JVM constant pool
// indexing starts at 1). Long and Double entries consume two CpIndex
// slots but one CPool.LongConsts/Doubles slot, per the JVM spec's
// "unusable" second slot rule.
func parseConstantPool(r io.Reader, count uint16) (CPool, error) {
	cp := CPool{CpIndex: make([]CpEntry, count)}

	for i := uint16(1); i < count; i++ {
		var tag uint8
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return cp, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		switch tag {
		case TagUtf8:
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				return cp, fmt.Errorf("reading Utf8 length at index %d: %w", i, err)
			}
			raw := make([]byte, length)
			if _, err := io.ReadFull(r, raw); err != nil {
				return cp, fmt.Errorf("reading Utf8 bytes at index %d: %w", i, err)
			}
			slot := len(cp.Utf8Refs)
			cp.Utf8Refs = append(cp.Utf8Refs, string(raw))
			cp.CpIndex[i] = CpEntry{Tag: TagUtf8, Slot: slot}

		case TagInteger:
			var v int32
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return cp, fmt.Errorf("reading Integer at index %d: %w", i, err)
			}
			slot := len(cp.IntConsts)
			cp.IntConsts = append(cp.IntConsts, v)
			cp.CpIndex[i] = CpEntry{Tag: TagInteger, Slot: slot}

		case TagFloat:
			var bits uint32
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return cp, fmt.Errorf("reading Float at index %d: %w", i, err)
			}
			slot := len(cp.Floats)
			cp.Floats = append(cp.Floats, math.Float32frombits(bits))
			cp.CpIndex[i] = CpEntry{Tag: TagFloat, Slot: slot}

		case TagLong:
			var v int64
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return cp, fmt.Errorf("reading Long at index %d: %w", i, err)
			}
			slot := len(cp.LongConsts)
			cp.LongConsts = append(cp.LongConsts, v)
			cp.CpIndex[i] = CpEntry{Tag: TagLong, Slot: slot}
			i++

		case TagDouble:
			var bits uint64
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return cp, fmt.Errorf("reading Double at index %d: %w", i, err)
			}
			slot := len(cp.Doubles)
			cp.Doubles = append(cp.Doubles, math.Float64frombits(bits))
			cp.CpIndex[i] = CpEntry{Tag: TagDouble, Slot: slot}
			i++

		case TagClassRef:
			var nameIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return cp, fmt.Errorf("reading Class at index %d: %w", i, err)
			}
			slot := len(cp.ClassRefs)
			cp.ClassRefs = append(cp.ClassRefs, uint32(nameIndex))
			cp.CpIndex[i] = CpEntry{Tag: TagClassRef, Slot: slot}

		case TagStringConst:
			var strIndex uint16
			if err := binary.Read(r, binary.BigEndian, &strIndex); err != nil {
				return cp, fmt.Errorf("reading String at index %d: %w", i, err)
			}
			slot := len(cp.StringRefs)
			cp.StringRefs = append(cp.StringRefs, int(strIndex))
			cp.CpIndex[i] = CpEntry{Tag: TagStringConst, Slot: slot}

		case TagFieldRef:
			var classIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &classIndex); err != nil {
				return cp, fmt.Errorf("reading Fieldref class_index at index %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return cp, fmt.Errorf("reading Fieldref name_and_type_index at index %d: %w", i, err)
			}
			slot := len(cp.FieldRefs)
			cp.FieldRefs = append(cp.FieldRefs, FieldRefEntry{ClassIndex: int(classIndex), NameAndType: int(natIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagFieldRef, Slot: slot}

		case TagMethodRef:
			var classIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &classIndex); err != nil {
				return cp, fmt.Errorf("reading Methodref class_index at index %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return cp, fmt.Errorf("reading Methodref name_and_type_index at index %d: %w", i, err)
			}
			slot := len(cp.MethodRefs)
			cp.MethodRefs = append(cp.MethodRefs, MethodRefEntry{ClassIndex: int(classIndex), NameAndType: int(natIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagMethodRef, Slot: slot}

		case TagInterfaceMethodRef:
			var classIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &classIndex); err != nil {
				return cp, fmt.Errorf("reading InterfaceMethodref class_index at index %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return cp, fmt.Errorf("reading InterfaceMethodref name_and_type_index at index %d: %w", i, err)
			}
			slot := len(cp.InterfaceRefs)
			cp.InterfaceRefs = append(cp.InterfaceRefs, InterfaceRefEntry{ClassIndex: int(classIndex), NameAndType: int(natIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagInterfaceMethodRef, Slot: slot}

		case TagNameAndType:
			var nameIndex, descIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return cp, fmt.Errorf("reading NameAndType name_index at index %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
				return cp, fmt.Errorf("reading NameAndType descriptor_index at index %d: %w", i, err)
			}
			slot := len(cp.NameAndTypes)
			cp.NameAndTypes = append(cp.NameAndTypes, NameAndTypeEntry{NameIndex: int(nameIndex), DescIndex: int(descIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagNameAndType, Slot: slot}

		case TagMethodHandle:
			var refKind uint8
			var refIndex uint16
			if err := binary.Read(r, binary.BigEndian, &refKind); err != nil {
				return cp, fmt.Errorf("reading MethodHandle reference_kind at index %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &refIndex); err != nil {
				return cp, fmt.Errorf("reading MethodHandle reference_index at index %d: %w", i, err)
			}
			slot := len(cp.MethodHandles)
			cp.MethodHandles = append(cp.MethodHandles, MethodHandleEntry{RefKind: refKind, RefIndex: int(refIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagMethodHandle, Slot: slot}

		case TagMethodType:
			var descIndex uint16
			if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
				return cp, fmt.Errorf("reading MethodType at index %d: %w", i, err)
			}
			slot := len(cp.MethodTypes)
			cp.MethodTypes = append(cp.MethodTypes, descIndex)
			cp.CpIndex[i] = CpEntry{Tag: TagMethodType, Slot: slot}

		case TagDynamic:
			var bootIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &bootIndex); err != nil {
				return cp, fmt.Errorf("reading Dynamic bootstrap index at %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return cp, fmt.Errorf("reading Dynamic name_and_type index at %d: %w", i, err)
			}
			slot := len(cp.Dynamics)
			cp.Dynamics = append(cp.Dynamics, DynamicEntry{BootstrapIndex: int(bootIndex), NameAndType: int(natIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagDynamic, Slot: slot}

		case TagInvokeDynamic:
			var bootIndex, natIndex uint16
			if err := binary.Read(r, binary.BigEndian, &bootIndex); err != nil {
				return cp, fmt.Errorf("reading InvokeDynamic bootstrap index at %d: %w", i, err)
			}
			if err := binary.Read(r, binary.BigEndian, &natIndex); err != nil {
				return cp, fmt.Errorf("reading InvokeDynamic name_and_type index at %d: %w", i, err)
			}
			slot := len(cp.InvokeDynamics)
			cp.InvokeDynamics = append(cp.InvokeDynamics, DynamicEntry{BootstrapIndex: int(bootIndex), NameAndType: int(natIndex)})
			cp.CpIndex[i] = CpEntry{Tag: TagInvokeDynamic, Slot: slot}

		default:
			return cp, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
	}

	return cp, nil
}

// ResolvedMethod is a fully dereferenced method/interface-method reference:
// the class it belongs to plus its name and descriptor.
type ResolvedMethod struct {
	ClassName  string
	MethodName string
	Descriptor string
}

func (cf *ClassFile) resolveNameAndType(natIndex int) (name, desc string, err error) {
	if natIndex <= 0 || natIndex >= len(cf.CP.CpIndex) {
		return "", "", fmt.Errorf("invalid constant pool index %d", natIndex)
	}
	e := cf.CP.CpIndex[natIndex]
	if e.Tag != TagNameAndType {
		return "", "", fmt.Errorf("constant pool index %d is not NameAndType", natIndex)
	}
	nat := cf.CP.NameAndTypes[e.Slot]
	name, ok := cf.GetUtf8(nat.NameIndex)
	if !ok {
		return "", "", fmt.Errorf("unresolved NameAndType name at index %d", nat.NameIndex)
	}
	desc, ok = cf.GetUtf8(nat.DescIndex)
	if !ok {
		return "", "", fmt.Errorf("unresolved NameAndType descriptor at index %d", nat.DescIndex)
	}
	return name, desc, nil
}

// ResolveMethodref resolves a CONSTANT_Methodref entry at index.
func (cf *ClassFile) ResolveMethodref(index int) (*ResolvedMethod, error) {
	if index <= 0 || index >= len(cf.CP.CpIndex) {
		return nil, fmt.Errorf("invalid constant pool index %d", index)
	}
	e := cf.CP.CpIndex[index]
	if e.Tag != TagMethodRef {
		return nil, fmt.Errorf("constant pool index %d is not Methodref", index)
	}
	ref := cf.CP.MethodRefs[e.Slot]
	className, ok := cf.GetClassName(ref.ClassIndex)
	if !ok {
		return nil, fmt.Errorf("unresolved Methodref class at index %d", ref.ClassIndex)
	}
	name, desc, err := cf.resolveNameAndType(ref.NameAndType)
	if err != nil {
		return nil, err
	}
	return &ResolvedMethod{ClassName: className, MethodName: name, Descriptor: desc}, nil
}

// ResolveInterfaceMethodref resolves a CONSTANT_InterfaceMethodref entry.
func (cf *ClassFile) ResolveInterfaceMethodref(index int) (*ResolvedMethod, error) {
	if index <= 0 || index >= len(cf.CP.CpIndex) {
		return nil, fmt.Errorf("invalid constant pool index %d", index)
	}
	e := cf.CP.CpIndex[index]
	if e.Tag != TagInterfaceMethodRef {
		return nil, fmt.Errorf("constant pool index %d is not InterfaceMethodref", index)
	}
	ref := cf.CP.InterfaceRefs[e.Slot]
	className, ok := cf.GetClassName(ref.ClassIndex)
	if !ok {
		return nil, fmt.Errorf("unresolved InterfaceMethodref class at index %d", ref.ClassIndex)
	}
	name, desc, err := cf.resolveNameAndType(ref.NameAndType)
	if err != nil {
		return nil, err
	}
	return &ResolvedMethod{ClassName: className, MethodName: name, Descriptor: desc}, nil
}

// ResolveFieldref resolves a CONSTANT_Fieldref entry.
func (cf *ClassFile) ResolveFieldref(index int) (*ResolvedMethod, error) {
	if index <= 0 || index >= len(cf.CP.CpIndex) {
		return nil, fmt.Errorf("invalid constant pool index %d", index)
	}
	e := cf.CP.CpIndex[index]
	if e.Tag != TagFieldRef {
		return nil, fmt.Errorf("constant pool index %d is not Fieldref", index)
	}
	ref := cf.CP.FieldRefs[e.Slot]
	className, ok := cf.GetClassName(ref.ClassIndex)
	if !ok {
		return nil, fmt.Errorf("unresolved Fieldref class at index %d", ref.ClassIndex)
	}
	name, desc, err := cf.resolveNameAndType(ref.NameAndType)
	if err != nil {
		return nil, err
	}
	return &ResolvedMethod{ClassName: className, MethodName: name, Descriptor: desc}, nil
}

// ResolveString resolves a CONSTANT_String entry to its backing Utf8 text.
func (cf *ClassFile) ResolveString(index int) (string, error) {
	if index <= 0 || index >= len(cf.CP.CpIndex) {
		return "", fmt.Errorf("invalid constant pool index %d", index)
	}
	e := cf.CP.CpIndex[index]
	if e.Tag != TagStringConst {
		return "", fmt.Errorf("constant pool index %d is not String", index)
	}
	utf8Index := cf.CP.StringRefs[e.Slot]
	s, ok := cf.GetUtf8(utf8Index)
	if !ok {
		return "", fmt.Errorf("unresolved String utf8 at index %d", utf8Index)
	}
	return s, nil
}
