/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const classMagic = 0xCAFEBABE

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a .class file from r and returns its structural form.
func Parse(r io.Reader) (*ClassFile, error) {
	cf := &ClassFile{}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if magic != classMagic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	var minor, major uint16
	if err := binary.Read(r, binary.BigEndian, &minor); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &major); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}
	cf.MinorVersion, cf.MajorVersion = int(minor), int(major)

	var cpCount uint16
	if err := binary.Read(r, binary.BigEndian, &cpCount); err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	pool, err := parseConstantPool(r, cpCount)
	if err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cf.CP = pool

	var accessFlags, thisClass, superClass uint16
	if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &thisClass); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &superClass); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}
	cf.AccessFlags, cf.ThisClass, cf.SuperClass = int(accessFlags), int(thisClass), int(superClass)

	var interfacesCount uint16
	if err := binary.Read(r, binary.BigEndian, &interfacesCount); err != nil {
		return nil, fmt.Errorf("reading interfaces count: %w", err)
	}
	cf.Interfaces = make([]int, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		var idx uint16
		if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
			return nil, fmt.Errorf("reading interface %d: %w", i, err)
		}
		cf.Interfaces[i] = int(idx)
	}

	var fieldsCount uint16
	if err := binary.Read(r, binary.BigEndian, &fieldsCount); err != nil {
		return nil, fmt.Errorf("reading fields count: %w", err)
	}
	cf.Fields, err = parseFields(r, cf, fieldsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}

	var methodsCount uint16
	if err := binary.Read(r, binary.BigEndian, &methodsCount); err != nil {
		return nil, fmt.Errorf("reading methods count: %w", err)
	}
	cf.Methods, err = parseMethods(r, cf, methodsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	if err := cf.parseClassAttributes(r); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	return cf, nil
}

func parseFields(r io.Reader, cf *ClassFile, count uint16) ([]FieldInfo, error) {
	fields := make([]FieldInfo, count)
	for i := uint16(0); i < count; i++ {
		var accessFlags, nameIndex, descIndex, attrCount uint16
		if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
			return nil, fmt.Errorf("reading field %d access flags: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, fmt.Errorf("reading field %d name index: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
			return nil, fmt.Errorf("reading field %d descriptor index: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
			return nil, fmt.Errorf("reading field %d attributes count: %w", i, err)
		}

		name, ok := cf.GetUtf8(int(nameIndex))
		if !ok {
			return nil, fmt.Errorf("resolving field %d name", i)
		}
		desc, ok := cf.GetUtf8(int(descIndex))
		if !ok {
			return nil, fmt.Errorf("resolving field %d descriptor", i)
		}

		attrs, err := parseAttributeInfos(r, cf, attrCount)
		if err != nil {
			return nil, fmt.Errorf("parsing field %d attributes: %w", i, err)
		}

		f := FieldInfo{
			AccessFlags: int(accessFlags),
			Name:        name,
			Descriptor:  desc,
			Attributes:  attrs,
		}
		if cv := attrNamed(attrs, "ConstantValue"); cv != nil && len(cv.Data) == 2 {
			cpIdx := int(binary.BigEndian.Uint16(cv.Data))
			f.ConstValue = resolveConstValue(cf, cpIdx)
		}
		fields[i] = f
	}
	return fields, nil
}

func resolveConstValue(cf *ClassFile, cpIndex int) interface{} {
	if cpIndex <= 0 || cpIndex >= len(cf.CP.CpIndex) {
		return nil
	}
	e := cf.CP.CpIndex[cpIndex]
	switch e.Tag {
	case TagInteger:
		return cf.CP.IntConsts[e.Slot]
	case TagLong:
		return cf.CP.LongConsts[e.Slot]
	case TagFloat:
		return cf.CP.Floats[e.Slot]
	case TagDouble:
		return cf.CP.Doubles[e.Slot]
	case TagStringConst:
		s, _ := cf.ResolveString(cpIndex)
		return s
	}
	return nil
}

func parseMethods(r io.Reader, cf *ClassFile, count uint16) ([]MethodInfo, error) {
	methods := make([]MethodInfo, count)
	for i := uint16(0); i < count; i++ {
		var accessFlags, nameIndex, descIndex, attrCount uint16
		if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
			return nil, fmt.Errorf("reading method %d access flags: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, fmt.Errorf("reading method %d name index: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
			return nil, fmt.Errorf("reading method %d descriptor index: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
			return nil, fmt.Errorf("reading method %d attributes count: %w", i, err)
		}

		name, ok := cf.GetUtf8(int(nameIndex))
		if !ok {
			return nil, fmt.Errorf("resolving method %d name", i)
		}
		desc, ok := cf.GetUtf8(int(descIndex))
		if !ok {
			return nil, fmt.Errorf("resolving method %d descriptor", i)
		}

		attrs, err := parseAttributeInfos(r, cf, attrCount)
		if err != nil {
			return nil, fmt.Errorf("parsing method %d attributes: %w", i, err)
		}

		m := MethodInfo{
			AccessFlags: int(accessFlags),
			Name:        name,
			Descriptor:  desc,
			Attributes:  attrs,
		}

		if attr := attrNamed(attrs, "Code"); attr != nil {
			code, err := parseCodeAttribute(cf, attr.Data)
			if err != nil {
				return nil, fmt.Errorf("parsing Code attribute for method %s: %w", name, err)
			}
			m.Code = code
		}

		methods[i] = m
	}
	return methods, nil
}

func attrNamed(attrs []Attr, name string) *Attr {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

func parseAttributeInfos(r io.Reader, cf *ClassFile, count uint16) ([]Attr, error) {
	attrs := make([]Attr, count)
	for i := uint16(0); i < count; i++ {
		var nameIndex uint16
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, fmt.Errorf("reading attribute %d name index: %w", i, err)
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, fmt.Errorf("reading attribute %d length: %w", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("reading attribute %d data: %w", i, err)
		}

		name, ok := cf.GetUtf8(int(nameIndex))
		if !ok {
			return nil, fmt.Errorf("resolving attribute %d name", i)
		}

		attrs[i] = Attr{Name: name, Data: data}
	}
	return attrs, nil
}

func parseCodeAttribute(cf *ClassFile, data []byte) (*CodeAttr, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("Code attribute too short: %d bytes", len(data))
	}

	maxStack := binary.BigEndian.Uint16(data[0:2])
	maxLocals := binary.BigEndian.Uint16(data[2:4])
	codeLength := binary.BigEndian.Uint32(data[4:8])

	if len(data) < 8+int(codeLength) {
		return nil, fmt.Errorf("Code attribute data too short for code_length %d", codeLength)
	}

	code := make([]byte, codeLength)
	copy(code, data[8:8+codeLength])

	offset := 8 + int(codeLength)
	var handlers []ExceptionHandler
	if offset+2 > len(data) {
		return nil, fmt.Errorf("Code attribute truncated before exception table")
	}
	exTableLen := binary.BigEndian.Uint16(data[offset : offset+2])
	offset += 2
	handlers = make([]ExceptionHandler, exTableLen)
	for i := uint16(0); i < exTableLen; i++ {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("Code attribute exception table truncated at entry %d", i)
		}
		handlers[i] = ExceptionHandler{
			StartPC:   int(binary.BigEndian.Uint16(data[offset : offset+2])),
			EndPC:     int(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
			HandlerPC: int(binary.BigEndian.Uint16(data[offset+4 : offset+6])),
			CatchType: int(binary.BigEndian.Uint16(data[offset+6 : offset+8])),
		}
		offset += 8
	}

	var subAttrs []Attr
	if offset+2 <= len(data) {
		subCount := binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2
		sr := &byteCursor{data: data, pos: offset}
		attrs, err := parseAttributeInfos(sr, cf, subCount)
		if err != nil {
			return nil, fmt.Errorf("parsing Code sub-attributes: %w", err)
		}
		subAttrs = attrs
	}

	return &CodeAttr{
		MaxStack:   int(maxStack),
		MaxLocals:  int(maxLocals),
		Code:       code,
		Exceptions: handlers,
		Attributes: subAttrs,
	}, nil
}

// byteCursor is a minimal io.Reader over an in-memory buffer, used to feed
// parseAttributeInfos when reading sub-attributes already sliced out of a
// parent attribute's payload.
type byteCursor struct {
	data []byte
	pos  int
}

func (b *byteCursor) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (cf *ClassFile) parseClassAttributes(r io.Reader) error {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}
	attrs := make([]Attr, 0, count)
	for i := uint16(0); i < count; i++ {
		var nameIndex uint16
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return err
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return err
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return err
		}
		name, ok := cf.GetUtf8(int(nameIndex))
		if !ok {
			continue
		}
		attrs = append(attrs, Attr{Name: name, Data: data})
		switch name {
		case "BootstrapMethods":
			bm, err := parseBootstrapMethods(data)
			if err != nil {
				return fmt.Errorf("parsing BootstrapMethods: %w", err)
			}
			cf.BootstrapMethods = bm
		case "SourceFile":
			if len(data) == 2 {
				if sf, ok := cf.GetUtf8(int(binary.BigEndian.Uint16(data))); ok {
					cf.SourceFile = sf
				}
			}
		}
	}
	cf.Attributes = attrs
	return nil
}

func parseBootstrapMethods(data []byte) ([]BootstrapMethod, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("BootstrapMethods data too short")
	}
	numMethods := binary.BigEndian.Uint16(data[0:2])
	offset := 2
	methods := make([]BootstrapMethod, numMethods)
	for i := uint16(0); i < numMethods; i++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("BootstrapMethods truncated at method %d", i)
		}
		methodRef := binary.BigEndian.Uint16(data[offset : offset+2])
		numArgs := binary.BigEndian.Uint16(data[offset+2 : offset+4])
		offset += 4
		args := make([]int, numArgs)
		for j := uint16(0); j < numArgs; j++ {
			if offset+2 > len(data) {
				return nil, fmt.Errorf("BootstrapMethods truncated at arg %d of method %d", j, i)
			}
			args[j] = int(binary.BigEndian.Uint16(data[offset : offset+2]))
			offset += 2
		}
		methods[i] = BootstrapMethod{MethodRef: int(methodRef), Arguments: args}
	}
	return methods, nil
}
