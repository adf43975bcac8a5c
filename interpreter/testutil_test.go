/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/fieldid"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
)

// memLoader is an in-memory classfile.Loader keyed by internal class name,
// the same fixture shape classloader's own tests use.
type memLoader struct {
	byName map[string][]byte
}

func newMemLoader() *memLoader { return &memLoader{byName: make(map[string][]byte)} }

func (m *memLoader) LoadByID(names *classnames.Registry, id classnames.ClassId) (classfile.LoadResult, error) {
	name, info, err := names.NameFromId(id)
	if err != nil {
		return classfile.LoadResult{}, err
	}
	if info.IsArray {
		return classfile.LoadResult{NoFile: true}, nil
	}
	data, ok := m.byName[name]
	if !ok {
		return classfile.LoadResult{}, nil
	}
	return classfile.LoadResult{Data: data, Found: true}, nil
}

// cpBuilder assembles a constant pool byte-for-byte, interning Utf8 entries
// by value so a name used by several helper calls doesn't duplicate.
type cpBuilder struct {
	buf       bytes.Buffer
	next      uint16
	utf8Index map[string]uint16
}

func newCPBuilder() *cpBuilder {
	return &cpBuilder{next: 1, utf8Index: make(map[string]uint16)}
}

func (c *cpBuilder) w(t *testing.T, v interface{}) {
	t.Helper()
	if err := binary.Write(&c.buf, binary.BigEndian, v); err != nil {
		t.Fatalf("writing constant pool entry: %v", err)
	}
}

func (c *cpBuilder) utf8(t *testing.T, s string) uint16 {
	if idx, ok := c.utf8Index[s]; ok {
		return idx
	}
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagUtf8))
	c.w(t, uint16(len(s)))
	c.buf.WriteString(s)
	c.utf8Index[s] = idx
	return idx
}

func (c *cpBuilder) classRef(t *testing.T, name string) uint16 {
	n := c.utf8(t, name)
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagClassRef))
	c.w(t, n)
	return idx
}

func (c *cpBuilder) nameAndType(t *testing.T, name, desc string) uint16 {
	n := c.utf8(t, name)
	d := c.utf8(t, desc)
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagNameAndType))
	c.w(t, n)
	c.w(t, d)
	return idx
}

func (c *cpBuilder) methodRef(t *testing.T, className, name, desc string) uint16 {
	ci := c.classRef(t, className)
	nt := c.nameAndType(t, name, desc)
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagMethodRef))
	c.w(t, ci)
	c.w(t, nt)
	return idx
}

func (c *cpBuilder) interfaceMethodRef(t *testing.T, className, name, desc string) uint16 {
	ci := c.classRef(t, className)
	nt := c.nameAndType(t, name, desc)
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagInterfaceMethodRef))
	c.w(t, ci)
	c.w(t, nt)
	return idx
}

func (c *cpBuilder) fieldRef(t *testing.T, className, name, desc string) uint16 {
	ci := c.classRef(t, className)
	nt := c.nameAndType(t, name, desc)
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagFieldRef))
	c.w(t, ci)
	c.w(t, nt)
	return idx
}

func (c *cpBuilder) intConst(t *testing.T, v int32) uint16 {
	idx := c.next
	c.next++
	c.w(t, uint8(classfile.TagInteger))
	c.w(t, v)
	return idx
}

// excSpec is one exception_table entry, pre-resolved catchType CP index (0
// for catch-any).
type excSpec struct {
	start, end, handler int
	catchType           uint16
}

type codeSpec struct {
	maxStack, maxLocals int
	code                []byte
	exceptions          []excSpec
}

type fieldSpec struct {
	name, desc string
	flags      int
	constIdx   uint16 // 0 = no ConstantValue attribute
}

type methodSpec struct {
	name, desc string
	flags      int
	code       *codeSpec
}

// buildClassFile assembles a complete .class file byte stream from a
// constant pool already populated with every Utf8/ref/const entry the
// method bodies reference, plus this/super/interface class-ref indices the
// caller obtained from the same builder.
func buildClassFile(t *testing.T, cp *cpBuilder, thisClassIdx, superClassIdx uint16, accessFlags int, ifaceIdxs []uint16, fields []fieldSpec, methods []methodSpec) []byte {
	t.Helper()

	codeNameIdx := cp.utf8(t, "Code")
	constValNameIdx := cp.utf8(t, "ConstantValue")

	fieldNameIdx := make([]uint16, len(fields))
	fieldDescIdx := make([]uint16, len(fields))
	for i, f := range fields {
		fieldNameIdx[i] = cp.utf8(t, f.name)
		fieldDescIdx[i] = cp.utf8(t, f.desc)
	}
	methodNameIdx := make([]uint16, len(methods))
	methodDescIdx := make([]uint16, len(methods))
	for i, m := range methods {
		methodNameIdx[i] = cp.utf8(t, m.name)
		methodDescIdx[i] = cp.utf8(t, m.desc)
	}

	var buf bytes.Buffer
	w := func(v interface{}) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("building class bytes: %v", err)
		}
	}

	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(uint16(61))
	w(cp.next)
	buf.Write(cp.buf.Bytes())

	w(uint16(accessFlags))
	w(thisClassIdx)
	w(superClassIdx)

	w(uint16(len(ifaceIdxs)))
	for _, idx := range ifaceIdxs {
		w(idx)
	}

	w(uint16(len(fields)))
	for i, f := range fields {
		w(uint16(f.flags))
		w(fieldNameIdx[i])
		w(fieldDescIdx[i])
		if f.constIdx != 0 {
			w(uint16(1))
			w(constValNameIdx)
			w(uint32(2))
			w(f.constIdx)
		} else {
			w(uint16(0))
		}
	}

	w(uint16(len(methods)))
	for i, m := range methods {
		w(uint16(m.flags))
		w(methodNameIdx[i])
		w(methodDescIdx[i])
		if m.code != nil {
			w(uint16(1))
			w(codeNameIdx)
			length := 2 + 2 + 4 + len(m.code.code) + 2 + len(m.code.exceptions)*8 + 2
			w(uint32(length))
			w(uint16(m.code.maxStack))
			w(uint16(m.code.maxLocals))
			w(uint32(len(m.code.code)))
			buf.Write(m.code.code)
			w(uint16(len(m.code.exceptions)))
			for _, h := range m.code.exceptions {
				w(uint16(h.start))
				w(uint16(h.end))
				w(uint16(h.handler))
				w(uint16(h.catchType))
			}
			w(uint16(0))
		} else {
			w(uint16(0))
		}
	}
	w(uint16(0))
	return buf.Bytes()
}

// testEngine bundles the wiring every test needs: a name registry, an
// in-memory loader its test registers class bytes into, a class registry,
// and an Engine over a fresh heap.
type testEngine struct {
	Names  *classnames.Registry
	Loader *memLoader
	Reg    *classloader.Registry
	Engine *Engine
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	names := classnames.NewRegistry()
	loader := newMemLoader()
	reg := classloader.NewRegistry(names, loader)
	eng := New(heap.New(), reg, names)
	return &testEngine{Names: names, Loader: loader, Reg: reg, Engine: eng}
}

// registerObject seeds java/lang/Object, the implicit root every other test
// fixture's super chain needs to terminate at.
func (te *testEngine) registerObject(t *testing.T) {
	t.Helper()
	cp := newCPBuilder()
	thisIdx := cp.classRef(t, "java/lang/Object")
	te.Loader.byName["java/lang/Object"] = buildClassFile(t, cp, thisIdx, 0, classfile.AccPublic|classfile.AccSuper, nil, nil, nil)
}

func be16bytes(v int16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// objectClassRef interns java/lang/Object into cp and returns its index,
// for callers building a fixture whose superclass is Object.
func (te *testEngine) objectClassRef(t *testing.T, cp *cpBuilder) uint16 {
	return cp.classRef(t, "java/lang/Object")
}

// registerThrowable registers a minimal exception-class fixture extending
// superName, enough to exercise super-chain walks in exception dispatch
// without a real java.lang.Throwable field layout.
func (te *testEngine) registerThrowable(t *testing.T, name, superName string) {
	t.Helper()
	cp := newCPBuilder()
	thisIdx := cp.classRef(t, name)
	superIdx := cp.classRef(t, superName)
	te.Loader.byName[name] = buildClassFile(t, cp, thisIdx, superIdx, classfile.AccPublic|classfile.AccSuper, nil, nil, nil)
}

// runMethod loads methodID's code, builds a call frame sized from its
// own Code attribute, seeds Locals from args, and evaluates it.
func (te *testEngine) runMethod(t *testing.T, methodID fieldid.MethodId, args []interface{}, allowThrow bool) MethodResult {
	t.Helper()
	classID, methodIndex := methodID.Decompose()
	m, err := te.Reg.LoadMethodByIndex(classnames.ClassId(classID), methodIndex)
	if err != nil {
		t.Fatalf("LoadMethodByIndex: %v", err)
	}
	maxLocals, maxStack := 0, 0
	var code []byte
	if m.Code != nil {
		maxLocals, maxStack, code = m.Code.MaxLocals, m.Code.MaxStack, m.Code.Code
	}
	f := frames.New(classnames.ClassId(classID), methodID, nameOf(te.Names, classnames.ClassId(classID)), m.Name, code, maxLocals, maxStack)
	for i, a := range args {
		f.Locals[i] = a
	}
	res, err := te.Engine.EvalMethod(methodID, f)
	if err != nil {
		t.Fatalf("EvalMethod: %v", err)
	}
	if res.Threw && !allowThrow {
		t.Fatalf("unexpected exception from method")
	}
	return res
}
