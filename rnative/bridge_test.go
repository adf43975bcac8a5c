/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

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
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
)

// memLoader is an in-memory classfile.Loader keyed by internal class
// name, the same style classloader_test.go drives its registry with.
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

type methodSpec struct {
	name, desc string
	flags      int
}

// buildClassBytes assembles a minimal .class file: this class, its
// (possibly empty) superclass, and a method table with empty bodies (no
// Code attribute — exactly the shape a native-flagged method has).
func buildClassBytes(t *testing.T, thisName, superName string, methods []methodSpec) []byte {
	t.Helper()
	var buf bytes.Buffer
	write := func(v interface{}) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("building fixture: %v", err)
		}
	}

	var utf8s []string
	internUtf8 := func(s string) uint16 {
		for i, u := range utf8s {
			if u == s {
				return uint16(i + 1)
			}
		}
		utf8s = append(utf8s, s)
		return uint16(len(utf8s))
	}

	thisUtf8 := internUtf8(thisName)
	var superUtf8 uint16
	if superName != "" {
		superUtf8 = internUtf8(superName)
	}
	type methUtf8 struct{ name, desc uint16 }
	methUtf8s := make([]methUtf8, len(methods))
	for i, m := range methods {
		methUtf8s[i] = methUtf8{internUtf8(m.name), internUtf8(m.desc)}
	}

	classRefFor := make(map[uint16]uint16)
	nextIndex := uint16(len(utf8s)) + 1

	var cpBuf bytes.Buffer
	wcp := func(v interface{}) {
		if err := binary.Write(&cpBuf, binary.BigEndian, v); err != nil {
			t.Fatalf("building cp: %v", err)
		}
	}
	for _, s := range utf8s {
		wcp(uint8(classfile.TagUtf8))
		wcp(uint16(len(s)))
		cpBuf.WriteString(s)
	}
	registerClassRef := func(utf8Index uint16) uint16 {
		if idx, ok := classRefFor[utf8Index]; ok {
			return idx
		}
		wcp(uint8(classfile.TagClassRef))
		wcp(utf8Index)
		classRefFor[utf8Index] = nextIndex
		nextIndex++
		return classRefFor[utf8Index]
	}
	thisClassIdx := registerClassRef(thisUtf8)
	var superClassIdx uint16
	if superName != "" {
		superClassIdx = registerClassRef(superUtf8)
	}

	buf.Reset()
	write(uint32(0xCAFEBABE))
	write(uint16(0))
	write(uint16(61))
	write(nextIndex)
	buf.Write(cpBuf.Bytes())

	write(uint16(classfile.AccPublic | classfile.AccSuper))
	write(thisClassIdx)
	write(superClassIdx)

	write(uint16(0)) // interfaces count
	write(uint16(0)) // fields count

	write(uint16(len(methods)))
	for i, m := range methods {
		write(uint16(m.flags))
		write(methUtf8s[i].name)
		write(methUtf8s[i].desc)
		write(uint16(0)) // no attributes (no Code attribute for a native method)
	}

	write(uint16(0)) // class attributes count

	return buf.Bytes()
}

func newTestEngine(t *testing.T, loader *memLoader, bridge *Bridge) (*interpreter.Engine, *classnames.Registry) {
	t.Helper()
	names := classnames.NewRegistry()
	reg := classloader.NewRegistry(names, loader)
	e := interpreter.New(heap.New(), reg, names)
	e.Natives = bridge
	return e, names
}

func TestCallNativeResolvesInternalReplacement(t *testing.T) {
	loader := newMemLoader()
	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil)
	loader.byName["t/Greeter"] = buildClassBytes(t, "t/Greeter", "java/lang/Object",
		[]methodSpec{{"bump", "(I)I", classfile.AccPublic | classfile.AccNative}})

	bridge := NewBridge()
	bridge.Register("t/Greeter", "bump", func(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
		return args[0].(int64) + int64(1), nil
	})

	e, names := newTestEngine(t, loader, bridge)
	classID := names.IdFromBytes([]byte("t/Greeter"))
	if err := e.Registry.LoadClass(classID); err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	m, methodIndex, err := e.Registry.LoadMethodByDesc(classID, "bump", "(I)I")
	if err != nil {
		t.Fatalf("LoadMethodByDesc: %v", err)
	}
	methodID := classloader.MethodID(classID, methodIndex)

	f := frames.New(classID, methodID, "t/Greeter", m.Name, nil, 2, 0)
	f.Locals[0] = heap.NilRef[object.Instance]() // receiver placeholder, unused by bump
	f.Locals[1] = int64(41)

	res, err := e.EvalMethod(methodID, f)
	if err != nil {
		t.Fatalf("EvalMethod: %v", err)
	}
	if res.Threw {
		t.Fatalf("unexpected throw")
	}
	if res.Value.(int64) != 42 {
		t.Fatalf("bump(41) = %v, want 42", res.Value)
	}
}

func TestCallNativeMissingSymbolThrowsUnsatisfiedLinkError(t *testing.T) {
	loader := newMemLoader()
	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil)
	loader.byName["java/lang/UnsatisfiedLinkError"] = buildClassBytes(t, "java/lang/UnsatisfiedLinkError", "java/lang/Object", nil)
	loader.byName["t/Lonely"] = buildClassBytes(t, "t/Lonely", "java/lang/Object",
		[]methodSpec{{"vanish", "()V", classfile.AccPublic | classfile.AccStatic | classfile.AccNative}})

	bridge := NewBridge() // nothing registered
	e, names := newTestEngine(t, loader, bridge)
	classID := names.IdFromBytes([]byte("t/Lonely"))
	if err := e.Registry.LoadClass(classID); err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	m, methodIndex, err := e.Registry.LoadMethodByDesc(classID, "vanish", "()V")
	if err != nil {
		t.Fatalf("LoadMethodByDesc: %v", err)
	}
	methodID := classloader.MethodID(classID, methodIndex)

	f := frames.New(classID, methodID, "t/Lonely", m.Name, nil, 0, 0)
	res, err := e.EvalMethod(methodID, f)
	if err != nil {
		t.Fatalf("EvalMethod: %v", err)
	}
	if !res.Threw {
		t.Fatalf("expected missing native symbol to throw, got normal return")
	}
	inst, ok := heap.Deref(e.Gc, res.Exc)
	if !ok {
		t.Fatalf("dangling exception reference")
	}
	gotName, _, err := names.NameFromId(inst.InstanceOf())
	if err != nil {
		t.Fatalf("NameFromId: %v", err)
	}
	if gotName != "java/lang/UnsatisfiedLinkError" {
		t.Fatalf("thrown exception class = %q, want java/lang/UnsatisfiedLinkError", gotName)
	}
}

func TestMarshalArgsSkipsCategory2Padding(t *testing.T) {
	br := NewBridge()
	names := classnames.NewRegistry()
	md, err := classloader.ParseMethodDescriptor("(JI)V", names)
	if err != nil {
		t.Fatalf("ParseMethodDescriptor: %v", err)
	}

	f := frames.New(0, fieldid.ComposeMethod(0, 0), "t/X", "m", nil, 4, 0)
	f.Locals[0] = heap.NilRef[object.Instance]() // receiver
	f.Locals[1] = int64(100)                     // long occupies locals[1] and locals[2]
	f.Locals[2] = nil
	f.Locals[3] = int64(7)

	this, args := br.marshalArgs(f, md, false)
	if this == nil {
		t.Fatalf("expected non-nil receiver placeholder")
	}
	if len(args) != 2 {
		t.Fatalf("len(args) = %d, want 2", len(args))
	}
	if args[0].(int64) != 100 {
		t.Fatalf("args[0] = %v, want 100", args[0])
	}
	if args[1].(int64) != 7 {
		t.Fatalf("args[1] = %v, want 7", args[1])
	}
}
