/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/types"
)

// memLoader is an in-memory Loader keyed by internal class name, used to
// drive the registry in tests without touching the filesystem.
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
// (possibly empty) superclass, a list of implemented interfaces, and a
// method table with empty bodies.
func buildClassBytes(t *testing.T, thisName, superName string, ifaceNames []string, methods []methodSpec) []byte {
	t.Helper()
	var buf bytes.Buffer
	write := func(v interface{}) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("building fixture: %v", err)
		}
	}

	// constant pool: utf8 strings for this/super/iface names then class refs,
	// then utf8/class pairs for each method name+descriptor.
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
	ifaceUtf8s := make([]uint16, len(ifaceNames))
	for i, n := range ifaceNames {
		ifaceUtf8s[i] = internUtf8(n)
	}
	type methUtf8 struct{ name, desc uint16 }
	methUtf8s := make([]methUtf8, len(methods))
	for i, m := range methods {
		methUtf8s[i] = methUtf8{internUtf8(m.name), internUtf8(m.desc)}
	}

	// class entries come right after all utf8 entries, one per distinct name
	// used as a class ref (this, super, each iface).
	classRefFor := make(map[uint16]uint16) // utf8 index -> class-ref cp index
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
	ifaceClassIdx := make([]uint16, len(ifaceNames))
	for i := range ifaceNames {
		ifaceClassIdx[i] = registerClassRef(ifaceUtf8s[i])
	}

	buf.Reset()
	write(uint32(0xCAFEBABE))
	write(uint16(0))
	write(uint16(61))
	write(nextIndex) // cp count = highest index + 1
	buf.Write(cpBuf.Bytes())

	write(uint16(classfile.AccPublic | classfile.AccSuper))
	write(thisClassIdx)
	write(superClassIdx)

	write(uint16(len(ifaceClassIdx)))
	for _, idx := range ifaceClassIdx {
		write(idx)
	}

	write(uint16(0)) // fields count

	write(uint16(len(methods)))
	for i, m := range methods {
		write(uint16(m.flags))
		write(methUtf8s[i].name)
		write(methUtf8s[i].desc)
		write(uint16(0)) // no attributes
	}

	write(uint16(0)) // class attributes count

	return buf.Bytes()
}

func newTestRegistry(t *testing.T) (*classnames.Registry, *memLoader, *Registry) {
	t.Helper()
	names := classnames.NewRegistry()
	loader := newMemLoader()
	reg := NewRegistry(names, loader)
	return names, loader, reg
}

func TestLoadClassAndSuperChain(t *testing.T) {
	names, loader, reg := newTestRegistry(t)

	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil, nil)
	loader.byName["a/Base"] = buildClassBytes(t, "a/Base", "java/lang/Object", nil, []methodSpec{{"run", "()V", classfile.AccPublic}})
	loader.byName["a/Derived"] = buildClassBytes(t, "a/Derived", "a/Base", nil, []methodSpec{{"run", "()V", classfile.AccPublic}})

	derivedID := names.IdFromBytes([]byte("a/Derived"))
	if err := reg.LoadClass(derivedID); err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}

	it := reg.NewSuperClassIter(derivedID)
	var chain []classnames.ClassId
	for {
		id, ok, err := it.NextItem()
		if err != nil {
			t.Fatalf("iterator error: %v", err)
		}
		if !ok {
			break
		}
		chain = append(chain, id)
	}
	if len(chain) != 3 {
		t.Fatalf("expected chain of 3 (Derived, Base, Object), got %d: %v", len(chain), chain)
	}
	baseID := names.IdFromBytes([]byte("a/Base"))
	if chain[0] != derivedID || chain[1] != baseID || chain[2] != names.ObjectId() {
		t.Errorf("unexpected chain order: %v", chain)
	}
}

func TestOverrideComputation(t *testing.T) {
	names, loader, reg := newTestRegistry(t)

	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil, nil)
	loader.byName["a/Base"] = buildClassBytes(t, "a/Base", "java/lang/Object", nil,
		[]methodSpec{{"run", "()V", classfile.AccPublic}})
	loader.byName["a/Derived"] = buildClassBytes(t, "a/Derived", "a/Base", nil,
		[]methodSpec{{"run", "()V", classfile.AccPublic}})

	derivedID := names.IdFromBytes([]byte("a/Derived"))
	if err := reg.LoadClass(derivedID); err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}

	overrides, err := reg.Overrides(derivedID, 0)
	if err != nil {
		t.Fatalf("Overrides failed: %v", err)
	}
	if len(overrides) != 1 {
		t.Fatalf("expected exactly one override target, got %d", len(overrides))
	}
	classID, methodIndex := overrides[0].Decompose()
	baseID := names.IdFromBytes([]byte("a/Base"))
	if classID != uint32(baseID) || methodIndex != 0 {
		t.Errorf("expected override target a/Base#0, got class=%d index=%d", classID, methodIndex)
	}
}

func TestOverrideBlockedByFinal(t *testing.T) {
	names, loader, reg := newTestRegistry(t)

	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil, nil)
	loader.byName["a/Base"] = buildClassBytes(t, "a/Base", "java/lang/Object", nil,
		[]methodSpec{{"run", "()V", classfile.AccPublic | classfile.AccFinal}})
	loader.byName["a/Derived"] = buildClassBytes(t, "a/Derived", "a/Base", nil,
		[]methodSpec{{"run", "()V", classfile.AccPublic}})

	derivedID := names.IdFromBytes([]byte("a/Derived"))
	if err := reg.LoadClass(derivedID); err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}

	overrides, err := reg.Overrides(derivedID, 0)
	if err != nil {
		t.Fatalf("Overrides failed: %v", err)
	}
	if len(overrides) != 0 {
		t.Errorf("expected no override set past a final method, got %v", overrides)
	}
}

func TestStaticMethodNeverOverrides(t *testing.T) {
	names, loader, reg := newTestRegistry(t)

	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil, nil)
	loader.byName["a/Base"] = buildClassBytes(t, "a/Base", "java/lang/Object", nil,
		[]methodSpec{{"run", "()V", classfile.AccPublic}})
	loader.byName["a/Derived"] = buildClassBytes(t, "a/Derived", "a/Base", nil,
		[]methodSpec{{"run", "()V", classfile.AccPublic | classfile.AccStatic}})

	derivedID := names.IdFromBytes([]byte("a/Derived"))
	if err := reg.LoadClass(derivedID); err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}

	overrides, err := reg.Overrides(derivedID, 0)
	if err != nil {
		t.Fatalf("Overrides failed: %v", err)
	}
	if len(overrides) != 0 {
		t.Errorf("expected a static method to never override, got %v", overrides)
	}
}

func TestIsSuperClass(t *testing.T) {
	names, loader, reg := newTestRegistry(t)

	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil, nil)
	loader.byName["a/Base"] = buildClassBytes(t, "a/Base", "java/lang/Object", nil, nil)
	loader.byName["a/Derived"] = buildClassBytes(t, "a/Derived", "a/Base", nil, nil)

	derivedID := names.IdFromBytes([]byte("a/Derived"))
	baseID := names.IdFromBytes([]byte("a/Base"))
	if err := reg.LoadClass(derivedID); err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}

	ok, err := reg.IsSuperClass(derivedID, baseID)
	if err != nil || !ok {
		t.Errorf("expected a/Base to be a superclass of a/Derived, got %v %v", ok, err)
	}
	ok, err = reg.IsSuperClass(baseID, derivedID)
	if err != nil || ok {
		t.Errorf("expected a/Derived NOT to be a superclass of a/Base")
	}
}

func TestImplementsInterface(t *testing.T) {
	names, loader, reg := newTestRegistry(t)

	loader.byName["java/lang/Object"] = buildClassBytes(t, "java/lang/Object", "", nil, nil)
	loader.byName["a/Talks"] = buildClassBytes(t, "a/Talks", "java/lang/Object", nil, nil)
	loader.byName["a/Impl"] = buildClassBytes(t, "a/Impl", "java/lang/Object", []string{"a/Talks"}, nil)

	implID := names.IdFromBytes([]byte("a/Impl"))
	talksID := names.IdFromBytes([]byte("a/Talks"))
	if err := reg.LoadClass(implID); err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}

	ok, err := reg.ImplementsInterface(implID, talksID)
	if err != nil || !ok {
		t.Errorf("expected a/Impl to implement a/Talks, got %v %v", ok, err)
	}
}

func TestArrayClassConstruction(t *testing.T) {
	names, _, reg := newTestRegistry(t)

	intArrID := names.IdForArrayOfPrimitive(types.Int)
	if err := reg.LoadClass(intArrID); err != nil {
		t.Fatalf("LoadClass(array) failed: %v", err)
	}
	arr, ok := reg.Array(intArrID)
	if !ok {
		t.Fatal("expected an ArrayClass record for [I")
	}
	if !arr.IsPrimitive {
		t.Error("expected [I's array class to be marked primitive")
	}
}
