/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
)

// memLoader is an in-memory classfile.Loader keyed by internal class name,
// the same fixture shape classloader's and interpreter's own tests use.
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

// buildEmptyClass assembles a minimal .class file for thisName (extending
// superName, or no superclass if ""), with no fields or methods — enough
// to satisfy LoadClass for exception/StackTraceElement fixtures.
func buildEmptyClass(t *testing.T, thisName, superName string) []byte {
	t.Helper()
	var cpBuf bytes.Buffer
	wcp := func(v interface{}) {
		if err := binary.Write(&cpBuf, binary.BigEndian, v); err != nil {
			t.Fatalf("building cp: %v", err)
		}
	}
	next := uint16(1)
	utf8 := func(s string) uint16 {
		wcp(uint8(classfile.TagUtf8))
		wcp(uint16(len(s)))
		cpBuf.WriteString(s)
		idx := next
		next++
		return idx
	}
	classRef := func(name string) uint16 {
		n := utf8(name)
		wcp(uint8(classfile.TagClassRef))
		wcp(n)
		idx := next
		next++
		return idx
	}

	thisIdx := classRef(thisName)
	var superIdx uint16
	if superName != "" {
		superIdx = classRef(superName)
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
	w(next)
	buf.Write(cpBuf.Bytes())
	w(uint16(classfile.AccPublic | classfile.AccSuper))
	w(thisIdx)
	w(superIdx)
	w(uint16(0)) // interfaces
	w(uint16(0)) // fields
	w(uint16(0)) // methods
	w(uint16(0)) // class attributes
	return buf.Bytes()
}

// newTestEngine builds an Engine with java/lang/Object and every JVM
// exception/runtime class this package's natives can raise or build
// already loadable, so raise() and fillInStackTrace's StackTraceElement
// allocation never fail on a missing classfile.
func newTestEngine(t *testing.T) (*interpreter.Engine, *classnames.Registry, *memLoader) {
	t.Helper()
	names := classnames.NewRegistry()
	loader := newMemLoader()
	loader.byName["java/lang/Object"] = buildEmptyClass(t, "java/lang/Object", "")
	for _, cls := range []string{
		"java/lang/NullPointerException",
		"java/lang/ClassCastException",
		"java/lang/ArrayStoreException",
		"java/lang/ArrayIndexOutOfBoundsException",
		"java/io/UnsupportedEncodingException",
		"java/lang/StackTraceElement",
		"java/lang/Throwable",
	} {
		loader.byName[cls] = buildEmptyClass(t, cls, "java/lang/Object")
	}
	reg := classloader.NewRegistry(names, loader)
	e := interpreter.New(heap.New(), reg, names)
	return e, names, loader
}

// newJavaString allocates a java/lang/String instance carrying s and
// returns it in the interface{} form a native argument/receiver slot
// holds.
func newJavaString(e *interpreter.Engine, s string) interface{} {
	return allocString(e, s)
}
