/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"testing"

	"github.com/jacobin-run/rho/classfile"
)

func TestResolveStaticAndSpecial(t *testing.T) {
	te := newTestEngine(t)
	te.registerObject(t)

	cp := newCPBuilder()
	thisIdx := cp.classRef(t, "t/Util")
	methods := []methodSpec{
		{name: "answer", desc: "()I", flags: classfile.AccPublic | classfile.AccStatic,
			code: &codeSpec{maxStack: 1, maxLocals: 0, code: []byte{opIconst1, opIreturn}}},
	}
	te.Loader.byName["t/Util"] = buildClassFile(t, cp, thisIdx, te.objectClassRef(t, cp), classfile.AccPublic|classfile.AccSuper, nil, nil, methods)

	classID := te.Names.IdFromBytes([]byte("t/Util"))
	sID, err := te.Engine.ResolveStatic(classID, "answer", "()I")
	if err != nil {
		t.Fatalf("ResolveStatic: %v", err)
	}
	spID, err := te.Engine.ResolveSpecial(classID, "answer", "()I")
	if err != nil {
		t.Fatalf("ResolveSpecial: %v", err)
	}
	if sID != spID {
		t.Errorf("expected ResolveStatic and ResolveSpecial to agree, got %v vs %v", sID, spID)
	}

	if _, err := te.Engine.ResolveStatic(classID, "missing", "()I"); err == nil {
		t.Error("expected an error resolving a method that doesn't exist")
	}
}

func TestResolveVirtualPicksMostDerivedOverride(t *testing.T) {
	te := newTestEngine(t)
	te.registerObject(t)

	baseCP := newCPBuilder()
	baseThis := baseCP.classRef(t, "t/Base")
	baseMethods := []methodSpec{
		{name: "greet", desc: "()I", flags: classfile.AccPublic,
			code: &codeSpec{maxStack: 1, maxLocals: 1, code: []byte{opIconst1, opIreturn}}},
	}
	te.Loader.byName["t/Base"] = buildClassFile(t, baseCP, baseThis, te.objectClassRef(t, baseCP), classfile.AccPublic|classfile.AccSuper, nil, nil, baseMethods)

	subCP := newCPBuilder()
	subThis := subCP.classRef(t, "t/Sub")
	subSuper := subCP.classRef(t, "t/Base")
	subMethods := []methodSpec{
		{name: "greet", desc: "()I", flags: classfile.AccPublic,
			code: &codeSpec{maxStack: 1, maxLocals: 1, code: []byte{opIconst2, opIreturn}}},
	}
	te.Loader.byName["t/Sub"] = buildClassFile(t, subCP, subThis, subSuper, classfile.AccPublic|classfile.AccSuper, nil, nil, subMethods)

	baseID := te.Names.IdFromBytes([]byte("t/Base"))
	subID := te.Names.IdFromBytes([]byte("t/Sub"))

	onBase, err := te.Engine.ResolveVirtual(baseID, "greet", "()I", baseID)
	if err != nil {
		t.Fatalf("ResolveVirtual(base,base): %v", err)
	}
	onSub, err := te.Engine.ResolveVirtual(baseID, "greet", "()I", subID)
	if err != nil {
		t.Fatalf("ResolveVirtual(base,sub): %v", err)
	}
	if onBase == onSub {
		t.Error("expected dispatch against a Sub receiver to pick Sub's override, not Base's")
	}

	res := te.runMethod(t, onSub, []interface{}{nil}, false)
	if v, ok := res.Value.(int64); !ok || v != 2 {
		t.Errorf("expected Sub's override to return 2, got %v", res.Value)
	}
	res = te.runMethod(t, onBase, []interface{}{nil}, false)
	if v, ok := res.Value.(int64); !ok || v != 1 {
		t.Errorf("expected Base's own method to return 1, got %v", res.Value)
	}
}

func TestResolveInterfaceFallsBackToDefaultMethod(t *testing.T) {
	te := newTestEngine(t)
	te.registerObject(t)

	ifaceCP := newCPBuilder()
	ifaceThis := ifaceCP.classRef(t, "t/Greeter")
	ifaceMethods := []methodSpec{
		{name: "hello", desc: "()I", flags: classfile.AccPublic,
			code: &codeSpec{maxStack: 1, maxLocals: 1, code: []byte{opIconst3, opIreturn}}},
	}
	te.Loader.byName["t/Greeter"] = buildClassFile(t, ifaceCP, ifaceThis, te.objectClassRef(t, ifaceCP), classfile.AccPublic|classfile.AccInterface|classfile.AccAbstract, nil, nil, ifaceMethods)

	implCP := newCPBuilder()
	implThis := implCP.classRef(t, "t/Impl")
	implIface := implCP.classRef(t, "t/Greeter")
	te.Loader.byName["t/Impl"] = buildClassFile(t, implCP, implThis, te.objectClassRef(t, implCP), classfile.AccPublic|classfile.AccSuper, []uint16{implIface}, nil, nil)

	ifaceID := te.Names.IdFromBytes([]byte("t/Greeter"))
	implID := te.Names.IdFromBytes([]byte("t/Impl"))

	methodID, err := te.Engine.ResolveInterface(ifaceID, "hello", "()I", implID)
	if err != nil {
		t.Fatalf("ResolveInterface: %v", err)
	}
	res := te.runMethod(t, methodID, []interface{}{nil}, false)
	if v, ok := res.Value.(int64); !ok || v != 3 {
		t.Errorf("expected the default method's body to run and return 3, got %v", res.Value)
	}
}
