/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/types"
)

// CheckCast reports whether a reference of runtime class a may be cast to
// target class t, following the five cases in order: identity, array vs.
// array, array vs. interface/Object, class vs. interface, and ordinary
// class extension.
func (e *Engine) CheckCast(a, t classnames.ClassId) (bool, error) {
	if a == t {
		return true, nil
	}
	if err := e.Registry.LoadClass(a); err != nil {
		return false, err
	}
	if err := e.Registry.LoadClass(t); err != nil {
		return false, err
	}
	_, aInfo, err := e.Names.NameFromId(a)
	if err != nil {
		return false, err
	}
	_, tInfo, err := e.Names.NameFromId(t)
	if err != nil {
		return false, err
	}

	if aInfo.IsArray && tInfo.IsArray {
		return e.Registry.IsCastableArray(a, t)
	}
	if aInfo.IsArray {
		if t == e.Names.ObjectId() {
			return true, nil
		}
		if tInfo.IsArray {
			return false, nil
		}
		tName, _, err := e.Names.NameFromId(t)
		if err != nil {
			return false, err
		}
		return tName == types.CloneableIface || tName == types.SerializableIface, nil
	}

	tClass, ok := e.Registry.Class(t)
	if ok && tClass.AccessFlags&classfile.AccInterface != 0 {
		return e.Registry.ImplementsInterface(a, t)
	}
	return e.Registry.IsSuperClass(a, t)
}

// IsInstance is instanceof's check: a null reference is never an instance
// of anything.
func (e *Engine) IsInstance(runtimeClass classnames.ClassId, hasValue bool, t classnames.ClassId) (bool, error) {
	if !hasValue {
		return false, nil
	}
	return e.CheckCast(runtimeClass, t)
}
