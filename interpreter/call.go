/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/fieldid"
)

// cpRefParts is the (class name, member name, descriptor) a Field/Method/
// InterfaceMethod constant-pool entry resolves to, before the class name
// is interned to a ClassId.
type cpRefParts struct {
	className  string
	memberName string
	descriptor string
}

func resolveNameAndType(cf *classfile.ClassFile, natIndex int) (string, string, error) {
	if natIndex <= 0 || natIndex >= len(cf.CP.CpIndex) {
		return "", "", except.New(except.InvalidConstantPoolIndex, "bad NameAndType index %d", natIndex)
	}
	e := cf.CP.CpIndex[natIndex]
	if e.Tag != classfile.TagNameAndType {
		return "", "", except.New(except.InvalidConstantPoolIndex, "index %d is not a NameAndType", natIndex)
	}
	nat := cf.CP.NameAndTypes[e.Slot]
	name, ok := cf.GetUtf8(nat.NameIndex)
	if !ok {
		return "", "", except.New(except.InvalidConstantPoolIndex, "NameAndType name index %d unresolved", nat.NameIndex)
	}
	desc, ok := cf.GetUtf8(nat.DescIndex)
	if !ok {
		return "", "", except.New(except.InvalidConstantPoolIndex, "NameAndType descriptor index %d unresolved", nat.DescIndex)
	}
	return name, desc, nil
}

func resolveMethodRef(cf *classfile.ClassFile, cpIndex int) (cpRefParts, bool, error) {
	if cpIndex <= 0 || cpIndex >= len(cf.CP.CpIndex) {
		return cpRefParts{}, false, except.New(except.InvalidConstantPoolIndex, "bad method ref index %d", cpIndex)
	}
	e := cf.CP.CpIndex[cpIndex]
	var classIndex, natIndex int
	var isInterface bool
	switch e.Tag {
	case classfile.TagMethodRef:
		mr := cf.CP.MethodRefs[e.Slot]
		classIndex, natIndex = mr.ClassIndex, mr.NameAndType
	case classfile.TagInterfaceMethodRef:
		ir := cf.CP.InterfaceRefs[e.Slot]
		classIndex, natIndex = ir.ClassIndex, ir.NameAndType
		isInterface = true
	default:
		return cpRefParts{}, false, except.New(except.InvalidConstantPoolIndex, "index %d is not a method ref", cpIndex)
	}
	className, ok := cf.GetClassName(classIndex)
	if !ok {
		return cpRefParts{}, false, except.New(except.InvalidConstantPoolIndex, "method ref class index %d unresolved", classIndex)
	}
	name, desc, err := resolveNameAndType(cf, natIndex)
	if err != nil {
		return cpRefParts{}, false, err
	}
	return cpRefParts{className: className, memberName: name, descriptor: desc}, isInterface, nil
}

func resolveFieldRef(cf *classfile.ClassFile, cpIndex int) (cpRefParts, error) {
	if cpIndex <= 0 || cpIndex >= len(cf.CP.CpIndex) {
		return cpRefParts{}, except.New(except.InvalidConstantPoolIndex, "bad field ref index %d", cpIndex)
	}
	e := cf.CP.CpIndex[cpIndex]
	if e.Tag != classfile.TagFieldRef {
		return cpRefParts{}, except.New(except.InvalidConstantPoolIndex, "index %d is not a field ref", cpIndex)
	}
	fr := cf.CP.FieldRefs[e.Slot]
	className, ok := cf.GetClassName(fr.ClassIndex)
	if !ok {
		return cpRefParts{}, except.New(except.InvalidConstantPoolIndex, "field ref class index %d unresolved", fr.ClassIndex)
	}
	name, desc, err := resolveNameAndType(cf, fr.NameAndType)
	if err != nil {
		return cpRefParts{}, err
	}
	return cpRefParts{className: className, memberName: name, descriptor: desc}, nil
}

// ResolveStatic and ResolveSpecial both resolve to a method declared on
// exactly the named class: no virtual dispatch.
func (e *Engine) ResolveStatic(classID classnames.ClassId, name, desc string) (fieldid.MethodId, error) {
	if err := e.Registry.LoadClass(classID); err != nil {
		return 0, err
	}
	_, idx, err := e.Registry.LoadMethodByDesc(classID, name, desc)
	if err != nil {
		return 0, err
	}
	return classloader.MethodID(classID, idx), nil
}

// ResolveSpecial is ResolveStatic under another name: invokespecial uses
// identical (class, name, desc) resolution, just against a different set
// of call sites (<init>, private methods, super.m()).
func (e *Engine) ResolveSpecial(classID classnames.ClassId, name, desc string) (fieldid.MethodId, error) {
	return e.ResolveStatic(classID, name, desc)
}

// ResolveVirtual resolves the declared (class, name, desc) first (to
// confirm the call site is well-formed), then walks from receiverID's own
// class up its super chain for the first matching, non-private method —
// the first hit is always the most-derived override in scope.
func (e *Engine) ResolveVirtual(declaredClassID classnames.ClassId, name, desc string, receiverID classnames.ClassId) (fieldid.MethodId, error) {
	if err := e.Registry.LoadClass(declaredClassID); err != nil {
		return 0, err
	}
	if _, _, err := e.Registry.LoadMethodByDesc(declaredClassID, name, desc); err != nil {
		return 0, err
	}
	if id, ok, err := e.findInClassChain(receiverID, name, desc); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	return 0, except.New(except.MissingMethod, "no virtual override of %s%s found from %d", name, desc, receiverID)
}

// ResolveInterface resolves like ResolveVirtual, additionally falling back
// to a default (non-abstract) method found by searching the receiver's
// implemented interfaces when no class in the chain declares it.
func (e *Engine) ResolveInterface(ifaceClassID classnames.ClassId, name, desc string, receiverID classnames.ClassId) (fieldid.MethodId, error) {
	if id, ok, err := e.findInClassChain(receiverID, name, desc); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	if id, ok, err := e.findDefaultMethod(receiverID, name, desc); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	return 0, except.New(except.MissingMethod, "no implementation of interface method %s%s found from %d", name, desc, receiverID)
}

// findInClassChain walks from classID up through its ancestors, returning
// the first (class, name, desc) match that isn't private or static.
func (e *Engine) findInClassChain(classID classnames.ClassId, name, desc string) (fieldid.MethodId, bool, error) {
	it := e.Registry.NewSuperClassIter(classID)
	for {
		cur, ok, err := it.NextItem()
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		c, ok := e.Registry.Class(cur)
		if !ok {
			continue
		}
		for i := range c.Methods {
			mi := &c.Methods[i]
			if mi.Name != name || mi.Descriptor != desc {
				continue
			}
			if mi.AccessFlags&classfile.AccPrivate != 0 || mi.AccessFlags&classfile.AccStatic != 0 {
				continue
			}
			return classloader.MethodID(cur, uint32(i)), true, nil
		}
	}
}

// findDefaultMethod recursively searches classID's declared interfaces
// (and their super-interfaces) for a non-abstract name+desc match.
func (e *Engine) findDefaultMethod(classID classnames.ClassId, name, desc string) (fieldid.MethodId, bool, error) {
	if err := e.Registry.LoadClass(classID); err != nil {
		return 0, false, err
	}
	c, ok := e.Registry.Class(classID)
	if !ok {
		return 0, false, nil
	}
	for _, iface := range c.Interfaces {
		if err := e.Registry.LoadClass(iface); err != nil {
			return 0, false, err
		}
		ic, ok := e.Registry.Class(iface)
		if !ok {
			continue
		}
		for i := range ic.Methods {
			mi := &ic.Methods[i]
			if mi.Name == name && mi.Descriptor == desc && mi.AccessFlags&classfile.AccAbstract == 0 {
				return classloader.MethodID(iface, uint32(i)), true, nil
			}
		}
		if id, ok, err := e.findDefaultMethod(iface, name, desc); err != nil {
			return 0, false, err
		} else if ok {
			return id, true, nil
		}
	}
	if c.HasSuper {
		return e.findDefaultMethod(c.SuperID, name, desc)
	}
	return 0, false, nil
}
