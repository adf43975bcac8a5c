/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/jacobin-run/rho/classnames"
)

// IsSuperClass reports whether b is a proper ancestor of a. It is not
// reflexive: IsSuperClass(a, a) is false, and callers that need
// assignability test equality first. An array's only super-class is
// Object.
func (r *Registry) IsSuperClass(a, b classnames.ClassId) (bool, error) {
	if err := r.LoadClass(a); err != nil {
		return false, err
	}
	_, info, err := r.Names.NameFromId(a)
	if err != nil {
		return false, err
	}
	if info.IsArray {
		return b == r.Names.ObjectId(), nil
	}

	c, ok := r.Class(a)
	if !ok {
		return false, nil
	}
	for c.HasSuper {
		if c.SuperID == b {
			return true, nil
		}
		if err := r.LoadClass(c.SuperID); err != nil {
			return false, err
		}
		next, ok := r.Class(c.SuperID)
		if !ok {
			return false, nil
		}
		c = next
	}
	return false, nil
}

var arrayInterfaceNames = []string{"java/lang/Cloneable", "java/io/Serializable"}

// ImplementsInterface reports whether a implements iface, directly or
// through any ancestor.
func (r *Registry) ImplementsInterface(a, iface classnames.ClassId) (bool, error) {
	_, info, err := r.Names.NameFromId(a)
	if err != nil {
		return false, err
	}
	if info.IsArray {
		ifaceName, _, err := r.Names.NameFromId(iface)
		if err != nil {
			return false, err
		}
		for _, n := range arrayInterfaceNames {
			if n == ifaceName {
				return true, nil
			}
		}
		return false, nil
	}

	if err := r.LoadClass(a); err != nil {
		return false, err
	}
	cur := a
	for {
		c, ok := r.Class(cur)
		if !ok {
			return false, nil
		}
		for _, di := range c.Interfaces {
			if di == iface {
				return true, nil
			}
			ok, err := r.ImplementsInterface(di, iface)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		if !c.HasSuper {
			return false, nil
		}
		cur = c.SuperID
		if err := r.LoadClass(cur); err != nil {
			return false, err
		}
	}
}

// IsCastableArray reports whether an array of type a can be cast to an
// array of type b: both must be array types, and their component types
// must be identical primitives or mutually castable reference types.
func (r *Registry) IsCastableArray(a, b classnames.ClassId) (bool, error) {
	_, aInfo, err := r.Names.NameFromId(a)
	if err != nil {
		return false, err
	}
	_, bInfo, err := r.Names.NameFromId(b)
	if err != nil {
		return false, err
	}
	if !aInfo.IsArray || !bInfo.IsArray {
		return false, nil
	}

	if err := r.LoadClass(a); err != nil {
		return false, err
	}
	if err := r.LoadClass(b); err != nil {
		return false, err
	}
	aArr, aOk := r.Array(a)
	bArr, bOk := r.Array(b)
	if !aOk || !bOk {
		return false, nil
	}

	if aArr.ComponentID == bArr.ComponentID {
		return true, nil
	}
	if aArr.IsPrimitive || bArr.IsPrimitive {
		return false, nil
	}

	_, compInfo, err := r.Names.NameFromId(aArr.ComponentID)
	if err != nil {
		return false, err
	}
	if compInfo.IsArray {
		return r.IsCastableArray(aArr.ComponentID, bArr.ComponentID)
	}

	if ok, err := r.IsSuperClass(aArr.ComponentID, bArr.ComponentID); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if ok, err := r.IsSuperClass(bArr.ComponentID, aArr.ComponentID); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if ok, err := r.ImplementsInterface(aArr.ComponentID, bArr.ComponentID); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	ok, err := r.ImplementsInterface(bArr.ComponentID, aArr.ComponentID)
	return ok, err
}
