/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/fieldid"
)

// Overrides computes (and caches) the override set of method methodIndex
// in classID: either empty, or a single-element slice naming the nearest
// overridden ancestor method.
//
// A private or static method cannot override anything. Otherwise the
// super chain is walked looking for a same-name, same-descriptor method
// that is accessible (public/protected, or package-private in the same
// package); the first such match that is not final is the target, and the
// walk stops there whether or not a target was found (a final match
// blocks any further search).
func (r *Registry) Overrides(classID classnames.ClassId, methodIndex uint32) ([]fieldid.MethodId, error) {
	c, ok := r.Class(classID)
	if !ok {
		return nil, nil
	}
	m := &c.Methods[methodIndex]
	if m.overridden {
		return m.overrides, nil
	}
	m.overridden = true

	if m.AccessFlags&classfile.AccPrivate != 0 || m.AccessFlags&classfile.AccStatic != 0 {
		return nil, nil
	}
	if !c.HasSuper {
		return nil, nil
	}

	myPackage := c.PackageID
	cur := c.SuperID
	for {
		if err := r.LoadClass(cur); err != nil {
			return nil, err
		}
		ancestor, ok := r.Class(cur)
		if !ok {
			break
		}

		for i := range ancestor.Methods {
			cand := &ancestor.Methods[i]
			if cand.Name != m.Name || cand.Descriptor != m.Descriptor {
				continue
			}
			accessible := cand.AccessFlags&(classfile.AccPublic|classfile.AccProtected) != 0 ||
				ancestor.PackageID == myPackage
			if !accessible {
				continue
			}
			if cand.AccessFlags&classfile.AccFinal != 0 {
				return nil, nil
			}
			m.overrides = []fieldid.MethodId{MethodID(cur, uint32(i))}
			return m.overrides, nil
		}

		if !ancestor.HasSuper {
			break
		}
		cur = ancestor.SuperID
	}

	return nil, nil
}
