/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/fieldid"
)

// LoadMethodByIndex reads method methodIndex from classID's method table,
// parsing and caching its descriptor on first access.
func (r *Registry) LoadMethodByIndex(classID classnames.ClassId, methodIndex uint32) (*Method, error) {
	c, ok := r.Class(classID)
	if !ok {
		return nil, except.New(except.BadClassId, "class %d not loaded", classID)
	}
	if int(methodIndex) >= len(c.Methods) {
		return nil, except.New(except.MissingMethod, "method index %d out of range in class %d", methodIndex, classID)
	}
	m := &c.Methods[methodIndex]
	if m.parsed == nil {
		md, err := ParseMethodDescriptor(m.Descriptor, r.Names)
		if err != nil {
			return nil, err
		}
		m.parsed = &md
	}
	return m, nil
}

// LoadMethodByDesc linearly scans classID's own method table for an exact
// name+descriptor match.
func (r *Registry) LoadMethodByDesc(classID classnames.ClassId, name, descriptor string) (*Method, uint32, error) {
	c, ok := r.Class(classID)
	if !ok {
		return nil, 0, except.New(except.BadClassId, "class %d not loaded", classID)
	}
	for i := range c.Methods {
		if c.Methods[i].Name == name && c.Methods[i].Descriptor == descriptor {
			m, err := r.LoadMethodByIndex(classID, uint32(i))
			return m, uint32(i), err
		}
	}
	return nil, 0, except.New(except.MissingMethod, "no method %s%s in class %d", name, descriptor, classID)
}

// MethodID packs (classID, methodIndex) into the handle used elsewhere to
// refer to a resolved method.
func MethodID(classID classnames.ClassId, methodIndex uint32) fieldid.MethodId {
	return fieldid.ComposeMethod(uint32(classID), methodIndex)
}
