/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
)

// classInstanceOf narrows any heap-resident Instance that embeds
// *object.ClassInstance back to it, the common ground every field-bearing
// variant shares.
func classInstanceOf(inst object.Instance) (*object.ClassInstance, bool) {
	switch v := inst.(type) {
	case *object.ClassInstance:
		return v, true
	case *object.StaticFormInstance:
		return v.ClassInstance, true
	case *object.ThreadInstance:
		return v.ClassInstance, true
	case *object.MethodHandleInstance:
		return v.ClassInstance, true
	case *object.MethodHandleInfoInstance:
		return v.ClassInstance, true
	default:
		return nil, false
	}
}

// newInstance allocates a fresh, zero-filled instance of classID: every
// declared instance field on classID and its ancestors defaults for its
// type, and StaticRef points at classID's (now-initialized) static data.
//
// Its three return values mirror arrayStore's: inst is the allocated
// object on ordinary success; exc is a live, catchable exception object
// the caller must throw in inst's place (currently only
// InstantiationError, raised instead of allocating when classID names an
// abstract class or an interface — new never reaches the allocator for
// either); err is a non-catchable failure (missing class data, a bad
// descriptor) that should abort the call outright. At most one of exc and
// err is ever set alongside a nil inst.
func (e *Engine) newInstance(classID classnames.ClassId) (inst heap.GcRef[object.Instance], exc heap.GcRef[object.Instance], err error) {
	staticRef, err := e.InitClass(classID)
	if err != nil {
		return heap.NilRef[object.Instance](), heap.NilRef[object.Instance](), err
	}

	if c, ok := e.Registry.Class(classID); ok && c.AccessFlags&(classfile.AccAbstract|classfile.AccInterface) != 0 {
		excRef, err := e.newManagedException(excNames.InstantiationError)
		return heap.NilRef[object.Instance](), excRef, err
	}

	obj := object.NewClassInstance(classID, nameOf(e.Names, classID), staticRef)

	it := e.Registry.NewSuperClassIter(classID)
	for {
		cur, ok, err := it.NextItem()
		if err != nil {
			return heap.NilRef[object.Instance](), heap.NilRef[object.Instance](), err
		}
		if !ok {
			break
		}
		c, ok := e.Registry.Class(cur)
		if !ok || c.File == nil {
			continue
		}
		for _, fi := range c.File.Fields {
			if fi.AccessFlags&classfile.AccStatic != 0 {
				continue
			}
			if _, exists := obj.FieldTable[object.FieldId(fi.Name)]; exists {
				continue
			}
			rt, err := classloader.ParseFieldDescriptor(fi.Descriptor, e.Names)
			if err != nil {
				return heap.NilRef[object.Instance](), heap.NilRef[object.Instance](), err
			}
			obj.FieldTable[object.FieldId(fi.Name)] = object.Field{Ftype: fi.Descriptor, Fvalue: defaultFieldValue(rt)}
		}
	}

	ref := heap.Alloc[object.Instance](e.Gc, obj, 0)
	return ref, heap.NilRef[object.Instance](), nil
}

// findFieldOwner walks declaringID's super chain for the nearest class
// that actually declares fieldName, since the field ref at a call site may
// name an inherited field.
func (e *Engine) findFieldOwner(declaringID classnames.ClassId, fieldName string) (classnames.ClassId, error) {
	it := e.Registry.NewSuperClassIter(declaringID)
	for {
		cur, ok, err := it.NextItem()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, except.New(except.MissingField, "no field %s found from %d", fieldName, declaringID)
		}
		c, ok := e.Registry.Class(cur)
		if !ok || c.File == nil {
			continue
		}
		for _, fi := range c.File.Fields {
			if fi.Name == fieldName {
				return cur, nil
			}
		}
	}
}

// getInstanceField / putInstanceField read and write one field of a
// ClassInstance-backed heap object, given its simple name.
func (e *Engine) getInstanceField(ref heap.GcRef[object.Instance], name string) (interface{}, error) {
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		return nil, except.New(except.BadGcRef, "dangling instance reference")
	}
	ci, ok := classInstanceOf(inst)
	if !ok {
		return nil, except.New(except.MissingField, "instance has no field table")
	}
	f, ok := ci.FieldTable[object.FieldId(name)]
	if !ok {
		return nil, except.New(except.MissingField, "no field %q on instance", name)
	}
	return f.Fvalue, nil
}

func (e *Engine) putInstanceField(ref heap.GcRef[object.Instance], name, descriptor string, value interface{}) error {
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		return except.New(except.BadGcRef, "dangling instance reference")
	}
	ci, ok := classInstanceOf(inst)
	if !ok {
		return except.New(except.MissingField, "instance has no field table")
	}
	ci.FieldTable[object.FieldId(name)] = object.Field{Ftype: descriptor, Fvalue: value}
	return nil
}

// getStaticField / putStaticField are the same, but against classID's
// StaticClassInstance (running its init barrier first if needed).
func (e *Engine) getStaticField(classID classnames.ClassId, name string) (interface{}, error) {
	staticRef, err := e.InitClass(classID)
	if err != nil {
		return nil, err
	}
	sci, ok := heap.Deref(e.Gc, staticRef)
	if !ok {
		return nil, except.New(except.BadGcRef, "dangling static instance reference")
	}
	f, ok := sci.Fields[object.FieldId(name)]
	if !ok {
		return nil, except.New(except.MissingField, "no static field %q on class %d", name, classID)
	}
	return f.Fvalue, nil
}

func (e *Engine) putStaticField(classID classnames.ClassId, name, descriptor string, value interface{}) error {
	staticRef, err := e.InitClass(classID)
	if err != nil {
		return err
	}
	sci, ok := heap.Deref(e.Gc, staticRef)
	if !ok {
		return except.New(except.BadGcRef, "dangling static instance reference")
	}
	sci.Fields[object.FieldId(name)] = object.Field{Ftype: descriptor, Fvalue: value}
	return nil
}
