/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/fieldid"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/types"
)

// classFormName is the class every StaticFormInstance reifies as a
// java/lang/Class instance.
const classFormName = "java/lang/Class"

// InitClass runs id's class-initialization barrier to completion,
// returning the class's StaticClassInstance once initialized (or
// immediately, if already Initialized or re-entrantly Initializing).
// Array classes have no static state or <clinit> and return a nil ref.
func (e *Engine) InitClass(id classnames.ClassId) (heap.GcRef[*object.StaticClassInstance], error) {
	if err := e.Registry.LoadClass(id); err != nil {
		return heap.NilRef[*object.StaticClassInstance](), err
	}
	cls, ok := e.Registry.Class(id)
	if !ok {
		// Array (or any class with no backing Class record): nothing to
		// initialize.
		return heap.NilRef[*object.StaticClassInstance](), nil
	}

	switch cls.Init {
	case classloader.Initialized:
		return e.statics[id], nil
	case classloader.Initializing:
		// Re-entrant: a <clinit> further up the call chain is already
		// running for this class. Treat it as initialized for this call.
		return e.statics[id], nil
	}
	cls.Init = classloader.Initializing

	if cls.HasSuper {
		if _, err := e.InitClass(cls.SuperID); err != nil {
			return heap.NilRef[*object.StaticClassInstance](), err
		}
	}

	staticInst := object.NewStaticClassInstance(id)
	staticRef := heap.Alloc[*object.StaticClassInstance](e.Gc, staticInst, 0)
	e.statics[id] = staticRef

	formClassID := e.Names.IdFromBytes([]byte(classFormName))
	formInner := object.NewClassInstance(formClassID, classFormName, heap.NilRef[*object.StaticClassInstance]())
	formInst := object.NewStaticFormInstance(formInner, types.ClassType(uint32(id)))
	formRef := heap.Alloc[*object.StaticFormInstance](e.Gc, formInst, 0)
	staticInst.Form = formRef

	if err := e.initStaticFields(id, cls, staticInst); err != nil {
		return heap.NilRef[*object.StaticClassInstance](), err
	}

	if _, methodIndex, err := e.Registry.LoadMethodByDesc(id, "<clinit>", "()V"); err == nil {
		f := frames.New(id, fieldid.ComposeMethod(uint32(id), methodIndex), nameOf(e.Names, id), "<clinit>", nil, 0, 0)
		m, mErr := e.Registry.LoadMethodByIndex(id, methodIndex)
		if mErr != nil {
			return heap.NilRef[*object.StaticClassInstance](), mErr
		}
		if m.Code != nil {
			f = frames.New(id, fieldid.ComposeMethod(uint32(id), methodIndex), nameOf(e.Names, id), "<clinit>", m.Code.Code, m.Code.MaxLocals, m.Code.MaxStack)
		}
		if _, err := e.EvalMethod(fieldid.ComposeMethod(uint32(id), methodIndex), f); err != nil {
			return heap.NilRef[*object.StaticClassInstance](), err
		}
	}

	cls.Init = classloader.Initialized
	return staticRef, nil
}

// initStaticFields populates every declared static field of cls with its
// ConstantValue attribute, or the zero value for its type if none was
// declared.
func (e *Engine) initStaticFields(id classnames.ClassId, cls *classloader.Class, staticInst *object.StaticClassInstance) error {
	if cls.File == nil {
		return nil
	}
	for _, fi := range cls.File.Fields {
		if fi.AccessFlags&classfile.AccStatic == 0 {
			continue
		}
		rt, err := classloader.ParseFieldDescriptor(fi.Descriptor, e.Names)
		if err != nil {
			return err
		}
		var value interface{}
		if fi.ConstValue != nil {
			value, err = e.constValueAsField(fi.ConstValue, rt)
			if err != nil {
				return err
			}
		} else {
			value = defaultFieldValue(rt)
		}
		staticInst.Fields[object.FieldId(fi.Name)] = object.Field{Ftype: fi.Descriptor, Fvalue: value}
	}
	return nil
}

// defaultFieldValue is the zero value for rt, in the same representation
// convention object.Field.Fvalue and frame operand-stack slots use
// throughout: every integral/boolean primitive widens to int64, Float to
// float32, Double to float64, and an uninitialized reference is a nil
// heap.GcRef[object.Instance] (represented as the untyped nil interface).
func defaultFieldValue(rt types.RuntimeType) interface{} {
	if rt.IsClass {
		return nil
	}
	switch rt.Primitive {
	case types.Float:
		return float32(0)
	case types.Double:
		return float64(0)
	default:
		return int64(0)
	}
}

// constValueAsField normalizes a classfile.FieldInfo.ConstValue (produced
// by the class-file parser straight from its constant-pool tag) into the
// field representation convention above.
func (e *Engine) constValueAsField(raw interface{}, rt types.RuntimeType) (interface{}, error) {
	switch v := raw.(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float32:
		return v, nil
	case float64:
		return v, nil
	case string:
		strInst := object.NewStringFromGoString(v)
		ref := heap.Alloc[object.Instance](e.Gc, strInst, len(v))
		return ref, nil
	default:
		return defaultFieldValue(rt), nil
	}
}

func nameOf(names *classnames.Registry, id classnames.ClassId) string {
	n, _, _ := names.NameFromId(id)
	return n
}
