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
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/object"
)

// NativeDispatcher bridges a native-flagged method to its host
// implementation. The interpreter never imports the native bridge or
// gfunction packages directly — they import Engine instead and register
// themselves here, the same decoupling heap.Traceable gives the
// heap/object pair.
type NativeDispatcher interface {
	CallNative(e *Engine, classID classnames.ClassId, m *classloader.Method, f *frames.Frame) (MethodResult, error)
}

// Engine owns every subsystem one running program shares: the heap, the
// class registry, and the call stack. A single Engine is not safe for
// concurrent use by more than one Java thread; §4's "ThreadInstance"
// bookkeeping is the caller's responsibility to serialize or replicate.
type Engine struct {
	Gc       *heap.Gc
	Registry *classloader.Registry
	Names    *classnames.Registry
	Stack    *frames.Stack
	Natives  NativeDispatcher

	statics map[classnames.ClassId]heap.GcRef[*object.StaticClassInstance]
}

// New wires an Engine to an already-constructed heap and class registry.
func New(gc *heap.Gc, registry *classloader.Registry, names *classnames.Registry) *Engine {
	return &Engine{
		Gc:       gc,
		Registry: registry,
		Names:    names,
		Stack:    frames.NewStack(),
		statics:  make(map[classnames.ClassId]heap.GcRef[*object.StaticClassInstance]),
	}
}

// EvalMethod runs methodID to completion in frame f, which the caller has
// already sized and loaded with its arguments (including the receiver in
// local 0 for an instance method).
func (e *Engine) EvalMethod(methodID fieldid.MethodId, f *frames.Frame) (MethodResult, error) {
	classID, methodIndex := methodID.Decompose()
	if err := e.Registry.LoadClass(classID); err != nil {
		return MethodResult{}, err
	}
	if _, err := e.InitClass(classID); err != nil {
		return MethodResult{}, err
	}

	m, err := e.Registry.LoadMethodByIndex(classID, methodIndex)
	if err != nil {
		return MethodResult{}, err
	}

	if m.AccessFlags&classfile.AccNative != 0 {
		if e.Natives == nil {
			return MethodResult{}, except.New(except.MissingMethod, "native method %s has no registered dispatcher", m.Name)
		}
		return e.Natives.CallNative(e, classID, m, f)
	}
	if m.Code == nil {
		return MethodResult{}, except.New(except.MissingMethod, "method %s has neither a Code attribute nor the native flag", m.Name)
	}

	cls, _ := e.Registry.Class(classID)

	e.Stack.PushFrame(f)
	defer e.Stack.PopFrame()

	for {
		res, err := e.step(f, cls, m)
		if err != nil {
			return MethodResult{}, err
		}
		switch res.kind {
		case stepContinue:
			continue
		case stepReturnVoid:
			return MethodResult{Void: true}, nil
		case stepReturn:
			return MethodResult{Value: res.value}, nil
		case stepException:
			handlerPC, matched, err := e.dispatchException(f, cls, m.Code, res.exc)
			if err != nil {
				return MethodResult{}, err
			}
			if matched {
				f.TOS = -1
				f.Push(res.exc)
				f.PC = handlerPC
				continue
			}
			return MethodResult{Threw: true, Exc: res.exc}, nil
		}
	}
}

// exceptionClassOf resolves the runtime ClassId of a heap-allocated
// exception reference, used both for exception-table matching and by
// callers building a managed exception from scratch.
func (e *Engine) exceptionClassOf(ref heap.GcRef[object.Instance]) (classnames.ClassId, error) {
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		return 0, except.New(except.BadGcRef, "dangling exception reference")
	}
	return inst.InstanceOf(), nil
}
