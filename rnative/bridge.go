/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

import (
	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
)

// NativeFunc is the shape every internal native replacement implements:
// this is nil for a static method, args holds one entry per declared
// parameter (using the same int64/float32/float64/GcRef-or-nil
// representation as an operand stack slot), and a returned *Thrown
// signals a managed Java exception rather than a native-layer failure.
type NativeFunc func(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error)

// Thrown wraps a managed exception a NativeFunc wants the calling method
// to see as if bytecode itself had thrown it, distinguishing that case
// from a genuine native-layer error.
type Thrown struct {
	Exc heap.GcRef[object.Instance]
}

func (t *Thrown) Error() string { return "native call threw a managed exception" }

// Bridge implements interpreter.NativeDispatcher. It owns the internal
// replacement table, the memory-block store Unsafe's native methods read
// and write through, and the loaded-library fallback.
type Bridge struct {
	MemBlocks *MemoryBlocks
	table     map[string]NativeFunc
	libs      *libraries
	pinned    []uint32
}

// NewBridge creates an empty bridge. Callers register replacements with
// Register before wiring it to an Engine.
func NewBridge() *Bridge {
	return &Bridge{
		MemBlocks: NewMemoryBlocks(),
		table:     make(map[string]NativeFunc),
		libs:      newLibraries(),
	}
}

// Register adds an internal replacement for className's methodName, keyed
// by its JNI-mangled symbol exactly as §4.G's resolution order looks it
// up. Two distinct overloads that mangle to the same symbol collide here
// the same way they would in a real JNI implementation that never
// RegisterNatives-es the long form; rho's native surface is small enough
// that no registered pair does.
func (br *Bridge) Register(className, methodName string, fn NativeFunc) {
	br.table[MangleMethodName(className, methodName)] = fn
}

// AddLibraryDir makes dir a search root for the loaded-shared-library
// fallback (step 3 of native resolution).
func (br *Bridge) AddLibraryDir(dir string) {
	br.libs.addDir(dir)
}

// CallNative implements interpreter.NativeDispatcher.
func (br *Bridge) CallNative(e *interpreter.Engine, classID classnames.ClassId, m *classloader.Method, f *frames.Frame) (interpreter.MethodResult, error) {
	md, err := classloader.ParseMethodDescriptor(m.Descriptor, e.Names)
	if err != nil {
		return interpreter.MethodResult{}, err
	}

	className, _, err := e.Names.NameFromId(classID)
	if err != nil {
		return interpreter.MethodResult{}, err
	}
	symbol := MangleMethodName(className, m.Name)

	fn, ok := br.table[symbol]
	if !ok {
		fn, ok = br.libs.lookup(symbol)
	}
	if !ok {
		exc, excErr := e.NewManagedException(excNames.UnsatisfiedLinkError)
		if excErr != nil {
			return interpreter.MethodResult{}, excErr
		}
		return interpreter.MethodResult{Threw: true, Exc: exc}, nil
	}

	isStatic := m.AccessFlags&classfile.AccStatic != 0
	this, args := br.marshalArgs(f, md, isStatic)

	root := br.pinArgs(this, args)
	defer br.unpin(root)

	result, err := fn(e, this, args)
	if err != nil {
		if thrown, ok := err.(*Thrown); ok {
			return interpreter.MethodResult{Threw: true, Exc: thrown.Exc}, nil
		}
		return interpreter.MethodResult{}, except.New(except.NativeCallFailed, "native call %s failed: %v", symbol, err)
	}
	if md.IsVoidReturn {
		return interpreter.MethodResult{Void: true}, nil
	}
	return interpreter.MethodResult{Value: result}, nil
}

// marshalArgs reads this (for an instance method) and one value per
// declared parameter out of f's locals, mirroring stepInvoke's slot-width
// bookkeeping: a category-2 parameter occupies two local slots but
// contributes exactly one argument.
func (br *Bridge) marshalArgs(f *frames.Frame, md classloader.MethodDescriptor, isStatic bool) (this interface{}, args []interface{}) {
	slot := 0
	if !isStatic {
		this = f.Locals[slot]
		slot++
	}
	args = make([]interface{}, len(md.Params))
	for i, p := range md.Params {
		args[i] = f.Locals[slot]
		if !p.IsClass && p.Primitive.IsCategory2() {
			slot += 2
		} else {
			slot++
		}
	}
	return this, args
}

// pinArgs records every reference among this/args as a GC root for the
// duration of the call, returning how many were appended so unpin can
// trim exactly those back off.
func (br *Bridge) pinArgs(this interface{}, args []interface{}) int {
	n := 0
	pin := func(v interface{}) {
		if ref, ok := v.(heap.GcRef[object.Instance]); ok && !ref.IsNil() {
			br.pinned = append(br.pinned, ref.Index())
			n++
		}
	}
	pin(this)
	for _, a := range args {
		pin(a)
	}
	return n
}

func (br *Bridge) unpin(n int) {
	br.pinned = br.pinned[:len(br.pinned)-n]
}

// PinnedRoots reports the local references a native call currently in
// progress has pinned, for a GC root builder to fold in alongside the
// frame stack's own roots.
func (br *Bridge) PinnedRoots() []uint32 {
	return br.pinned
}
