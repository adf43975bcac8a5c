/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object defines the heap-resident instance variants: class
// instances and their field tables, arrays, and the handful of classes
// (Class, Thread, MethodHandle) the runtime treats specially. Every
// variant implements heap.Traceable so the collector can trace it without
// this package and heap needing to know about each other's types.
package object

import (
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/fieldid"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/types"
)

// FieldId names one slot in a Fields table. It is the field's simple name,
// not the (ClassId, index) long encoding fieldid.EncodeField produces for
// Unsafe.objectFieldOffset — that encoding is derived on demand from a
// class's declared field order, not stored per-instance.
type FieldId string

// Field is one field slot: its descriptor tag and current value. Fvalue
// holds a primitive field's value in the operand-stack form (int64 for
// every integral or boolean type, float32 for float, float64 for double),
// []byte for byte-array-backed fields such as
// java/lang/String's compact "value", or heap.GcRef[Instance] for any
// reference field (narrower typing is recovered from the field's declared
// descriptor at access time, same as the stack-map verifier's slots).
type Field struct {
	Ftype  string
	Fvalue interface{}
}

// Fields is a class or class-instance's field table, keyed by simple name.
type Fields map[FieldId]Field

// Instance is implemented by every heap-resident variant.
type Instance interface {
	heap.Traceable
	InstanceOf() classnames.ClassId
}

// visitFieldRefs calls visit for every field in fields whose value is a
// live reference, the common body of VisitRefs across every variant that
// owns a Fields table.
func visitFieldRefs(fields Fields, visit func(uint32)) {
	for _, f := range fields {
		if ref, ok := f.Fvalue.(heap.GcRef[Instance]); ok && !ref.IsNil() {
			visit(ref.Index())
		}
	}
}

// ClassInstance is an instance of an ordinary Java class.
type ClassInstance struct {
	// Klass is the instance's class name, kept for display and for the
	// native bridge's class-name-keyed dispatch; InstanceOfId is the
	// authoritative ClassId used by every relation/verifier check.
	Klass        *string
	InstanceOfId classnames.ClassId
	StaticRef    heap.GcRef[*StaticClassInstance]
	FieldTable   Fields
}

// NewClassInstance builds an empty instance of the named class.
func NewClassInstance(id classnames.ClassId, name string, staticRef heap.GcRef[*StaticClassInstance]) *ClassInstance {
	return &ClassInstance{
		Klass:        &name,
		InstanceOfId: id,
		StaticRef:    staticRef,
		FieldTable:   Fields{},
	}
}

func (c *ClassInstance) InstanceOf() classnames.ClassId { return c.InstanceOfId }

func (c *ClassInstance) VisitRefs(visit func(uint32)) {
	visitFieldRefs(c.FieldTable, visit)
	if !c.StaticRef.IsNil() {
		visit(c.StaticRef.Index())
	}
}

// StaticFormInstance is an instance of java/lang/Class: the runtime's
// reified handle to a type.
type StaticFormInstance struct {
	*ClassInstance
	// Of is the type this Class<T> represents: a primitive tag, void, or
	// a ClassId (types.RuntimeType already covers that sum).
	Of types.RuntimeType
}

func NewStaticFormInstance(inner *ClassInstance, of types.RuntimeType) *StaticFormInstance {
	return &StaticFormInstance{ClassInstance: inner, Of: of}
}

func (s *StaticFormInstance) VisitRefs(visit func(uint32)) {
	s.ClassInstance.VisitRefs(visit)
	// Of only carries outgoing heap references when it names a class; the
	// class graph itself is walked through classnames/classloader, not the
	// heap, so there is nothing further to mark here.
}

// ThreadInstance is an instance of java/lang/Thread.
type ThreadInstance struct {
	*ClassInstance
	ThreadID    uint64
	HasThreadID bool
}

func NewThreadInstance(inner *ClassInstance) *ThreadInstance {
	return &ThreadInstance{ClassInstance: inner}
}

// FillThreadID records the OS/runtime thread id once the thread starts
// running, without checking whether one was already set.
func (t *ThreadInstance) FillThreadID(id uint64) {
	t.ThreadID = id
	t.HasThreadID = true
}

// MethodHandleKind distinguishes a MethodHandle's two supported forms.
type MethodHandleKind int

const (
	// MethodHandleConstant wraps a fixed value of a declared return type.
	MethodHandleConstant MethodHandleKind = iota
	// MethodHandleInvokeStatic directly targets a static method.
	MethodHandleInvokeStatic
)

// MethodHandleInstance is an instance of java/lang/invoke/MethodHandle.
// User code cannot subclass MethodHandle, so the runtime's own variants
// are exhaustive.
type MethodHandleInstance struct {
	*ClassInstance
	Kind MethodHandleKind

	// Populated when Kind == MethodHandleConstant.
	ConstantValue    heap.GcRef[Instance]
	ConstantReturnTy types.RuntimeType

	// Populated when Kind == MethodHandleInvokeStatic.
	StaticTarget fieldid.MethodId

	// MethodTypeRef is the handle's MethodType once one has been set. No
	// code in rho assigns it, so it stays nil unless a caller sets it;
	// VisitRefs traces it when it is non-nil.
	MethodTypeRef heap.GcRef[*ClassInstance]
}

func NewConstantMethodHandle(inner *ClassInstance, value heap.GcRef[Instance], returnTy types.RuntimeType) *MethodHandleInstance {
	return &MethodHandleInstance{ClassInstance: inner, Kind: MethodHandleConstant, ConstantValue: value, ConstantReturnTy: returnTy}
}

func NewInvokeStaticMethodHandle(inner *ClassInstance, target fieldid.MethodId) *MethodHandleInstance {
	return &MethodHandleInstance{ClassInstance: inner, Kind: MethodHandleInvokeStatic, StaticTarget: target}
}

func (m *MethodHandleInstance) VisitRefs(visit func(uint32)) {
	m.ClassInstance.VisitRefs(visit)
	if m.Kind == MethodHandleConstant && !m.ConstantValue.IsNil() {
		visit(m.ConstantValue.Index())
	}
	if !m.MethodTypeRef.IsNil() {
		visit(m.MethodTypeRef.Index())
	}
}

// MethodHandleInfoInstance is an instance of rho's MethodHandleInfo
// implementation, wrapping the MethodHandle it describes.
type MethodHandleInfoInstance struct {
	*ClassInstance
	MethodHandleRef heap.GcRef[*MethodHandleInstance]
}

func NewMethodHandleInfoInstance(inner *ClassInstance, handle heap.GcRef[*MethodHandleInstance]) *MethodHandleInfoInstance {
	return &MethodHandleInfoInstance{ClassInstance: inner, MethodHandleRef: handle}
}

func (m *MethodHandleInfoInstance) VisitRefs(visit func(uint32)) {
	m.ClassInstance.VisitRefs(visit)
	if !m.MethodHandleRef.IsNil() {
		visit(m.MethodHandleRef.Index())
	}
}

// PrimitiveArrayInstance is an array whose components are a JVM primitive
// type. Elements hold each value in the interpreter's operand-stack form
// (int64 for every integral or boolean component, float32 for float,
// float64 for double); ElementType records the narrower component type.
type PrimitiveArrayInstance struct {
	InstanceOfId classnames.ClassId
	ElementType  types.PrimitiveTag
	Elements     []interface{}
}

func NewPrimitiveArrayInstance(id classnames.ClassId, elem types.PrimitiveTag, elements []interface{}) *PrimitiveArrayInstance {
	return &PrimitiveArrayInstance{InstanceOfId: id, ElementType: elem, Elements: elements}
}

func (p *PrimitiveArrayInstance) InstanceOf() classnames.ClassId { return p.InstanceOfId }
func (p *PrimitiveArrayInstance) Len() int32                     { return int32(len(p.Elements)) }
func (p *PrimitiveArrayInstance) VisitRefs(func(uint32))         {}

// ReferenceArrayInstance is an array of object references. A nil GcRef
// entry is a null element.
type ReferenceArrayInstance struct {
	InstanceOfId classnames.ClassId
	ElementType  classnames.ClassId
	Elements     []heap.GcRef[Instance]
}

func NewReferenceArrayInstance(id, elemType classnames.ClassId, elements []heap.GcRef[Instance]) *ReferenceArrayInstance {
	return &ReferenceArrayInstance{InstanceOfId: id, ElementType: elemType, Elements: elements}
}

func (r *ReferenceArrayInstance) InstanceOf() classnames.ClassId { return r.InstanceOfId }
func (r *ReferenceArrayInstance) Len() int32                     { return int32(len(r.Elements)) }

func (r *ReferenceArrayInstance) VisitRefs(visit func(uint32)) {
	for _, e := range r.Elements {
		if !e.IsNil() {
			visit(e.Index())
		}
	}
}

// StaticClassInstance is the one-per-class record holding static field
// values, created the first time the interpreter hits that class's
// initialization barrier. Initialization progress itself lives on the
// owning classloader.Class record (its Init field already tracks
// NotStarted/Initializing/Initialized); this type only holds the data a
// class accumulates once that barrier starts.
type StaticClassInstance struct {
	Id     classnames.ClassId
	Fields Fields
	Form   heap.GcRef[*StaticFormInstance]
}

func NewStaticClassInstance(id classnames.ClassId) *StaticClassInstance {
	return &StaticClassInstance{Id: id, Fields: Fields{}}
}

func (s *StaticClassInstance) InstanceOf() classnames.ClassId { return s.Id }

func (s *StaticClassInstance) VisitRefs(visit func(uint32)) {
	// Statics' own reference fields are scanned; Form is runtime-only
	// bookkeeping and not itself a GC root (the StaticFormInstance, once
	// created, is kept alive by whoever holds a Class<T> reference to it).
	visitFieldRefs(s.Fields, visit)
}
