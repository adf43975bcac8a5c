/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader resolves ClassIds to loaded Class records, parses
// and caches method descriptors, computes override sets, and answers
// subtype/interface/array-castability queries.
package classloader

import (
	"bytes"
	"sync"

	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/fieldid"
)

// InitStatus tracks a class's progress through the <clinit> barrier (§4.F
// consumes this; the registry only stores and mutates it).
type InitStatus int

const (
	NotStarted InitStatus = iota
	Initializing
	Initialized
)

// Method is a lazily-parsed method entry: raw class-file data plus the
// descriptor's typed form, filled in the first time it's requested.
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags int
	Code        *classfile.CodeAttr

	parsed     *MethodDescriptor
	overrides  []fieldid.MethodId
	overridden bool
}

// Class is a loaded, not-yet-initialized-or-initializing class record.
type Class struct {
	ID          classnames.ClassId
	SuperID     classnames.ClassId
	HasSuper    bool
	Interfaces  []classnames.ClassId
	AccessFlags int
	PackageID   string // "" for the unnamed package

	File *classfile.ClassFile

	Methods []Method
	Init    InitStatus
}

// ArrayClass is a synthesized class record for an array type: it has no
// backing class file, its super is always Object, and its only interfaces
// are Cloneable and Serializable.
type ArrayClass struct {
	ID          classnames.ClassId
	ComponentID classnames.ClassId
	IsPrimitive bool
	AccessFlags int
}

// Registry owns every loaded Class/ArrayClass, keyed by ClassId, plus the
// name registry and class-file loader it resolves against.
type Registry struct {
	Names  *classnames.Registry
	Loader classfile.Loader

	mu      sync.Mutex
	classes map[classnames.ClassId]*Class
	arrays  map[classnames.ClassId]*ArrayClass
}

// NewRegistry wires a class/method registry to a name registry and a
// class-file loader.
func NewRegistry(names *classnames.Registry, loader classfile.Loader) *Registry {
	return &Registry{
		Names:   names,
		Loader:  loader,
		classes: make(map[classnames.ClassId]*Class),
		arrays:  make(map[classnames.ClassId]*ArrayClass),
	}
}

// IsLoaded reports whether id has already been loaded as a Class or
// ArrayClass.
func (r *Registry) IsLoaded(id classnames.ClassId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[id]; ok {
		return true
	}
	_, ok := r.arrays[id]
	return ok
}

// LoadClass ensures id is loaded, loading its class file (or synthesizing
// an ArrayClass) if this is the first reference.
func (r *Registry) LoadClass(id classnames.ClassId) error {
	r.mu.Lock()
	if _, ok := r.classes[id]; ok {
		r.mu.Unlock()
		return nil
	}
	if _, ok := r.arrays[id]; ok {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	_, info, err := r.Names.NameFromId(id)
	if err != nil {
		return err
	}
	if info.IsArray {
		return r.loadArrayClass(id)
	}
	return r.loadClassFile(id)
}

func (r *Registry) loadClassFile(id classnames.ClassId) error {
	res, err := r.Loader.LoadByID(r.Names, id)
	if err != nil {
		return err
	}
	if !res.Found {
		name, _, _ := r.Names.NameFromId(id)
		return except.New(except.ClassFileLoad, "class file not found for %s", name)
	}

	cf, err := classfile.Parse(bytes.NewReader(res.Data))
	if err != nil {
		return except.New(except.ClassFileLoad, "parsing class file for id %d: %v", id, err)
	}

	var superID classnames.ClassId
	hasSuper := false
	if superName, ok := cf.SuperClassName(); ok {
		superID = r.Names.IdFromBytes([]byte(superName))
		hasSuper = true
	}

	ifaces := make([]classnames.ClassId, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		name, ok := cf.GetClassName(idx)
		if !ok {
			return except.New(except.InvalidConstantPoolIndex, "bad interface index %d", idx)
		}
		ifaces = append(ifaces, r.Names.IdFromBytes([]byte(name)))
	}

	methods := make([]Method, len(cf.Methods))
	for i, m := range cf.Methods {
		methods[i] = Method{
			Name:        m.Name,
			Descriptor:  m.Descriptor,
			AccessFlags: m.AccessFlags,
			Code:        m.Code,
		}
	}

	c := &Class{
		ID:          id,
		SuperID:     superID,
		HasSuper:    hasSuper,
		Interfaces:  ifaces,
		AccessFlags: cf.AccessFlags,
		PackageID:   packageOf(nameOf(r.Names, id)),
		File:        cf,
		Methods:     methods,
	}

	r.mu.Lock()
	r.classes[id] = c
	r.mu.Unlock()

	if hasSuper {
		if err := r.LoadClass(superID); err != nil {
			return err
		}
	}
	for _, iface := range ifaces {
		if err := r.LoadClass(iface); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) loadArrayClass(id classnames.ClassId) error {
	name, _, err := r.Names.NameFromId(id)
	if err != nil {
		return err
	}
	compName := name[1:] // strip one leading '['

	var compID classnames.ClassId
	isPrim := len(compName) == 1 && compName[0] != 'L' && compName[0] != '['
	if isPrim || (len(compName) > 0 && compName[0] == '[') {
		compID = r.Names.IdFromBytes([]byte(compName))
	} else {
		// "Lpkg/Class;" component: strip the L...; wrapper before interning.
		inner := compName
		if len(inner) >= 2 && inner[0] == 'L' && inner[len(inner)-1] == ';' {
			inner = inner[1 : len(inner)-1]
		}
		compID = r.Names.IdFromBytes([]byte(inner))
	}

	if !isPrim {
		if err := r.LoadClass(compID); err != nil {
			return err
		}
	}

	flags := classfile.AccPublic | classfile.AccFinal
	if !isPrim {
		if compClass, ok := r.Class(compID); ok {
			flags = compClass.AccessFlags
		} else if _, ok := r.Array(compID); ok {
			flags = classfile.AccPublic | classfile.AccFinal
		}
	}

	r.mu.Lock()
	r.arrays[id] = &ArrayClass{ID: id, ComponentID: compID, IsPrimitive: isPrim, AccessFlags: flags}
	r.mu.Unlock()
	return nil
}

// Class returns the loaded Class record for id, if any.
func (r *Registry) Class(id classnames.ClassId) (*Class, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	return c, ok
}

// Array returns the loaded ArrayClass record for id, if any.
func (r *Registry) Array(id classnames.ClassId) (*ArrayClass, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.arrays[id]
	return a, ok
}

func nameOf(names *classnames.Registry, id classnames.ClassId) string {
	n, _, _ := names.NameFromId(id)
	return n
}

func packageOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return ""
}

// SuperClassIter yields a class and each of its ancestors up to Object
// (inclusive), one per NextItem call. Arrays' only ancestor is Object.
// Once an error is surfaced, subsequent calls return (0, false, nil).
type SuperClassIter struct {
	r       *Registry
	current classnames.ClassId
	done    bool
	failed  bool
	first   bool
}

// NewSuperClassIter starts an iterator at id (id itself is yielded first).
func (r *Registry) NewSuperClassIter(id classnames.ClassId) *SuperClassIter {
	return &SuperClassIter{r: r, current: id, first: true}
}

// NextItem returns the next class in the chain, or ok=false once the chain
// is exhausted or a load error occurred (err is non-nil only on that final
// call).
func (it *SuperClassIter) NextItem() (classnames.ClassId, bool, error) {
	if it.done || it.failed {
		return 0, false, nil
	}

	if it.first {
		it.first = false
		if err := it.r.LoadClass(it.current); err != nil {
			it.failed = true
			return 0, false, err
		}
		return it.current, true, nil
	}

	_, info, err := it.r.Names.NameFromId(it.current)
	if err != nil {
		it.failed = true
		return 0, false, err
	}

	if info.IsArray {
		if it.current == it.r.Names.ObjectId() {
			it.done = true
			return 0, false, nil
		}
		it.current = it.r.Names.ObjectId()
		if err := it.r.LoadClass(it.current); err != nil {
			it.failed = true
			return 0, false, err
		}
		return it.current, true, nil
	}

	c, ok := it.r.Class(it.current)
	if !ok {
		it.failed = true
		return 0, false, except.New(except.BadClassId, "class %d not loaded", it.current)
	}
	if !c.HasSuper {
		it.done = true
		return 0, false, nil
	}
	it.current = c.SuperID
	if err := it.r.LoadClass(it.current); err != nil {
		it.failed = true
		return 0, false, err
	}
	return it.current, true, nil
}
