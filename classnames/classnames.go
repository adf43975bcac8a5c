/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classnames is a dense, allocation-ordered ClassId registry for
// every named type rho mentions, including descriptor-derived synthetic
// array types.
package classnames

import (
	"strings"
	"sync"

	"github.com/jacobin-run/rho/except"
	"github.com/jacobin-run/rho/types"
)

// ClassId is a dense 32-bit identifier assigned in allocation order. Zero
// is reserved for java/lang/Object.
type ClassId uint32

// Info records the immutable classification of one interned name.
type Info struct {
	IsArray       bool
	IsAnonymous   bool
	HasClassFile  bool
}

// Registry interns class names to ClassIds and answers reverse lookups.
// A mutex guards every operation; the runtime has a single owner of a
// Registry at any instant, so this exists only to make accidental
// concurrent use fail safe, not to support it.
type Registry struct {
	mu    sync.Mutex
	names []string // index == ClassId
	info  []Info
	index map[string]ClassId
}

// NewRegistry reserves ClassId 0 for java/lang/Object.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]ClassId)}
	r.intern(types.ObjectClassName, Info{HasClassFile: true})
	return r
}

func isArrayDescriptor(name string) bool {
	return strings.HasPrefix(name, types.Array)
}

func (r *Registry) intern(name string, info Info) ClassId {
	if id, ok := r.index[name]; ok {
		return id
	}
	id := ClassId(len(r.names))
	r.names = append(r.names, name)
	r.info = append(r.info, info)
	r.index[name] = id
	return id
}

// IdFromBytes interns a contiguous name, e.g. "java/lang/String" or "[I".
func (r *Registry) IdFromBytes(name []byte) ClassId {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := string(name)
	if id, ok := r.index[s]; ok {
		return id
	}
	info := Info{IsArray: isArrayDescriptor(s), HasClassFile: !isArrayDescriptor(s)}
	return r.intern(s, info)
}

// IdFromIter interns a name given as its '/'-separated parts. It must
// produce the same ID as IdFromBytes(strings.Join(parts, "/")) — for a Go
// map key that means joining before hashing, so callers with a single
// []byte should prefer IdFromBytes directly.
func (r *Registry) IdFromIter(parts []string) ClassId {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := strings.Join(parts, "/")
	if id, ok := r.index[s]; ok {
		return id
	}
	info := Info{IsArray: isArrayDescriptor(s), HasClassFile: !isArrayDescriptor(s)}
	return r.intern(s, info)
}

// IdForArrayOfPrimitive returns the ClassId for "[" + prim's descriptor
// prefix, e.g. "[I" for int.
func (r *Registry) IdForArrayOfPrimitive(prim types.PrimitiveTag) ClassId {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := "[" + string(prim.DescPrefix())
	if id, ok := r.index[s]; ok {
		return id
	}
	return r.intern(s, Info{IsArray: true})
}

// IdForArrayLevel constructs "level" leading '[' characters followed by
// element's descriptor form (its own name if it is already an array
// descriptor, otherwise "L" + name + ";").
func (r *Registry) IdForArrayLevel(level int, element ClassId) (ClassId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(element) >= len(r.names) {
		return 0, except.New(except.BadClassId, "no such class id %d", element)
	}
	elemName := r.names[element]
	elemInfo := r.info[element]

	prefix := strings.Repeat("[", level)
	var s string
	if elemInfo.IsArray {
		s = prefix + elemName
	} else {
		s = prefix + "L" + elemName + ";"
	}

	if id, ok := r.index[s]; ok {
		return id, nil
	}
	return r.intern(s, Info{IsArray: true}), nil
}

// NameFromId is the inverse lookup: given an id, returns its name and
// classification. Fails with except.BadClassId for a never-registered id.
func (r *Registry) NameFromId(id ClassId) (string, Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.names) {
		return "", Info{}, except.New(except.BadClassId, "no such class id %d", id)
	}
	return r.names[id], r.info[id], nil
}

// ObjectId is the constant id for java/lang/Object.
func (r *Registry) ObjectId() ClassId { return 0 }

// InitAnonymousId allocates an id for a runtime-synthesized class before
// its name is known (e.g. a lambda class or an anonymous inner class).
// The real name can be filled in later via Rename.
func (r *Registry) InitAnonymousId(isAnonymous bool) ClassId {
	r.mu.Lock()
	defer r.mu.Unlock()
	placeholder := "$anon$" + itoa(len(r.names))
	return r.intern(placeholder, Info{IsAnonymous: isAnonymous})
}

// Rename replaces a placeholder name (from InitAnonymousId) once the real
// name is known. Returns false if the new name is already taken by another
// id, in which case the caller should treat the two names as aliases of
// whichever id already exists instead.
func (r *Registry) Rename(id ClassId, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.names) {
		return false
	}
	if _, taken := r.index[newName]; taken {
		return false
	}
	old := r.names[id]
	delete(r.index, old)
	r.names[id] = newName
	r.index[newName] = id
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
