/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package statics holds static (per-class) field values that have been
// initialized outside of the normal StaticClassInstance machinery in heap
// — bootstrap constants needed before the heap/classloader subsystems spin
// up, such as java/lang/String's COMPACT_STRINGS flag.
package statics

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Static is one named static value: its declared field type descriptor and
// its current value.
type Static struct {
	Type  string
	Value interface{}
}

var (
	mu    sync.Mutex
	table = map[string]Static{}
)

// AddStatic registers or overwrites a static under "class.field".
func AddStatic(key string, s Static) {
	mu.Lock()
	defer mu.Unlock()
	table[key] = s
}

// GetStatic looks up a static by "class.field", reporting whether found.
func GetStatic(key string) (Static, bool) {
	mu.Lock()
	defer mu.Unlock()
	s, ok := table[key]
	return s, ok
}

// LoadStaticsString registers java/lang/String's bootstrap statics
// (COMPACT_STRINGS support flags), needed before the class file for
// java/lang/String itself has been parsed.
func LoadStaticsString() {
	AddStatic("java/lang/String.COMPACT_STRINGS", Static{Type: "Z", Value: int64(1)})
}

// DumpStatics writes every registered static to w, sorted by key for
// reproducible crash diagnostics (shutdown.Exit calls this on abnormal exit).
func DumpStatics(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := table[k]
		fmt.Fprintf(w, "static %s %s = %v\n", s.Type, k, s.Value)
	}
}
