/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread models the single execution thread rho runs bytecode on.
// The interpreter itself is single-threaded and cooperative, but the
// thread table stays mutex-guarded because native library loading and GC
// safe-point bookkeeping can be probed from tooling goroutines outside the
// interpreter's own call stack.
package thread

import (
	"github.com/jacobin-run/rho/globals"
)

// ExecThread is the runtime state of one thread of execution: its numeric
// ID and whether bytecode tracing is enabled for it.
type ExecThread struct {
	ID    int
	Trace bool
}

// CreateThread allocates a fresh, not-yet-registered thread.
func CreateThread() ExecThread {
	return ExecThread{ID: 0, Trace: false}
}

// AddThreadToTable registers et in the global thread table, assigning it
// the next sequential ID.
func (et *ExecThread) AddThreadToTable(g *globals.Globals) {
	ref := &globals.ThreadRef{}
	g.AddThread(ref)
	et.ID = ref.ID
}
