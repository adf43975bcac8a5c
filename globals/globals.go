/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds the single mutable "world" struct threaded
// implicitly through rho: one process-wide struct fetched with
// GetGlobalRef(), rather than passing a context object through every call
// site. The interpreter is single-threaded and cooperative, so there is
// exactly one owner of this state at any instant.
package globals

import (
	"os"
	"sync"
)

// Globals is the process-wide world struct. RhoName distinguishes "test"
// runs (which suppress os.Exit) from normal runs.
type Globals struct {
	RhoName string // "", "test", or "testWithoutShutdown"
	RhoHome string

	Classpath []string
	StartClass string
	StartingJar string

	Threads      map[int]*ThreadRef
	ThreadNumber int
	threadsMutex sync.Mutex

	LoaderWg sync.WaitGroup

	Trace   bool
	TraceClass bool
	TraceInst  bool

	ErrorGoStack string

	FuncThrowException func(excType int, msg string) interface{}
}

// ThreadRef is an opaque handle stored in the global thread table; the
// thread package supplies the concrete contents.
type ThreadRef struct {
	ID int
}

var global *Globals
var initMutex sync.Mutex

// InitGlobals (re)initializes the single global struct. Tests call this at
// the top of every test function to get a clean slate. RhoHome comes from
// RHO_HOME if set, falling back to the OS temp directory — rho has no
// installed distribution layout of its own to anchor on, unlike a real
// JAVA_HOME.
func InitGlobals(runName string) *Globals {
	initMutex.Lock()
	defer initMutex.Unlock()

	home := os.Getenv("RHO_HOME")
	if home == "" {
		home = os.TempDir()
	}

	global = &Globals{
		RhoName: runName,
		RhoHome: home,
		Threads: make(map[int]*ThreadRef),
	}
	return global
}

// GetGlobalRef returns the current global struct, initializing a default
// one if none exists yet.
func GetGlobalRef() *Globals {
	if global == nil {
		return InitGlobals("")
	}
	return global
}

// AddThread inserts a thread under lock, mirroring thread.AddThreadToTable.
func (g *Globals) AddThread(ref *ThreadRef) {
	g.threadsMutex.Lock()
	defer g.threadsMutex.Unlock()
	g.ThreadNumber++
	ref.ID = g.ThreadNumber
	g.Threads[ref.ID] = ref
}

// ThreadCount returns the number of registered threads (test helper).
func (g *Globals) ThreadCount() int {
	g.threadsMutex.Lock()
	defer g.threadsMutex.Unlock()
	return len(g.Threads)
}
