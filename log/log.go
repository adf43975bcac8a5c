/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package log is rho's leveled trace logger: a package-level log level
// plus a Log(msg, level) entry point, gated by the RHO_LOG_CONSOLE /
// RHO_LOG_FILE environment variables.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/term"

	"github.com/jacobin-run/rho/globals"
)

// Level is the severity/verbosity of a trace line, ordered least to most
// verbose: WARNING < INFO < CLASS < TRACE_INST.
type Level int

const (
	SEVERE Level = iota
	WARNING
	INFO
	CLASS
	TRACE_INST
)

var (
	mu         sync.Mutex
	level      = WARNING
	console    io.Writer = os.Stderr
	file       io.Writer
	fileHandle *os.File
	isTerminal bool
)

// LogFileName is the name of the trace file Init creates under
// globals.RhoHome when RHO_LOG_FILE is enabled.
const LogFileName = "rho.log"

// Init prepares the logger according to RHO_LOG_CONSOLE / RHO_LOG_FILE.
// Both default to enabled. RHO_LOG_FILE opens (append mode, creating if
// needed) LogFileName under the current globals.RhoHome; a failure to open
// it is reported but does not stop console logging from working.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if os.Getenv("RHO_LOG_CONSOLE") == "0" {
		console = io.Discard
	} else {
		console = os.Stderr
	}

	if fileHandle != nil {
		fileHandle.Close()
		fileHandle = nil
		file = nil
	}

	var openErr error
	if os.Getenv("RHO_LOG_FILE") == "0" {
		file = nil
	} else {
		home := globals.GetGlobalRef().RhoHome
		path := filepath.Join(home, LogFileName)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			file = nil
			openErr = err
		} else {
			fileHandle = f
			file = f
		}
	}

	isTerminal = term.IsTerminal(int(os.Stderr.Fd()))
	return openErr
}

// SetLogLevel changes the minimum level that will be emitted. Returns the
// previous level so callers can restore it after a test.
func SetLogLevel(l Level) Level {
	mu.Lock()
	defer mu.Unlock()
	prev := level
	level = l
	return prev
}

// Log emits msg if lvl is at or below the current verbosity. Errors are
// returned, never panicked on, so callers (notably shutdown.Exit) can fold
// a logging failure into their own error handling.
func Log(msg string, lvl Level) error {
	mu.Lock()
	defer mu.Unlock()

	if lvl > level {
		return nil
	}

	line := msg + "\n"
	if isTerminal && lvl == SEVERE {
		line = "\x1b[31m" + msg + "\x1b[0m\n"
	}

	if _, err := fmt.Fprint(console, line); err != nil {
		return err
	}
	if file != nil {
		if _, err := fmt.Fprint(file, line); err != nil {
			return err
		}
	}
	return nil
}
