/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown is the single exit-to-O/S function: it waits on the
// loader wait group, logs the exit reason, and dumps diagnostics before
// calling os.Exit on any abnormal status.
package shutdown

import (
	"fmt"
	"os"

	"github.com/jacobin-run/rho/config"
	"github.com/jacobin-run/rho/globals"
	"github.com/jacobin-run/rho/log"
	"github.com/jacobin-run/rho/statics"
)

// ExitStatus enumerates the reasons a shutdown was requested.
type ExitStatus = int

const (
	OK ExitStatus = iota
	JVM_EXCEPTION
	APP_EXCEPTION
	TEST_OK
	TEST_ERR
	UNKNOWN_ERROR
)

// inTestMode reports whether g is one of the two harness names under which
// Exit must never actually terminate the process.
func inTestMode(g *globals.Globals) bool {
	return g.RhoName == "test" || g.RhoName == "testWithoutShutdown"
}

// testResult maps a real ExitStatus to the TEST_OK/TEST_ERR code a test
// run should return in place of calling os.Exit.
func testResult(errorCondition ExitStatus) ExitStatus {
	if errorCondition == OK {
		return TEST_OK
	}
	return TEST_ERR
}

// dumpDiagnostics writes the static field table and the running
// configuration to w; Exit calls this before any abnormal os.Exit so a
// postmortem has something to look at.
func dumpDiagnostics(w *os.File) {
	statics.DumpStatics(w)
	config.DumpConfig(w)
}

// Exit is the process's single exit point. It drains the class-loader wait
// group, records why it was called, and — outside test mode — dumps
// diagnostics ahead of any abnormal os.Exit. Under test mode it returns a
// plain 0/1 instead of tearing down the test binary, so unit tests can
// exercise error paths directly.
func Exit(errorCondition ExitStatus) int {
	g := globals.GetGlobalRef()
	g.LoaderWg.Wait()

	logErr := log.Log(fmt.Sprintf("shutdown.Exit(%d) requested", errorCondition), log.INFO)

	if inTestMode(g) {
		switch testResult(errorCondition) {
		case TEST_OK:
			return 0
		default:
			return 1
		}
	}

	if logErr != nil {
		errorCondition = UNKNOWN_ERROR
	}
	if errorCondition != OK {
		dumpDiagnostics(os.Stderr)
	}
	os.Exit(errorCondition)

	panic("unreachable")
}
