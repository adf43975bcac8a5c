/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"sync"
	"testing"

	"github.com/jacobin-run/rho/globals"
)

func TestCreateThread(t *testing.T) {
	et := CreateThread()
	if et.ID != 0 || et.Trace != false {
		t.Error("invalid thread generated by CreateThread()")
	}
}

func TestAddThreadsToTable(t *testing.T) {
	gl := globals.InitGlobals("test")

	for i := 0; i < 10; i++ {
		th := CreateThread()
		th.AddThreadToTable(gl)
	}

	if got := gl.ThreadCount(); got != 10 {
		t.Errorf("expected thread table to have 10 elements; got %d", got)
	}

	if gl.ThreadNumber != 10 {
		t.Errorf("expected last inserted thread to be 10; got %d", gl.ThreadNumber)
	}
}

// Validates that concurrent additions to the thread table are race-free.
func TestAddingMultipleSimultaneousThreads(t *testing.T) {
	numThreads := 4
	threadsToAdd := 100
	expectedSize := numThreads * threadsToAdd

	gl := globals.InitGlobals("test")

	wg := sync.WaitGroup{}
	for i := 0; i < numThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < threadsToAdd; j++ {
				th := CreateThread()
				th.AddThreadToTable(gl)
			}
		}()
	}
	wg.Wait()

	if got := gl.ThreadCount(); got != expectedSize {
		t.Errorf("expecting thread table size of %d, got %d", expectedSize, got)
	}
}
