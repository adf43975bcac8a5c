/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"fmt"

	"github.com/jacobin-run/rho/log"
)

// LogTraceStack writes f's entire operand stack at log.TRACE_INST, in the
// same "newest-first, TOS marked" layout the interpreter's instruction
// trace uses for every push/pop.
func LogTraceStack(f *Frame) {
	if f.TOS == -1 {
		_ = log.Log(fmt.Sprintf("%55s %s.%s stack <empty>", "", f.ClName, f.MethName), log.TRACE_INST)
		return
	}
	for i := f.TOS; i >= 0; i-- {
		marker := "  "
		if i == f.TOS {
			marker = "->"
		}
		_ = log.Log(fmt.Sprintf("%s %55s %s.%s stack[%3d] %T %v", marker, "", f.ClName, f.MethName, i, f.OpStack[i], f.OpStack[i]), log.TRACE_INST)
	}
}
