/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package config parses the small set of -X-style flags and environment
// variables rho accepts, and can dump itself to a writer for diagnostics
// when the process exits abnormally.
package config

import (
	"fmt"
	"io"
	"os"
)

// Global is the single parsed configuration, fetched the same way
// globals.GetGlobalRef is.
type Global struct {
	Classpath   []string
	MainClass   string
	JarPath     string
	Verbose     bool
	ShowVersion bool
}

var current Global

// Parse walks args (normally os.Args[1:]) and fills in Global. It
// recognizes "-cp"/"-classpath" (a ':'-or-';'-separated path list,
// depending on os.PathListSeparator), "-verbose" and "-version";
// everything else is left for the CLI subcommand dispatcher to interpret.
func Parse(args []string) (Global, []string) {
	var g Global
	var rest []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-cp", "-classpath":
			i++
			if i < len(args) {
				g.Classpath = splitClasspath(args[i])
			}
		case "-verbose":
			g.Verbose = true
		case "-version":
			g.ShowVersion = true
		default:
			rest = append(rest, args[i])
		}
	}

	current = g
	return g, rest
}

func splitClasspath(s string) []string {
	sep := string(os.PathListSeparator)
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if string(s[i]) == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// DumpConfig writes the currently parsed configuration to w, used by
// shutdown.Exit on abnormal termination.
func DumpConfig(w io.Writer) {
	fmt.Fprintf(w, "rho config: classpath=%v mainClass=%q jar=%q verbose=%v\n",
		current.Classpath, current.MainClass, current.JarPath, current.Verbose)
}
