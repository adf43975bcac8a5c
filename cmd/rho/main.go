/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"

	"github.com/jacobin-run/rho/config"
	"github.com/jacobin-run/rho/engine"
	"github.com/jacobin-run/rho/globals"
	"github.com/jacobin-run/rho/log"
	"github.com/jacobin-run/rho/shutdown"
)

func main() {
	globals.InitGlobals("")
	os.Exit(run(os.Args[1:]))
}

// run is main's body factored out so it can be driven by a plain []string
// in a test without touching the real os.Args/os.Exit. Tests call
// globals.InitGlobals("test") themselves before invoking run.
func run(argv []string) int {
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "rho: could not open log file: %v\n", err)
	}
	cfg, rest := config.Parse(argv)
	if cfg.Verbose {
		log.SetLogLevel(log.CLASS)
	}

	if cfg.ShowVersion {
		showVersion()
		return shutdown.Exit(shutdown.OK)
	}

	if len(rest) == 0 {
		usage()
		return shutdown.Exit(shutdown.UNKNOWN_ERROR)
	}

	switch rest[0] {
	case "run":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "rho: run requires a class name")
			usage()
			return shutdown.Exit(shutdown.UNKNOWN_ERROR)
		}
		return shutdown.Exit(engine.Run(engine.Options{
			Classpath: cfg.Classpath,
			MainClass: rest[1],
			Args:      rest[2:],
		}))
	case "run-jar":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "rho: run-jar requires a jar path")
			usage()
			return shutdown.Exit(shutdown.UNKNOWN_ERROR)
		}
		return shutdown.Exit(engine.Run(engine.Options{
			Classpath: cfg.Classpath,
			JarPath:   rest[1],
			Args:      rest[2:],
		}))
	default:
		fmt.Fprintf(os.Stderr, "rho: unknown command %q\n", rest[0])
		usage()
		return shutdown.Exit(shutdown.UNKNOWN_ERROR)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: rho [-cp CLASSPATH] [-verbose] run CLASS_NAME [args...]")
	fmt.Fprintln(os.Stderr, "       rho [-cp CLASSPATH] [-verbose] run-jar JAR_PATH [args...]")
	fmt.Fprintln(os.Stderr, "where options include")
	fmt.Fprintln(os.Stderr, "  -cp, -classpath PATH   directories/jars to search for classes")
	fmt.Fprintln(os.Stderr, "  -verbose               raise logging to class-loading detail")
	fmt.Fprintln(os.Stderr, "  -version               print version information and exit")
}

func showVersion() {
	fmt.Fprintln(os.Stderr, "rho v.0.1.0")
}
