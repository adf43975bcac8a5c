/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package engine wires components A through H into one running program:
// the identifier registry, the classfile loader chain, the class/method
// registry, the heap, the interpreter, and the native bridge with its
// gfunction replacements. cmd/rho is its only caller.
package engine

import (
	"fmt"
	"os"

	"github.com/jacobin-run/rho/classfile"
	"github.com/jacobin-run/rho/classloader"
	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/frames"
	"github.com/jacobin-run/rho/gfunction"
	"github.com/jacobin-run/rho/globals"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/rnative"
	"github.com/jacobin-run/rho/shutdown"
	"github.com/jacobin-run/rho/thread"
	"github.com/jacobin-run/rho/types"
)

// Options is everything a run needs to know: where to find classes, which
// one to start, and what to hand its main(String[]).
type Options struct {
	Classpath []string
	MainClass string // internal form, e.g. "com/example/Main"; when empty, JarPath's manifest Main-Class is used
	JarPath   string
	Args      []string
}

const mainDescriptor = "([Ljava/lang/String;)V"

// Bootstrap constructs one Engine from opts: a Loader chain (the jar, if
// any, consulted before the classpath's directory roots), a classnames and
// classloader registry pair, a fresh heap, and a native bridge with every
// gfunction replacement registered.
func Bootstrap(opts Options) (*interpreter.Engine, string, error) {
	names := classnames.NewRegistry()

	var chain classfile.Chain
	mainClass := opts.MainClass
	if opts.JarPath != "" {
		jl, err := classfile.OpenJarLoader(opts.JarPath)
		if err != nil {
			return nil, "", err
		}
		chain.Loaders = append(chain.Loaders, jl)
		if mainClass == "" {
			if mc, ok := jl.MainClass(); ok {
				mainClass = mc
			}
		}
	}
	chain.Loaders = append(chain.Loaders, &classfile.DirLoader{Roots: opts.Classpath})

	if mainClass == "" {
		return nil, "", fmt.Errorf("no main class given and none found in jar manifest")
	}

	registry := classloader.NewRegistry(names, &chain)
	gc := heap.New()
	e := interpreter.New(gc, registry, names)

	br := rnative.NewBridge()
	gfunction.RegisterAll(br)
	e.Natives = br

	g := globals.GetGlobalRef()
	g.Classpath = opts.Classpath
	g.StartClass = mainClass
	g.StartingJar = opts.JarPath

	mainThread := thread.CreateThread()
	mainThread.AddThreadToTable(g)

	return e, mainClass, nil
}

// Run bootstraps an Engine from opts, locates mainClass's
// "public static void main(String[])", builds its argument array from
// opts.Args, and runs it to completion. It returns the process exit code
// the caller should use (shutdown's ExitStatus values), not call os.Exit
// itself — that is cmd/rho's job via shutdown.Exit.
func Run(opts Options) int {
	e, mainClass, err := Bootstrap(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rho:", err)
		return shutdown.UNKNOWN_ERROR
	}

	classID := e.Names.IdFromBytes([]byte(mainClass))
	if err := e.Registry.LoadClass(classID); err != nil {
		fmt.Fprintf(os.Stderr, "rho: could not load %s: %v\n", mainClass, err)
		return shutdown.UNKNOWN_ERROR
	}

	method, methodIndex, err := e.Registry.LoadMethodByDesc(classID, "main", mainDescriptor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rho: %s has no main%s: %v\n", mainClass, mainDescriptor, err)
		return shutdown.UNKNOWN_ERROR
	}
	if method.AccessFlags&classfile.AccStatic == 0 || method.AccessFlags&classfile.AccPublic == 0 {
		fmt.Fprintf(os.Stderr, "rho: %s.main%s must be public static\n", mainClass, mainDescriptor)
		return shutdown.UNKNOWN_ERROR
	}

	argsRef := buildArgsArray(e, opts.Args)
	maxLocals, maxStack := 1, 1
	if method.Code != nil {
		maxLocals, maxStack = method.Code.MaxLocals, method.Code.MaxStack
	}
	f := frames.New(classID, classloader.MethodID(classID, methodIndex), mainClass, "main", codeOf(method), maxLocals, maxStack)
	f.Locals[0] = argsRef

	result, err := e.EvalMethod(classloader.MethodID(classID, methodIndex), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rho: %v\n", err)
		return shutdown.UNKNOWN_ERROR
	}
	if result.Threw {
		printUncaught(e, result.Exc)
		return shutdown.JVM_EXCEPTION
	}
	return shutdown.OK
}

func codeOf(m *classloader.Method) []byte {
	if m.Code == nil {
		return nil
	}
	return m.Code.Code
}

// buildArgsArray turns args into a java/lang/String[] reference array,
// the value main(String[]) expects in local slot 0.
func buildArgsArray(e *interpreter.Engine, args []string) heap.GcRef[object.Instance] {
	stringID := e.Names.IdFromBytes([]byte(types.StringClassName))
	arrID, err := e.Names.IdForArrayLevel(1, stringID)
	if err != nil {
		return heap.NilRef[object.Instance]()
	}
	elems := make([]heap.GcRef[object.Instance], len(args))
	for i, a := range args {
		inst := object.NewStringFromGoString(a)
		elems[i] = heap.Alloc[object.Instance](e.Gc, inst, len(a))
	}
	arr := object.NewReferenceArrayInstance(arrID, stringID, elems)
	return heap.Alloc[object.Instance](e.Gc, arr, len(args)*4)
}

// printUncaught reports an exception that propagated out of main, walking
// its stackTrace field (populated by Throwable.fillInStackTrace, see
// gfunction/javalangthrowable.go) if one was recorded.
func printUncaught(e *interpreter.Engine, excRef heap.GcRef[object.Instance]) {
	inst, ok := heap.Deref(e.Gc, excRef)
	if !ok {
		fmt.Fprintln(os.Stderr, "Exception in thread \"main\" <dangling exception reference>")
		return
	}
	ci, ok := inst.(*object.ClassInstance)
	if !ok {
		fmt.Fprintln(os.Stderr, "Exception in thread \"main\" <non-instance exception value>")
		return
	}
	className, _, _ := e.Names.NameFromId(ci.InstanceOf())
	fmt.Fprintf(os.Stderr, "Exception in thread \"main\" %s\n", className)

	traceField, ok := ci.FieldTable["stackTrace"]
	if !ok {
		return
	}
	traceRef, ok := traceField.Fvalue.(heap.GcRef[object.Instance])
	if !ok || traceRef.IsNil() {
		return
	}
	traceInst, ok := heap.Deref(e.Gc, traceRef)
	if !ok {
		return
	}
	arr, ok := traceInst.(*object.ReferenceArrayInstance)
	if !ok {
		return
	}
	for _, el := range arr.Elements {
		steInst, ok := heap.Deref(e.Gc, el)
		if !ok {
			continue
		}
		ste, ok := steInst.(*object.ClassInstance)
		if !ok {
			continue
		}
		decl := fieldAsGoString(e, ste, "declaringClass")
		meth := fieldAsGoString(e, ste, "methodName")
		fmt.Fprintf(os.Stderr, "\tat %s.%s\n", decl, meth)
	}
}

func fieldAsGoString(e *interpreter.Engine, ci *object.ClassInstance, name string) string {
	f, ok := ci.FieldTable[name]
	if !ok {
		return "?"
	}
	ref, ok := f.Fvalue.(heap.GcRef[object.Instance])
	if !ok {
		return "?"
	}
	inst, ok := heap.Deref(e.Gc, ref)
	if !ok {
		return "?"
	}
	sci, ok := inst.(*object.ClassInstance)
	if !ok {
		return "?"
	}
	return object.GetGoStringFromJavaStringPtr(sci)
}
