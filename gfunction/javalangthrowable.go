/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"github.com/jacobin-run/rho/heap"
	"github.com/jacobin-run/rho/interpreter"
	"github.com/jacobin-run/rho/object"
	"github.com/jacobin-run/rho/rnative"
	"github.com/jacobin-run/rho/statics"
)

func registerThrowable(br *rnative.Bridge) {
	const cls = "java/lang/Throwable"
	br.Register(cls, "fillInStackTrace", fillInStackTrace)
	br.Register(cls, "<clinit>", throwableClinit)
}

// throwableClinit initializes Throwable's bootstrap statics the same way
// its real <clinit> does: an empty StackTraceElement[] sentinel, a nil
// suppressed-list sentinel (java/util/List has no rho implementation yet,
// so this stays nil rather than an empty List instance), and an empty
// Throwable[] sentinel for getSuppressed()'s default answer.
func throwableClinit(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	steID := e.Names.IdFromBytes([]byte("java/lang/StackTraceElement"))
	steArrID, err := e.Names.IdForArrayLevel(1, steID)
	if err != nil {
		return nil, err
	}
	emptySTE := object.NewReferenceArrayInstance(steArrID, steID, nil)
	statics.AddStatic("java/lang/Throwable.UNASSIGNED_STACK", statics.Static{
		Type:  "[Ljava/lang/StackTraceElement;",
		Value: heap.Alloc[object.Instance](e.Gc, emptySTE, 0),
	})

	statics.AddStatic("java/lang/Throwable.SUPPRESSED_SENTINEL", statics.Static{
		Type: "Ljava/util/List;", Value: nil,
	})

	throwableID := e.Names.IdFromBytes([]byte("java/lang/Throwable"))
	throwArrID, err := e.Names.IdForArrayLevel(1, throwableID)
	if err != nil {
		return nil, err
	}
	emptyThrowable := object.NewReferenceArrayInstance(throwArrID, throwableID, nil)
	statics.AddStatic("java/lang/Throwable.EMPTY_THROWABLE_ARRAY", statics.Static{
		Type:  "[Ljava/lang/Throwable;",
		Value: heap.Alloc[object.Instance](e.Gc, emptyThrowable, 0),
	})
	return nil, nil
}

// fillInStackTrace walks the live call stack (the caller, its caller, and
// so on — everything still on e.Stack at the moment Throwable's own
// constructor invokes this) and records one StackTraceElement per frame on
// this Throwable, exactly as java/lang/Throwable.fillInStackTrace()
// documents. It returns the receiver, matching the real method's signature.
func fillInStackTrace(e *interpreter.Engine, this interface{}, args []interface{}) (interface{}, error) {
	self, err := asClassInstance(e, this)
	if err != nil {
		return nil, err
	}

	steID := e.Names.IdFromBytes([]byte("java/lang/StackTraceElement"))
	if loadErr := e.Registry.LoadClass(steID); loadErr != nil {
		return nil, loadErr
	}

	liveFrames := e.Stack.Frames()
	elems := make([]heap.GcRef[object.Instance], 0, len(liveFrames))
	for _, fr := range liveFrames {
		ste := object.NewClassInstance(steID, "java/lang/StackTraceElement", heap.NilRef[*object.StaticClassInstance]())
		ste.FieldTable["declaringClass"] = object.Field{Ftype: "Ljava/lang/String;", Fvalue: allocString(e, fr.ClName)}
		ste.FieldTable["methodName"] = object.Field{Ftype: "Ljava/lang/String;", Fvalue: allocString(e, fr.MethName)}
		elems = append(elems, heap.Alloc[object.Instance](e.Gc, ste, 0))
	}

	steArrID, err := e.Names.IdForArrayLevel(1, steID)
	if err != nil {
		return nil, err
	}
	trace := object.NewReferenceArrayInstance(steArrID, steID, elems)
	self.FieldTable["stackTrace"] = object.Field{
		Ftype:  "[Ljava/lang/StackTraceElement;",
		Fvalue: heap.Alloc[object.Instance](e.Gc, trace, len(elems)*4),
	}

	return this, nil
}
