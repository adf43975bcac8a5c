/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package rnative is the native-method bridge: JNI-style symbol mangling,
// an internal-replacement-first call convention, and the raw memory block
// store behind Unsafe.allocateMemory.
package rnative

import (
	"fmt"
	"strings"
)

// MangleMethodName computes the JNI-style symbol a native method's class
// and method name resolve to: "Java_" + escaped class name + "_" +
// escaped method name. '/' becomes '_', '_' becomes "_1", ';' becomes
// "_2", '[' becomes "_3", and anything else outside [A-Za-z0-9] becomes
// "_0" + 4 hex digits of its value.
func MangleMethodName(className, methodName string) string {
	var b strings.Builder
	b.WriteString("Java_")
	escapeName(&b, className)
	b.WriteByte('_')
	escapeName(&b, methodName)
	return b.String()
}

func escapeName(b *strings.Builder, name string) {
	for _, ch := range []byte(name) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteByte(ch)
		case ch == '/':
			b.WriteByte('_')
		case ch == '_':
			b.WriteString("_1")
		case ch == ';':
			b.WriteString("_2")
		case ch == '[':
			b.WriteString("_3")
		default:
			fmt.Fprintf(b, "_0%04x", ch)
		}
	}
}
