/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import "github.com/jacobin-run/rho/rnative"

// RegisterAll installs every native-method replacement this package ships
// with into br. The bridge only consults this table for a method the
// loaded classfile itself declares ACC_NATIVE — unlike gfunction
// replacement tables that intercept every call regardless of that flag,
// this one only ever runs when there truly is no bytecode body to
// interpret, matching a real JNI resolution order (internal table first,
// loaded shared library second).
func RegisterAll(br *rnative.Bridge) {
	registerString(br)
	registerSystem(br)
	registerThrowable(br)
}
