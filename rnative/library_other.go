//go:build !linux && !darwin

/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

// lookup has no dynamic-loading backend on this platform; the internal
// replacement table (gfunction's registrations) is the only resolution
// path here.
func (l *libraries) lookup(symbol string) (NativeFunc, bool) {
	return nil, false
}
