/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

// libraries is the loaded-shared-library fallback consulted after the
// internal replacement table misses (§4.G step 3). dirs is kept even on
// platforms with no loader behind it so Bridge.AddLibraryDir never needs
// a build-tag check at the call site.
type libraries struct {
	dirs []string

	// cache and plugins are populated lazily by lookup on the first miss
	// against the internal table; plugins holds *plugin.Plugin on
	// linux/darwin (typed interface{} here so this struct needs no
	// build-tag split of its own) and stays empty everywhere else.
	cache   map[string]NativeFunc
	plugins []interface{}
}

func newLibraries() *libraries {
	return &libraries{}
}

func (l *libraries) addDir(dir string) {
	l.dirs = append(l.dirs, dir)
}
