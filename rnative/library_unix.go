//go:build linux || darwin

/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

import (
	"path/filepath"
	"plugin"
)

// lookup loads every *.so under the registered directories on first call
// and searches them for an exported NativeFunc-typed symbol named after
// the mangled JNI symbol. Go's plugin package is the closest thing the
// standard toolchain offers to cgo-free dynamic loading; it requires the
// library itself to be a Go plugin rather than an arbitrary C shared
// object, which is a real narrowing from a JNI implementation proper, but
// keeps the bridge free of cgo.
func (l *libraries) lookup(symbol string) (NativeFunc, bool) {
	if l.cache == nil {
		l.cache = make(map[string]NativeFunc)
		for _, dir := range l.dirs {
			matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
			if err != nil {
				continue
			}
			for _, path := range matches {
				p, err := plugin.Open(path)
				if err != nil {
					continue
				}
				l.plugins = append(l.plugins, p)
			}
		}
	}
	if fn, ok := l.cache[symbol]; ok {
		return fn, true
	}
	for _, handle := range l.plugins {
		p, ok := handle.(*plugin.Plugin)
		if !ok {
			continue
		}
		sym, err := p.Lookup(symbol)
		if err != nil {
			continue
		}
		switch fn := sym.(type) {
		case NativeFunc:
			l.cache[symbol] = fn
			return fn, true
		case *NativeFunc:
			l.cache[symbol] = *fn
			return *fn, true
		}
	}
	return nil, false
}
