/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jacobin-run/rho/classnames"
)

// LoadResult is the three-way answer a Loader gives for one class id:
// found bytes, a deliberate "no class file for this type" (arrays,
// primitives), or "not found here, ask the next loader".
type LoadResult struct {
	Data   []byte // nil unless Found
	Found  bool
	NoFile bool // true for "this type legitimately has no class file"
}

// Loader resolves a class id to raw .class bytes. A recoverable miss
// (file absent, path empty) must be reported by returning a zero
// LoadResult and a nil error, so a Chain can try the next backend; a
// non-nil error means real corruption and stops the chain immediately.
type Loader interface {
	LoadByID(names *classnames.Registry, id classnames.ClassId) (LoadResult, error)
}

// Chain tries each Loader in order, moving on after a recoverable miss
// and stopping immediately on a hard error or the first hit.
type Chain struct {
	Loaders []Loader
}

func (c *Chain) LoadByID(names *classnames.Registry, id classnames.ClassId) (LoadResult, error) {
	for _, l := range c.Loaders {
		res, err := l.LoadByID(names, id)
		if err != nil {
			return LoadResult{}, err
		}
		if res.Found || res.NoFile {
			return res, nil
		}
	}
	return LoadResult{}, nil
}

// DirLoader resolves classes laid out as "<root>/pkg/Class.class" under a
// classpath of directory roots, tried in order.
type DirLoader struct {
	Roots []string
}

func (d *DirLoader) LoadByID(names *classnames.Registry, id classnames.ClassId) (LoadResult, error) {
	name, info, err := names.NameFromId(id)
	if err != nil {
		return LoadResult{}, fmt.Errorf("dir loader: %w", err)
	}
	if info.IsArray {
		return LoadResult{NoFile: true}, nil
	}

	rel := filepath.FromSlash(name) + ".class"
	for _, root := range d.Roots {
		path := filepath.Join(root, rel)
		data, err := os.ReadFile(path)
		if err == nil {
			return LoadResult{Data: data, Found: true}, nil
		}
		if !os.IsNotExist(err) {
			return LoadResult{}, fmt.Errorf("dir loader: reading %s: %w", path, err)
		}
	}
	return LoadResult{}, nil
}
