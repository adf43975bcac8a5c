/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/jacobin-run/rho/classnames"
	"github.com/jacobin-run/rho/manifest"
)

// JarLoader resolves classes from a single JAR (zip) archive and exposes
// its META-INF/MANIFEST.MF as a key-value tree.
type JarLoader struct {
	path     string
	zr       *zip.ReadCloser
	byName   map[string]*zip.File
	Manifest manifest.Manifest
}

// OpenJarLoader opens path as a zip archive, indexes its entries by
// class-file relative path, and parses the manifest if present.
func OpenJarLoader(path string) (*JarLoader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening jar %s: %w", path, err)
	}

	jl := &JarLoader{path: path, zr: zr, byName: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		jl.byName[f.Name] = f
	}

	if mf, ok := jl.byName["META-INF/MANIFEST.MF"]; ok {
		rc, err := mf.Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("opening manifest in %s: %w", path, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("reading manifest in %s: %w", path, err)
		}
		m, err := manifest.Parse(raw)
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("parsing manifest in %s: %w", path, err)
		}
		jl.Manifest = m
	}

	return jl, nil
}

// Close releases the underlying zip reader.
func (jl *JarLoader) Close() error { return jl.zr.Close() }

func (jl *JarLoader) LoadByID(names *classnames.Registry, id classnames.ClassId) (LoadResult, error) {
	name, info, err := names.NameFromId(id)
	if err != nil {
		return LoadResult{}, fmt.Errorf("jar loader: %w", err)
	}
	if info.IsArray {
		return LoadResult{NoFile: true}, nil
	}

	entry, ok := jl.byName[name+".class"]
	if !ok {
		return LoadResult{}, nil
	}

	rc, err := entry.Open()
	if err != nil {
		return LoadResult{}, fmt.Errorf("jar loader: opening %s in %s: %w", name, jl.path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return LoadResult{}, fmt.Errorf("jar loader: reading %s in %s: %w", name, jl.path, err)
	}
	return LoadResult{Data: data, Found: true}, nil
}

// MainClass returns the manifest's Main-Class attribute, if any.
func (jl *JarLoader) MainClass() (string, bool) {
	return jl.Manifest.Get("Main-Class")
}
