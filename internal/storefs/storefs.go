// SPDX-License-Identifier: MPL-2.0

// Package storefs reads the store tree through io/fs. Every path it accepts or
// returns is slash separated and relative to the store root.
package storefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

const (
	// ConfigPHP lists the enabled modules of an installed store.
	ConfigPHP = "app/etc/config.php"
	// ComposerLock describes the packages installed under vendor/.
	ComposerLock = "composer.lock"
)

// ReadTree returns every regular file below dir, relative to the store root,
// in lexical order. A missing dir yields an empty result; any other error is
// returned as is.
func ReadTree(ctx context.Context, fsys fs.FS, dir string) ([]string, error) {
	dir = Clean(dir)

	var files []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", dir, err)
	}
	return files, nil
}

// ReadDirNames returns the names of the sub directories of dir. A missing dir
// yields an empty result.
func ReadDirNames(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, Clean(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Exists reports whether name exists. Errors other than fs.ErrNotExist are
// returned.
func Exists(fsys fs.FS, name string) (bool, error) {
	_, err := fs.Stat(fsys, Clean(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// IsStoreRoot reports whether fsys looks like an installed store.
func IsStoreRoot(fsys fs.FS) bool {
	for _, marker := range []string{ConfigPHP, ComposerLock} {
		if ok, _ := Exists(fsys, marker); ok {
			return true
		}
	}
	return false
}

// Clean turns a store path ("/app/code/..." or "app/code/...") into the
// form io/fs expects.
func Clean(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if p == "/" {
		return "."
	}
	return strings.TrimPrefix(p, "/")
}

// FromRoot returns p with the leading slash used in asset records.
func FromRoot(p string) string {
	return "/" + Clean(p)
}
