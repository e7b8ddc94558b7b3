// SPDX-License-Identifier: MPL-2.0

package stylesheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/rewrite"
	"github.com/scd-tools/scd/internal/storefs"
)

// Extension is the stylesheet source extension.
const Extension = ".less"

// ErrNotInTree is the sentinel error wrapped by NotInTreeError.
var ErrNotInTree = errors.New("stylesheet import not in asset tree")

type (
	// GeneratedAsset is a file produced in memory, deployed at FinalPath
	// instead of any tree asset there.
	GeneratedAsset struct {
		FinalPath string
		Source    string
	}

	// Result is the output of Preprocess.
	Result struct {
		Generated []GeneratedAsset
	}

	// Resolver resolves stylesheet imports against an asset tree.
	Resolver struct {
		fsys fs.FS
		tree *asset.Tree
	}

	// NotInTreeError is returned when an import names a path the tree does
	// not hold.
	NotInTreeError struct {
		FinalPath string
	}
)

func (e *NotInTreeError) Error() string {
	return fmt.Sprintf("%s is not part of the deployed theme", e.FinalPath)
}

// Unwrap returns ErrNotInTree for errors.Is() compatibility.
func (e *NotInTreeError) Unwrap() error { return ErrNotInTree }

// NewResolver returns a Resolver reading sources from fsys.
func NewResolver(fsys fs.FS, tree *asset.Tree) *Resolver {
	return &Resolver{fsys: fsys, tree: tree}
}

// Resolve returns the asset an import of filename from a file in currentDir
// refers to. Extensionless names get ".less".
func (r *Resolver) Resolve(currentDir, filename string) (asset.StaticAsset, error) {
	finalPath := path.Join(currentDir, filename)
	if path.Ext(finalPath) == "" {
		finalPath += Extension
	}
	a, ok := r.tree.Get(finalPath)
	if !ok {
		return asset.StaticAsset{}, &NotInTreeError{FinalPath: finalPath}
	}
	return a, nil
}

// Load resolves an import and returns the source with its final path.
func (r *Resolver) Load(currentDir, filename string) (source, finalPath string, err error) {
	a, err := r.Resolve(currentDir, filename)
	if err != nil {
		return "", "", err
	}
	data, err := fs.ReadFile(r.fsys, storefs.Clean(a.PathFromStoreRoot))
	if err != nil {
		return "", "", fmt.Errorf("load %s: %w", a.FinalPath, err)
	}
	return string(data), a.FinalPath, nil
}

// Preprocess rewrites every .less asset of tree that contains an
// @magento_import directive. The rewritten sources are returned in tree order.
func Preprocess(ctx context.Context, fsys fs.FS, tree *asset.Tree) (*Result, error) {
	var sources []asset.StaticAsset
	for p, a := range tree.All() {
		if path.Ext(p) == Extension {
			sources = append(sources, a)
		}
	}

	generated := make([]*GeneratedAsset, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for i, a := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, storefs.Clean(a.PathFromStoreRoot))
			if err != nil {
				return fmt.Errorf("read %s: %w", a.PathFromStoreRoot, err)
			}
			src := string(data)
			if !rewrite.HasImportDirective(src) {
				return nil
			}
			generated[i] = &GeneratedAsset{
				FinalPath: a.FinalPath,
				Source:    rewrite.ImportDirectives(a.FinalPath, src, tree),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, ga := range generated {
		if ga != nil {
			result.Generated = append(result.Generated, *ga)
		}
	}
	ctxlog.FromContext(ctx).Debug("preprocessed stylesheets",
		"sources", len(sources), "rewritten", len(result.Generated))
	return result, nil
}
