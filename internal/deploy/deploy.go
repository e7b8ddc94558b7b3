// SPDX-License-Identifier: MPL-2.0

// Package deploy writes a resolved theme to its output directory.
package deploy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/storefs"
	"github.com/scd-tools/scd/internal/stylesheet"
)

// DefaultConcurrency bounds concurrent file writes.
const DefaultConcurrency = 16

type (
	// Plan is everything Write puts into one output directory.
	Plan struct {
		// OutDir is a path on the destination filesystem.
		OutDir string
		Tree   *asset.Tree
		// Generated assets replace tree assets at the same final path.
		Generated []stylesheet.GeneratedAsset
		// Remove lists final paths that are not written.
		Remove      []string
		Concurrency int
	}

	// Report summarises a Write.
	Report struct {
		OutDir    string
		Copied    int
		Generated int
		Skipped   int
		Bytes     int64
	}
)

// OutputDir returns <base>/<area>/<Vendor>/<name>/<locale>.
func OutputDir(base string, theme component.Theme, locale string) string {
	return filepath.Join(base, string(theme.Area), theme.Vendor, theme.Name, locale)
}

// Write clears plan.OutDir and fills it: tree assets are copied from src,
// generated assets are written from memory.
func Write(ctx context.Context, src fs.FS, dst afero.Fs, plan Plan) (*Report, error) {
	exists, err := afero.Exists(dst, plan.OutDir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", plan.OutDir, err)
	}
	if exists {
		if err := dst.RemoveAll(plan.OutDir); err != nil {
			return nil, fmt.Errorf("clear %s: %w", plan.OutDir, err)
		}
	}
	if err := dst.MkdirAll(plan.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", plan.OutDir, err)
	}

	skip := make(map[string]bool, len(plan.Generated)+len(plan.Remove))
	for _, p := range plan.Remove {
		skip[path.Clean(p)] = true
	}
	generated := make(map[string]bool, len(plan.Generated))
	for _, g := range plan.Generated {
		generated[g.FinalPath] = true
	}

	limit := plan.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		report  = &Report{OutDir: plan.OutDir}
		copied  atomic.Int64
		written atomic.Int64
		bytes   atomic.Int64
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for p, a := range plan.Tree.All() {
		if skip[p] {
			skipped++
			continue
		}
		if generated[p] {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := copyAsset(src, dst, a, target(plan.OutDir, p))
			if err != nil {
				return err
			}
			copied.Add(1)
			bytes.Add(n)
			return nil
		})
	}
	for _, ga := range plan.Generated {
		if skip[ga.FinalPath] {
			skipped++
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dest := target(plan.OutDir, ga.FinalPath)
			if err := dst.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
			}
			if err := afero.WriteFile(dst, dest, []byte(ga.Source), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			written.Add(1)
			bytes.Add(int64(len(ga.Source)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Copied = int(copied.Load())
	report.Generated = int(written.Load())
	report.Skipped = skipped
	report.Bytes = bytes.Load()

	ctxlog.FromContext(ctx).Debug("wrote theme",
		"out", report.OutDir, "copied", report.Copied, "generated", report.Generated,
		"skipped", report.Skipped, "bytes", report.Bytes)
	return report, nil
}

func target(outDir, finalPath string) string {
	return filepath.Join(outDir, filepath.FromSlash(finalPath))
}

func copyAsset(src fs.FS, dst afero.Fs, a asset.StaticAsset, dest string) (int64, error) {
	in, err := src.Open(storefs.Clean(a.PathFromStoreRoot))
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", a.PathFromStoreRoot, err)
	}
	defer in.Close()

	if err := dst.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	out, err := dst.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("copy %s to %s: %w", a.PathFromStoreRoot, dest, err)
	}
	return n, nil
}
