// SPDX-License-Identifier: MPL-2.0

// Package overlay merges the static assets of the shared library, the
// enabled modules and a theme's inheritance chain into one asset.Tree.
//
// Contributions are folded lowest precedence first:
//
//	lib/web
//	  < module view/base/web < module view/<area>/web   (module order)
//	  < ancestor theme < ... < the theme itself          (base first)
//
// and within each theme, the enabled modules' <Vendor_Module>/web override
// directories come before the theme's own web directory.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/storefs"
)

// DefaultConcurrency bounds the number of directories crawled at once.
const DefaultConcurrency = 16

// ErrUnknownModule is the sentinel error wrapped by UnknownModuleError.
var ErrUnknownModule = errors.New("enabled module is not installed")

type (
	// Options selects what Build merges.
	Options struct {
		Theme      component.Theme
		Components *component.Components
		// EnabledModules must already be in sequence order.
		EnabledModules []component.ModuleID
		// Concurrency bounds concurrent crawls; DefaultConcurrency when <= 0.
		Concurrency int
	}

	// UnknownModuleError is returned when an enabled module id does not name
	// a discovered module.
	UnknownModuleError struct {
		IDs []component.ModuleID
	}

	phase string

	// crawl is one directory read, in fold order.
	crawl struct {
		phase    phase
		dir      string
		classify func(p string) (asset.StaticAsset, error)
	}
)

const (
	phaseRoot    phase = "root"
	phaseModules phase = "modules"
	phaseThemes  phase = "themes"
)

func (e *UnknownModuleError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = string(id)
	}
	return fmt.Sprintf("enabled modules not installed: %s", strings.Join(ids, ", "))
}

// Unwrap returns ErrUnknownModule for errors.Is() compatibility.
func (e *UnknownModuleError) Unwrap() error { return ErrUnknownModule }

// Build crawls every contributing directory concurrently and folds the
// results in precedence order. Missing optional directories contribute
// nothing; any other read error aborts the build.
func Build(ctx context.Context, fsys fs.FS, opts Options) (*asset.Tree, error) {
	if opts.Components == nil {
		return nil, errors.New("overlay: no components")
	}
	if unknown := component.UnknownModules(opts.Components, opts.EnabledModules); len(unknown) > 0 {
		return nil, &UnknownModuleError{IDs: unknown}
	}

	hierarchy, err := component.ResolveThemeHierarchy(opts.Theme, opts.Components.Themes)
	if err != nil {
		return nil, err
	}

	crawls := plan(opts, hierarchy)
	results := make([][]asset.StaticAsset, len(crawls))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range crawls {
		g.Go(func() error {
			assets, err := c.run(gctx, fsys)
			results[i] = assets
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	tree := &asset.Tree{}
	counts := make(map[phase]int)
	for i, c := range crawls {
		for _, a := range results[i] {
			tree.Set(a)
		}
		counts[c.phase] += len(results[i])
	}
	logger.Debug("built asset tree",
		"theme", opts.Theme.ID,
		"chain", len(hierarchy),
		string(phaseRoot), counts[phaseRoot],
		string(phaseModules), counts[phaseModules],
		string(phaseThemes), counts[phaseThemes],
		"paths", tree.Len())
	return tree, nil
}

// plan lists the crawls in fold order.
func plan(opts Options, hierarchy []component.Theme) []crawl {
	crawls := []crawl{{
		phase:    phaseRoot,
		dir:      asset.RootWebDir,
		classify: asset.ClassifyRootPath,
	}}

	for _, id := range opts.EnabledModules {
		m := opts.Components.Modules[id]
		for _, area := range []component.Area{component.AreaBase, opts.Theme.Area} {
			crawls = append(crawls, crawl{
				phase: phaseModules,
				dir:   m.ViewWebDir(area),
				classify: func(p string) (asset.StaticAsset, error) {
					return asset.ClassifyModulePath(p, m)
				},
			})
		}
	}

	for _, theme := range hierarchy {
		classify := func(p string) (asset.StaticAsset, error) {
			return asset.ClassifyThemePath(p, theme)
		}
		for _, id := range opts.EnabledModules {
			crawls = append(crawls, crawl{phase: phaseThemes, dir: theme.ModuleWebDir(id), classify: classify})
		}
		crawls = append(crawls, crawl{phase: phaseThemes, dir: theme.WebDir(), classify: classify})
	}
	return crawls
}

func (c crawl) run(ctx context.Context, fsys fs.FS) ([]asset.StaticAsset, error) {
	files, err := storefs.ReadTree(ctx, fsys, c.dir)
	if err != nil {
		return nil, err
	}
	assets := make([]asset.StaticAsset, 0, len(files))
	for _, f := range files {
		a, err := c.classify(f)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}
