// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/deploy"
	"github.com/scd-tools/scd/internal/overlay"
	"github.com/scd-tools/scd/internal/requirejs"
	"github.com/scd-tools/scd/internal/storefs"
	"github.com/scd-tools/scd/internal/stylesheet"
)

// ErrNoLocales is returned by Run when the request names no locale.
var ErrNoLocales = errors.New("no locales to deploy")

const (
	opOpenStore   = "open store"
	opReadEnabled = "read enabled modules"
)

type (
	// Request describes one theme deployment.
	Request struct {
		// Store is the store root.
		Store fs.FS
		Theme component.ThemeID
		// Locales each get their own copy of the theme.
		Locales []string

		// Output receives the deployed files under OutputDir.
		Output    afero.Fs
		OutputDir string

		// Exclude holds doublestar globs over final paths.
		Exclude []string

		// Compiler is optional; when set it runs over Entries after writing.
		Compiler stylesheet.Compiler
		Entries  []string

		Concurrency int
	}

	// Catalog is what a store has installed and switched on.
	Catalog struct {
		Components *component.Components
		// Sequence is every installed module in load order.
		Sequence []component.Module
		// Enabled are the enabled module ids in load order.
		Enabled []component.ModuleID
		// Unknown are ids enabled in config.php that are not installed.
		Unknown []component.ModuleID
	}

	// Layout is a planned theme: everything a deployment writes, before
	// anything is written.
	Layout struct {
		Theme     component.Theme
		Hierarchy []component.Theme
		// Modules are the enabled modules in load order.
		Modules   []component.Module
		Tree      *asset.Tree
		Generated []stylesheet.GeneratedAsset
		// Remove lists the final paths matched by an exclude pattern.
		Remove []string
	}

	// Result reports a finished Run.
	Result struct {
		Layout  *Layout
		Reports []*deploy.Report
		// Compiled lists the .css final paths the compiler produced.
		Compiled []string
	}
)

// Inspect discovers the installed components and orders the enabled modules.
func Inspect(ctx context.Context, store fs.FS) (*Catalog, error) {
	if !storefs.IsStoreRoot(store) {
		return nil, wrap(opOpenStore, "", fmt.Errorf("neither %s nor %s found", storefs.ConfigPHP, storefs.ComposerLock))
	}

	components, err := component.Discover(ctx, store)
	if err != nil {
		return nil, wrap("discover components", "", err)
	}
	enabled, err := component.EnabledModules(store)
	if err != nil {
		return nil, wrap(opReadEnabled, storefs.ConfigPHP, err)
	}
	sequence, err := component.ResolveModuleSequence(components.ModuleList())
	if err != nil {
		return nil, wrap("resolve module sequence", "", err)
	}

	return &Catalog{
		Components: components,
		Sequence:   sequence,
		Enabled:    component.OrderEnabled(sequence, enabled),
		Unknown:    component.UnknownModules(components, enabled),
	}, nil
}

// Plan resolves the theme and computes everything Run would write.
func Plan(ctx context.Context, req Request) (*Layout, error) {
	catalog, err := Inspect(ctx, req.Store)
	if err != nil {
		return nil, err
	}
	return plan(ctx, req, catalog)
}

func plan(ctx context.Context, req Request, catalog *Catalog) (*Layout, error) {
	if len(catalog.Unknown) > 0 {
		return nil, wrap("build asset tree", string(req.Theme), &overlay.UnknownModuleError{IDs: catalog.Unknown})
	}

	theme, err := component.FindTheme(catalog.Components.Themes, req.Theme)
	if err != nil {
		return nil, wrap("find theme", string(req.Theme), err)
	}
	hierarchy, err := component.ResolveThemeHierarchy(theme, catalog.Components.Themes)
	if err != nil {
		return nil, wrap("resolve theme hierarchy", string(req.Theme), err)
	}

	tree, err := overlay.Build(ctx, req.Store, overlay.Options{
		Theme:          theme,
		Components:     catalog.Components,
		EnabledModules: catalog.Enabled,
		Concurrency:    req.Concurrency,
	})
	if err != nil {
		return nil, wrap("build asset tree", string(req.Theme), err)
	}

	modules := make([]component.Module, len(catalog.Enabled))
	for i, id := range catalog.Enabled {
		modules[i] = catalog.Components.Modules[id]
	}

	layout := &Layout{
		Theme:     theme,
		Hierarchy: hierarchy,
		Modules:   modules,
		Tree:      tree,
	}

	merged, err := requirejs.Generate(ctx, req.Store, hierarchy, modules)
	if err != nil {
		return nil, wrap("merge requirejs config", string(req.Theme), err)
	}
	if merged != "" {
		layout.Generated = append(layout.Generated, stylesheet.GeneratedAsset{FinalPath: requirejs.FileName, Source: merged})
	}

	preprocessed, err := stylesheet.Preprocess(ctx, req.Store, tree)
	if err != nil {
		return nil, wrap("preprocess stylesheets", string(req.Theme), err)
	}
	layout.Generated = append(layout.Generated, preprocessed.Generated...)

	layout.Remove, err = excluded(layout, req.Exclude)
	if err != nil {
		return nil, wrap("apply exclude patterns", "", err)
	}
	return layout, nil
}

// Run plans the theme and writes it for every requested locale.
func Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Locales) == 0 {
		return nil, wrap("deploy theme", string(req.Theme), ErrNoLocales)
	}

	layout, err := Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	result := &Result{Layout: layout}
	for _, locale := range req.Locales {
		outDir := deploy.OutputDir(req.OutputDir, layout.Theme, locale)
		report, err := deploy.Write(ctx, req.Store, req.Output, deploy.Plan{
			OutDir:      outDir,
			Tree:        layout.Tree,
			Generated:   layout.Generated,
			Remove:      layout.Remove,
			Concurrency: req.Concurrency,
		})
		if err != nil {
			return nil, wrap("write theme", outDir, err)
		}
		result.Reports = append(result.Reports, report)

		if req.Compiler != nil {
			compiled, err := compile(ctx, req, layout, outDir)
			if err != nil {
				return nil, wrap("compile stylesheets", outDir, err)
			}
			if result.Compiled == nil {
				result.Compiled = compiled
			}
		}

		logger.Info("deployed theme",
			"theme", layout.Theme.ID, "locale", locale,
			"files", report.Copied+report.Generated, "bytes", report.Bytes)
	}
	return result, nil
}

func compile(ctx context.Context, req Request, layout *Layout, outDir string) ([]string, error) {
	written := make(map[string]bool, layout.Tree.Len()+len(layout.Generated))
	for _, p := range layout.Tree.Paths() {
		written[p] = true
	}
	for _, g := range layout.Generated {
		written[g.FinalPath] = true
	}
	for _, p := range layout.Remove {
		delete(written, p)
	}

	dir := outDir
	if base, ok := req.Output.(*afero.BasePathFs); ok {
		dir = afero.FullBaseFsPath(base, outDir)
	}

	var compiled []string
	for _, entry := range req.Entries {
		if !written[entry] {
			ctxlog.FromContext(ctx).Debug("skipping stylesheet entry", "entry", entry, "reason", "not deployed")
			continue
		}
		if err := req.Compiler.Compile(ctx, dir, entry); err != nil {
			return nil, err
		}
		compiled = append(compiled, stylesheet.CSSPath(entry))
	}
	return compiled, nil
}

func excluded(layout *Layout, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%q: %w", p, doublestar.ErrBadPattern)
		}
	}

	candidates := layout.Tree.Paths()
	for _, g := range layout.Generated {
		if _, ok := layout.Tree.Get(g.FinalPath); !ok {
			candidates = append(candidates, g.FinalPath)
		}
	}

	var remove []string
	for _, p := range candidates {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, p); ok {
				remove = append(remove, p)
				break
			}
		}
	}
	return remove, nil
}

