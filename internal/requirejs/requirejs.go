// SPDX-License-Identifier: MPL-2.0

// Package requirejs merges the requirejs-config.js files of the enabled
// modules and a theme chain into the single file a deployed theme serves.
package requirejs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/storefs"
)

// FileName is the name of both the source files and the merged output.
const FileName = "requirejs-config.js"

// themeModuleContext is the only module context whose config a theme may override.
const themeModuleContext = "Magento_Theme"

// Source is one requirejs-config.js that contributes to the merged file.
type Source struct {
	// PathFromStoreRoot has a leading slash.
	PathFromStoreRoot string
	Contents          string
}

// Sources returns the config files that exist, in merge order: for each
// module view/base then view/<area>, then each theme's Magento_Theme
// override (base theme first), then each theme's own file (base theme first).
func Sources(ctx context.Context, fsys fs.FS, hierarchy []component.Theme, modules []component.Module) ([]Source, error) {
	if len(hierarchy) == 0 {
		return nil, errors.New("requirejs: empty theme hierarchy")
	}
	area := hierarchy[len(hierarchy)-1].Area

	var paths []string
	for _, m := range modules {
		paths = append(paths,
			path.Join(m.Path, "view", string(component.AreaBase), FileName),
			path.Join(m.Path, "view", string(area), FileName),
		)
	}
	for _, t := range hierarchy {
		paths = append(paths, path.Join(t.Path, themeModuleContext, FileName))
	}
	for _, t := range hierarchy {
		paths = append(paths, path.Join(t.Path, FileName))
	}

	contents := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, storefs.Clean(p))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return fmt.Errorf("read %s: %w", p, err)
			}
			contents[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sources []Source
	for i, p := range paths {
		if strings.TrimSpace(contents[i]) == "" {
			continue
		}
		sources = append(sources, Source{PathFromStoreRoot: storefs.FromRoot(p), Contents: contents[i]})
	}
	return sources, nil
}

// Generate returns the merged config for hierarchy, whose last entry is the
// theme being deployed. modules must be the enabled modules in sequence
// order.
func Generate(ctx context.Context, fsys fs.FS, hierarchy []component.Theme, modules []component.Module) (string, error) {
	sources, err := Sources(ctx, fsys, hierarchy, modules)
	if err != nil {
		return "", err
	}
	ctxlog.FromContext(ctx).Debug("merged requirejs config", "sources", len(sources))
	return Merge(sources), nil
}

// Merge wraps each source in its own function scope so that every file can
// declare its own `config` variable.
func Merge(sources []Source) string {
	var sb strings.Builder
	for _, s := range sources {
		sb.WriteString("(function() {\n")
		fmt.Fprintf(&sb, "    /* Source: %s */\n", s.PathFromStoreRoot)
		sb.WriteString("    ")
		sb.WriteString(s.Contents)
		sb.WriteString("\n    require.config(config);\n")
		sb.WriteString("})();\n\n")
	}
	return sb.String()
}
