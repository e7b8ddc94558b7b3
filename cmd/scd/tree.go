// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/scd-tools/scd/internal/build"
	"github.com/scd-tools/scd/internal/component"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"

	kindGenerated = "Generated"
)

type (
	// treeEntry is one line of `scd tree` output.
	treeEntry struct {
		FinalPath string `json:"final_path" toml:"final_path"`
		Source    string `json:"source,omitempty" toml:"source,omitempty"`
		Kind      string `json:"kind" toml:"kind"`
		Owner     string `json:"owner,omitempty" toml:"owner,omitempty"`
		// Generated is set when the deployed contents are produced in memory.
		Generated bool `json:"generated,omitempty" toml:"generated,omitempty"`
	}

	treeDocument struct {
		Theme  string      `toml:"theme"`
		Assets []treeEntry `toml:"assets"`
	}
)

func newTreeCommand(app *App) *cobra.Command {
	var format, glob string

	treeCmd := &cobra.Command{
		Use:   "tree <theme>",
		Short: "Show the merged asset tree of a theme",
		Long: `Show the merged asset tree of a theme without writing anything.

Each line names a deployed path and the store file it is copied from.
Generated entries (rewritten stylesheets, the merged requirejs config) are
marked as such.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runTree(cmd.Context(), app, args[0], format, glob); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}
	treeCmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or toml")
	treeCmd.Flags().StringVar(&glob, "glob", "", "only show final paths matching this pattern")

	return treeCmd
}

func runTree(ctx context.Context, app *App, theme, format, glob string) error {
	switch format {
	case formatText, formatJSON, formatTOML:
	default:
		return fmt.Errorf("unknown format %q (valid: text, json, toml)", format)
	}
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return fmt.Errorf("invalid --glob pattern %q", glob)
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	store, err := app.store(cfg)
	if err != nil {
		return err
	}

	layout, err := build.Plan(ctx, build.Request{
		Store:       store,
		Theme:       component.ThemeID(theme),
		Exclude:     excludeStrings(cfg.Exclude),
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	entries := treeEntries(layout, glob)
	return writeTree(app.stdout, theme, entries, format)
}

// treeEntries lists the layout in tree order followed by generated-only
// paths, leaving out excluded paths and paths that do not match glob.
func treeEntries(layout *build.Layout, glob string) []treeEntry {
	removed := make(map[string]bool, len(layout.Remove))
	for _, p := range layout.Remove {
		removed[p] = true
	}
	generated := make(map[string]bool, len(layout.Generated))
	for _, g := range layout.Generated {
		generated[g.FinalPath] = true
	}
	keep := func(p string) bool {
		if removed[p] {
			return false
		}
		if glob == "" {
			return true
		}
		ok, _ := doublestar.Match(glob, p)
		return ok
	}

	var entries []treeEntry
	for p, a := range layout.Tree.All() {
		if !keep(p) {
			continue
		}
		entries = append(entries, treeEntry{
			FinalPath: p,
			Source:    a.PathFromStoreRoot,
			Kind:      a.Kind.String(),
			Owner:     a.Owner(),
			Generated: generated[p],
		})
	}
	for _, g := range layout.Generated {
		if _, inTree := layout.Tree.Get(g.FinalPath); inTree || !keep(g.FinalPath) {
			continue
		}
		entries = append(entries, treeEntry{FinalPath: g.FinalPath, Kind: kindGenerated, Generated: true})
	}
	return entries
}

func writeTree(w io.Writer, theme string, entries []treeEntry, format string) error {
	switch format {
	case formatJSON:
		if entries == nil {
			entries = []treeEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatTOML:
		data, err := toml.Marshal(treeDocument{Theme: theme, Assets: entries})
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		for _, e := range entries {
			source := e.Source
			switch {
			case source == "":
				source = "(generated)"
			case e.Generated:
				source += " (rewritten)"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", e.FinalPath, source); err != nil {
				return err
			}
		}
		return nil
	}
}
