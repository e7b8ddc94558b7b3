// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/scd-tools/scd/internal/build"
	"github.com/scd-tools/scd/internal/component"
)

func newThemesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List installed themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runThemes(cmd.Context(), app); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}
}

func newModulesCommand(app *App) *cobra.Command {
	var all bool

	modulesCmd := &cobra.Command{
		Use:   "modules",
		Short: "List enabled modules in load order",
		Long: `List enabled modules in load order.

The order follows the <sequence> declarations in each module's etc/module.xml.
Modules that become ready together are listed by module id. With --all,
disabled modules and modules that are enabled in app/etc/config.php but not
installed are listed too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runModules(cmd.Context(), app, all); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}
	modulesCmd.Flags().BoolVar(&all, "all", false, "include disabled and missing modules")

	return modulesCmd
}

func inspectStore(ctx context.Context, app *App) (*build.Catalog, error) {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	store, err := app.store(cfg)
	if err != nil {
		return nil, err
	}
	return build.Inspect(ctx, store)
}

func runThemes(ctx context.Context, app *App) error {
	catalog, err := inspectStore(ctx, app)
	if err != nil {
		return err
	}

	themes := slices.Clone(catalog.Components.Themes)
	slices.SortFunc(themes, func(a, b component.Theme) int {
		if c := strings.Compare(string(a.Area), string(b.Area)); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})

	if len(themes) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("No themes installed."))
		return nil
	}

	rows := make([][]string, len(themes))
	for i, t := range themes {
		parent := string(t.Parent)
		if parent == "" {
			parent = "-"
		}
		rows[i] = []string{string(t.Area), string(t.ID), parent, t.Path}
	}
	fmt.Fprintln(app.stdout, newTable("AREA", "THEME", "PARENT", "PATH").Rows(rows...).Render())
	return nil
}

func runModules(ctx context.Context, app *App, all bool) error {
	catalog, err := inspectStore(ctx, app)
	if err != nil {
		return err
	}

	if !all {
		for i, id := range catalog.Enabled {
			fmt.Fprintf(app.stdout, "%3d. %s\n", i+1, id)
		}
		return nil
	}

	enabled := make(map[component.ModuleID]bool, len(catalog.Enabled))
	for _, id := range catalog.Enabled {
		enabled[id] = true
	}
	rows := make([][]string, 0, len(catalog.Sequence)+len(catalog.Unknown))
	for _, m := range catalog.Sequence {
		status := "disabled"
		if enabled[m.ID] {
			status = "enabled"
		}
		rows = append(rows, []string{string(m.ID), status, m.Path})
	}
	for _, id := range catalog.Unknown {
		rows = append(rows, []string{string(id), "missing", "-"})
	}
	fmt.Fprintln(app.stdout, newTable("MODULE", "STATUS", "PATH").Rows(rows...).Render())
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}
