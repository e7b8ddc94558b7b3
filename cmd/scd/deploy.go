// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/scd-tools/scd/internal/build"
	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/config"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/issue"
	"github.com/scd-tools/scd/internal/stylesheet"
	"github.com/scd-tools/scd/internal/watch"
)

func newDeployCommand(app *App) *cobra.Command {
	var (
		locales  []string
		watching bool
	)

	deployCmd := &cobra.Command{
		Use:   "deploy [theme...]",
		Short: "Deploy themes to the output directory",
		Long: `Deploy themes to the output directory.

Without arguments every theme listed in scd.cue is deployed. Each theme is
written to <output_dir>/<area>/<Vendor>/<name>/<locale>; an existing
directory is replaced.

With --watch, scd keeps running after the first deployment and deploys again
whenever a module view, theme or lib/web file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runDeploy(cmd.Context(), app, args, locales, watching); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}
	deployCmd.Flags().StringSliceVarP(&locales, "locale", "l", nil, "locales to deploy (overrides the configured ones)")
	deployCmd.Flags().BoolVarP(&watching, "watch", "w", false, "deploy again when store sources change")

	return deployCmd
}

// deployment is a resolved `scd deploy` invocation.
type deployment struct {
	cfg      *config.Config
	targets  []config.ThemeConfig
	locales  []string
	store    fs.FS
	compiler stylesheet.Compiler
}

func runDeploy(ctx context.Context, app *App, args, locales []string, watchStore bool) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	targets, err := deployTargets(cfg, args)
	if err != nil {
		return err
	}

	store, err := app.store(cfg)
	if err != nil {
		return err
	}

	var compiler stylesheet.Compiler
	if cfg.Less.Compiler != "" {
		ec, err := stylesheet.NewExecCompiler(cfg.Less.Compiler)
		if err != nil {
			return err
		}
		compiler = ec
	}

	d := &deployment{cfg: cfg, targets: targets, locales: locales, store: store, compiler: compiler}
	err = app.deploy(ctx, d)
	if !watchStore {
		return err
	}
	if err != nil {
		// Watch mode keeps running after a failed first deploy.
		app.report(err)
	}
	return app.watch(ctx, d)
}

func (a *App) deploy(ctx context.Context, d *deployment) error {
	out := a.Output(d.cfg.ResolvedOutputDir())
	for _, target := range d.targets {
		want := localeStrings(target.LocaleList())
		if len(d.locales) > 0 {
			want = d.locales
		}

		result, err := build.Run(ctx, build.Request{
			Store:       d.store,
			Theme:       component.ThemeID(target.Name),
			Locales:     want,
			Output:      out,
			Exclude:     excludeStrings(d.cfg.Exclude),
			Compiler:    d.compiler,
			Entries:     d.cfg.Less.Entries,
			Concurrency: d.cfg.Concurrency,
		})
		if err != nil {
			return err
		}

		for i, report := range result.Reports {
			fmt.Fprintf(a.stdout, "%s %s %s: %d files, %d bytes\n",
				SuccessStyle.Render("✓"),
				CmdStyle.Render(target.Name),
				want[i],
				report.Copied+report.Generated,
				report.Bytes)
		}
		for _, css := range result.Compiled {
			fmt.Fprintf(a.stdout, "  compiled %s\n", css)
		}
	}
	return nil
}

// watch redeploys d on every settled batch of store changes until ctx is
// canceled. A failed redeploy is reported and watching continues.
func (a *App) watch(ctx context.Context, d *deployment) error {
	root := string(d.cfg.StoreRoot)
	w, err := watch.New(ctx, watch.Config{
		Root: root,
		OnChange: func(ctx context.Context, changed []string) error {
			ctxlog.FromContext(ctx).Debug("store changed", "paths", changed)
			fmt.Fprintf(a.stdout, "%s Detected %d change(s), deploying\n", CmdStyle.Render("→"), len(changed))
			if err := a.deploy(ctx, d); err != nil {
				a.report(err)
			}
			return nil
		},
	})
	if err == nil {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("Watching "+root+" for changes. Press Ctrl+C to stop."))
		err = w.Run(ctx)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("watch store").
			WithResource(root).
			WithSuggestion("On Linux, raise fs.inotify.max_user_watches for large stores").
			Wrap(err).
			BuildError()
	}
	return nil
}

// deployTargets picks the themes named on the command line, or every
// configured theme when none are named.
func deployTargets(cfg *config.Config, args []string) ([]config.ThemeConfig, error) {
	if len(args) == 0 {
		if len(cfg.Themes) == 0 {
			ec := issue.NewErrorContext().
				WithOperation("deploy").
				WithSuggestion("Name a theme: scd deploy Magento/luma").
				WithSuggestion("Or list themes in scd.cue: scd init --theme Magento/luma").
				Wrap(errors.New("no themes configured"))
			if cfg.File == "" {
				ec.WithIssue(issue.ConfigNotFoundId)
			}
			return nil, ec.BuildError()
		}
		return cfg.Themes, nil
	}

	targets := make([]config.ThemeConfig, 0, len(args))
	for _, name := range args {
		target, ok := cfg.Theme(name)
		if !ok {
			target = config.ThemeConfig{Name: name}
		}
		if valid, errs := target.IsValid(); !valid {
			return nil, errs[0]
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func localeStrings(locales []config.Locale) []string {
	out := make([]string, len(locales))
	for i, l := range locales {
		out[i] = string(l)
	}
	return out
}

func excludeStrings(patterns []config.ExcludePattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = string(p)
	}
	return out
}
