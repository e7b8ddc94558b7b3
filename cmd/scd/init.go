// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scd-tools/scd/internal/config"
	"github.com/scd-tools/scd/internal/issue"
)

type initOptions struct {
	themes    []string
	locales   []string
	storeRoot string
	compiler  string
	force     bool
}

func newInitCommand(app *App) *cobra.Command {
	var opts initOptions

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an scd.cue configuration",
		Long: `Create an scd.cue configuration in the current directory (or at --config).

Every --theme is deployed for every --locale; without --locale the themes
are deployed for ` + config.DefaultLocale + `.`,
		Example: `  scd init --theme Magento/luma --locale en_US --locale de_DE
  scd init --theme Magento/luma --theme Magento/backend --less-compiler lessc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := runInit(app, opts)
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().StringSliceVar(&opts.themes, "theme", nil, "theme id to deploy, e.g. Magento/luma (repeatable)")
	initCmd.Flags().StringSliceVar(&opts.locales, "locale", nil, "locale to deploy (repeatable)")
	initCmd.Flags().StringVar(&opts.storeRoot, "store-root", "", "store root (default: the directory holding scd.cue)")
	initCmd.Flags().StringVar(&opts.compiler, "less-compiler", "", "external stylesheet compiler command")
	initCmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing file")
	_ = initCmd.MarkFlagRequired("theme")

	return initCmd
}

func runInit(app *App, opts initOptions) (string, error) {
	cfg := config.DefaultConfig()
	cfg.StoreRoot = config.StoreRoot(opts.storeRoot)
	cfg.Less.Compiler = opts.compiler

	locales := make([]config.Locale, len(opts.locales))
	for i, l := range opts.locales {
		locales[i] = config.Locale(l)
	}
	for _, name := range opts.themes {
		theme := config.ThemeConfig{Name: name, Locales: locales}
		if valid, errs := theme.IsValid(); !valid {
			return "", errs[0]
		}
		cfg.Themes = append(cfg.Themes, theme)
	}

	path := app.configPath
	if path == "" {
		path = config.ConfigFileName
	}
	if err := config.Write(path, cfg, opts.force); err != nil {
		ec := issue.NewErrorContext().
			WithOperation("write configuration").
			WithResource(path).
			Wrap(err)
		if errors.Is(err, config.ErrConfigExists) {
			ec.WithSuggestion("Pass --force to overwrite it")
		}
		return "", ec.BuildError()
	}
	return path, nil
}
