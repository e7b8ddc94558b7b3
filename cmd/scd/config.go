// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scd-tools/scd/internal/config"
)

// newConfigCommand creates the `scd config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect scd configuration",
		Long: `Inspect scd configuration.

Configuration is read from the nearest scd.cue, searching upward from the
current directory, and can be overridden with SCD_* environment variables
(for example SCD_OUTPUT_DIR or SCD_LESS_COMPILER).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			if cfg.File == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no "+config.ConfigFileName+" found, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, cfg.File)
			return nil
		},
	})

	return cfgCmd
}
