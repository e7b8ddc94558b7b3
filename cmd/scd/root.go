// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scd",
		Short: "Static content deploy for layered storefronts",
		Long: TitleStyle.Render("scd") + SubtitleStyle.Render(" - static content deploy for layered storefronts") + `

scd merges the web assets of a store's library, its enabled modules and a
theme's whole inheritance chain into one directory per locale, ready to be
served as static files.

` + SubtitleStyle.Render("Examples:") + `
  scd init --theme Magento/luma --locale en_US   Create scd.cue
  scd deploy                                     Deploy every configured theme
  scd tree Magento/luma --glob 'css/**'          Show where each asset comes from
  scd themes                                     List installed themes`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.setupLogging(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is the nearest scd.cue)")
	rootCmd.PersistentFlags().StringVar(&app.storeRoot, "store", "", "store root (overrides store_root)")

	rootCmd.AddCommand(newDeployCommand(app))
	rootCmd.AddCommand(newTreeCommand(app))
	rootCmd.AddCommand(newThemesCommand(app))
	rootCmd.AddCommand(newModulesCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newInitCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}
