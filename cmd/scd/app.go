// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/scd-tools/scd/internal/config"
	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/issue"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra command handler receives an App
	// reference and reaches configuration and filesystems through it.
	App struct {
		Config ConfigProvider
		// Output opens the filesystem deployments are written to, rooted at dir.
		Output func(dir string) afero.Fs

		stdout io.Writer
		stderr io.Writer

		// Global flags.
		configPath string
		storeRoot  string
		verbose    bool

		logger *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Output func(dir string) afero.Fs
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Output: deps.Output,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Output == nil {
		app.Output = func(dir string) afero.Fs {
			return afero.NewBasePathFs(afero.NewOsFs(), dir)
		}
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// setupLogging installs the charmbracelet logger as the slog default and on
// the command context.
func (a *App) setupLogging(cmd *cobra.Command) {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	logger := slog.New(a.logger)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(ctxlog.WithLogger(ctx, logger))
}

// loadConfig loads the configuration and applies the global flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, &configError{err: err}
	}

	if a.storeRoot != "" {
		abs, err := filepath.Abs(a.storeRoot)
		if err != nil {
			return nil, fmt.Errorf("resolve --store: %w", err)
		}
		cfg.StoreRoot = config.StoreRoot(abs)
	}

	if a.logger != nil && !a.verbose {
		if level, err := log.ParseLevel(cfg.LogLevel.String()); err == nil {
			a.logger.SetLevel(level)
		}
	}
	return cfg, nil
}

// store opens the configured store root.
func (a *App) store(cfg *config.Config) (fs.FS, error) {
	root := string(cfg.StoreRoot)
	info, err := os.Stat(root)
	if err == nil && !info.IsDir() {
		err = errors.New("not a directory")
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open store").
			WithResource(root).
			WithSuggestion("Set store_root in scd.cue or pass --store").
			WithIssue(issue.StoreRootNotFoundId).
			Wrap(err).
			BuildError()
	}
	return os.DirFS(root), nil
}

// report renders err on stderr without ending the command.
func (a *App) report(err error) {
	renderServiceError(a.stderr, toServiceError(err, a.verbose), a.verbose)
}

// fail renders err on stderr and returns the ExitError the command should
// return. Config errors exit with 2, everything else with 1.
func (a *App) fail(cmd *cobra.Command, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	a.report(err)

	code := 1
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		code = 2
	}
	return &ExitError{Code: code}
}

// configError marks failures to load or validate configuration.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }
