// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"github.com/spf13/viper"

	"github.com/scd-tools/scd/internal/cueutil"
	"github.com/scd-tools/scd/internal/issue"
)

const (
	// AppName is the application name, also the environment variable prefix.
	AppName = "scd"
	// ConfigFileName is the name of the config file.
	ConfigFileName = "scd.cue"
)

// ErrConfigExists is returned by Write when the target file already exists.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema string

// Load is shorthand for NewProvider().Load.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, opts)
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("store_root", string(defaults.StoreRoot))
	v.SetDefault("themes", defaults.Themes)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("less.entries", defaults.Less.Entries)
	v.SetDefault("less.compiler", defaults.Less.Compiler)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("log_level", string(defaults.LogLevel))

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Create one with 'scd init --theme <Vendor/name>'").
				WithIssue(issue.ConfigNotFoundId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		resolvedPath = FindFile(workDir)
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = resolvedPath

	base := workDir
	if resolvedPath != "" {
		abs, err := filepath.Abs(resolvedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", resolvedPath, err)
		}
		base = filepath.Dir(abs)
	}
	switch {
	case cfg.StoreRoot == "":
		cfg.StoreRoot = StoreRoot(base)
	case !filepath.IsAbs(string(cfg.StoreRoot)):
		cfg.StoreRoot = StoreRoot(filepath.Join(base, string(cfg.StoreRoot)))
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the fields named above").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// FindFile looks for scd.cue in dir and each of its parents, returning the
// first match or "" when the filesystem root is reached.
func FindFile(dir string) string {
	dir = filepath.Clean(dir)
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if fileExists(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// The decode target is a map (not a Config) so that Viper keeps ownership of
// defaults and environment overrides.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// Write saves cfg as CUE to path. An existing file is only replaced when
// force is set.
func Write(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// scd configuration\n\n")

	if cfg.StoreRoot != "" {
		sb.WriteString(fmt.Sprintf("store_root: %q\n", cfg.StoreRoot))
	}

	// Themes
	sb.WriteString("\nthemes: [\n")
	for _, theme := range cfg.Themes {
		if len(theme.Locales) == 0 {
			sb.WriteString(fmt.Sprintf("\t{name: %q},\n", theme.Name))
			continue
		}
		quoted := make([]string, len(theme.Locales))
		for i, l := range theme.Locales {
			quoted[i] = fmt.Sprintf("%q", l)
		}
		sb.WriteString(fmt.Sprintf("\t{name: %q, locales: [%s]},\n", theme.Name, strings.Join(quoted, ", ")))
	}
	sb.WriteString("]\n")

	sb.WriteString(fmt.Sprintf("\noutput_dir: %q\n", cfg.OutputDir))

	// Stylesheets
	sb.WriteString("\nless: {\n")
	sb.WriteString("\tentries: [")
	for i, e := range cfg.Less.Entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%q", e))
	}
	sb.WriteString("]\n")
	if cfg.Less.Compiler != "" {
		sb.WriteString(fmt.Sprintf("\tcompiler: %q\n", cfg.Less.Compiler))
	}
	sb.WriteString("}\n")

	if len(cfg.Exclude) > 0 {
		sb.WriteString("\nexclude: [\n")
		for _, p := range cfg.Exclude {
			sb.WriteString(fmt.Sprintf("\t%q,\n", p))
		}
		sb.WriteString("]\n")
	}

	sb.WriteString(fmt.Sprintf("\nconcurrency: %d\n", cfg.Concurrency))
	sb.WriteString(fmt.Sprintf("log_level:   %q\n", cfg.LogLevel))

	out, err := format.Source([]byte(sb.String()))
	if err != nil {
		return sb.String()
	}
	return string(out)
}
