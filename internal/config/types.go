// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/stylesheet"
)

const (
	// LogLevelDebug logs every pipeline phase.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs one line per written theme.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only recoverable problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	// DefaultLocale is used for themes that list no locales.
	DefaultLocale = "en_US"
	// DefaultOutputDir is relative to the store root.
	DefaultOutputDir = "pub/static"
	// DefaultConcurrency bounds crawl and write goroutines.
	DefaultConcurrency = 16
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidStoreRoot is the sentinel error wrapped by InvalidStoreRootError.
	ErrInvalidStoreRoot = errors.New("invalid store root")
	// ErrInvalidLocale is the sentinel error wrapped by InvalidLocaleError.
	ErrInvalidLocale = errors.New("invalid locale")
	// ErrInvalidExcludePattern is the sentinel error wrapped by InvalidExcludePatternError.
	ErrInvalidExcludePattern = errors.New("invalid exclude pattern")
	// ErrInvalidConcurrency is the sentinel error wrapped by InvalidConcurrencyError.
	ErrInvalidConcurrency = errors.New("invalid concurrency")
	// ErrInvalidThemeConfig is the sentinel error wrapped by InvalidThemeConfigError.
	ErrInvalidThemeConfig = errors.New("invalid theme config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	localePattern = regexp.MustCompile(`^[a-z]{2,3}(_[A-Za-z0-9]{2,4})*$`)
)

type (
	// LogLevel is the minimum level of log records written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// StoreRoot is the absolute path of the store installation.
	StoreRoot string

	// InvalidStoreRootError is returned when a StoreRoot is empty or relative.
	InvalidStoreRootError struct {
		Value StoreRoot
	}

	// Locale names one output directory per theme, e.g. "en_US".
	Locale string

	// InvalidLocaleError is returned when a Locale does not look like a locale code.
	InvalidLocaleError struct {
		Value Locale
	}

	// ExcludePattern is a doublestar glob over final asset paths.
	ExcludePattern string

	// InvalidExcludePatternError is returned when an ExcludePattern is not a valid glob.
	InvalidExcludePatternError struct {
		Value ExcludePattern
	}

	// InvalidConcurrencyError is returned when Concurrency is not positive.
	InvalidConcurrencyError struct {
		Value int
	}

	// InvalidThemeConfigError is returned when a ThemeConfig has invalid fields.
	// It collects field-level validation errors from Name and Locales.
	InvalidThemeConfigError struct {
		Name        string
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// StoreRoot is the directory holding app/, vendor/ and lib/.
		StoreRoot StoreRoot `json:"store_root" mapstructure:"store_root"`
		// Themes lists the themes a plain `scd deploy` writes.
		Themes []ThemeConfig `json:"themes" mapstructure:"themes"`
		// OutputDir is where deployed themes go; relative to StoreRoot unless absolute.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
		// Less configures stylesheet preprocessing and compilation.
		Less LessConfig `json:"less" mapstructure:"less"`
		// Exclude lists final asset paths that are never written.
		Exclude []ExcludePattern `json:"exclude" mapstructure:"exclude"`
		// Concurrency bounds crawl and write goroutines.
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
		// LogLevel sets the minimum log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`

		// File is the scd.cue the configuration was read from, empty when
		// only defaults and environment were used.
		File string `json:"-" mapstructure:"-"`
	}

	// ThemeConfig names one theme and the locales it is deployed for.
	ThemeConfig struct {
		Name    string   `json:"name" mapstructure:"name"`
		Locales []Locale `json:"locales" mapstructure:"locales"`
	}

	// LessConfig configures stylesheet handling.
	LessConfig struct {
		// Entries are the final paths handed to the compiler.
		Entries []string `json:"entries" mapstructure:"entries"`
		// Compiler is the command line of an external compiler; empty disables compilation.
		Compiler string `json:"compiler" mapstructure:"compiler"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		Less: LessConfig{
			Entries: slices.Clone(stylesheet.DefaultEntries),
		},
		Exclude:     []ExcludePattern{},
		Themes:      []ThemeConfig{},
		Concurrency: DefaultConcurrency,
		LogLevel:    LogLevelInfo,
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the StoreRoot.
func (r StoreRoot) String() string { return string(r) }

// IsValid returns whether the StoreRoot is a non-empty absolute path.
func (r StoreRoot) IsValid() (bool, []error) {
	if strings.TrimSpace(string(r)) == "" || !filepath.IsAbs(string(r)) {
		return false, []error{&InvalidStoreRootError{Value: r}}
	}
	return true, nil
}

// Error implements the error interface for InvalidStoreRootError.
func (e *InvalidStoreRootError) Error() string {
	return fmt.Sprintf("invalid store root %q: must be an absolute path", e.Value)
}

// Unwrap returns ErrInvalidStoreRoot for errors.Is() compatibility.
func (e *InvalidStoreRootError) Unwrap() error { return ErrInvalidStoreRoot }

// String returns the string representation of the Locale.
func (l Locale) String() string { return string(l) }

// IsValid returns whether the Locale looks like a locale code.
func (l Locale) IsValid() (bool, []error) {
	if !localePattern.MatchString(string(l)) {
		return false, []error{&InvalidLocaleError{Value: l}}
	}
	return true, nil
}

// Error implements the error interface for InvalidLocaleError.
func (e *InvalidLocaleError) Error() string {
	return fmt.Sprintf("invalid locale %q", e.Value)
}

// Unwrap returns ErrInvalidLocale for errors.Is() compatibility.
func (e *InvalidLocaleError) Unwrap() error { return ErrInvalidLocale }

// IsValid returns whether the ExcludePattern is a well-formed glob.
func (p ExcludePattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidExcludePatternError{Value: p}}
	}
	return true, nil
}

// Match reports whether finalPath is excluded by the pattern.
func (p ExcludePattern) Match(finalPath string) bool {
	ok, err := doublestar.Match(string(p), finalPath)
	return err == nil && ok
}

// Error implements the error interface for InvalidExcludePatternError.
func (e *InvalidExcludePatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q", e.Value)
}

// Unwrap returns ErrInvalidExcludePattern for errors.Is() compatibility.
func (e *InvalidExcludePatternError) Unwrap() error { return ErrInvalidExcludePattern }

// Error implements the error interface for InvalidConcurrencyError.
func (e *InvalidConcurrencyError) Error() string {
	return fmt.Sprintf("invalid concurrency %d: must be at least 1", e.Value)
}

// Unwrap returns ErrInvalidConcurrency for errors.Is() compatibility.
func (e *InvalidConcurrencyError) Unwrap() error { return ErrInvalidConcurrency }

// LocaleList returns the configured locales, or DefaultLocale when none are set.
func (t ThemeConfig) LocaleList() []Locale {
	if len(t.Locales) == 0 {
		return []Locale{DefaultLocale}
	}
	return t.Locales
}

// IsValid returns whether the ThemeConfig has a valid theme id and locales.
func (t ThemeConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := component.ThemeID(t.Name).IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, l := range t.Locales {
		if valid, fieldErrs := l.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidThemeConfigError{Name: t.Name, FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidThemeConfigError.
func (e *InvalidThemeConfigError) Error() string {
	return fmt.Sprintf("invalid theme %q: %v", e.Name, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidThemeConfig and the field errors for errors.Is() compatibility.
func (e *InvalidThemeConfigError) Unwrap() []error {
	return append([]error{ErrInvalidThemeConfig}, e.FieldErrors...)
}

// Theme returns the entry for the given theme id.
func (c *Config) Theme(name string) (ThemeConfig, bool) {
	for _, t := range c.Themes {
		if t.Name == name {
			return t, true
		}
	}
	return ThemeConfig{}, false
}

// ResolvedOutputDir returns OutputDir joined to StoreRoot unless already absolute.
func (c *Config) ResolvedOutputDir() string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(string(c.StoreRoot), c.OutputDir)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.StoreRoot.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, theme := range c.Themes {
		if valid, fieldErrs := theme.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	for _, p := range c.Exclude {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.Concurrency < 1 {
		errs = append(errs, &InvalidConcurrencyError{Value: c.Concurrency})
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
