// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/scd-tools/scd/internal/issue"
	"github.com/scd-tools/scd/internal/stylesheet"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.OutputDir != "pub/static" {
		t.Errorf("OutputDir = %q, want pub/static", cfg.OutputDir)
	}
	if cfg.Concurrency != 16 {
		t.Errorf("Concurrency = %d, want 16", cfg.Concurrency)
	}
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if diff := cmp.Diff([]string{"css/styles-m.less", "css/styles-l.less"}, cfg.Less.Entries); diff != "" {
		t.Errorf("Less.Entries mismatch (-want +got):\n%s", diff)
	}
	if cfg.Less.Compiler != "" {
		t.Errorf("Less.Compiler = %q, want empty", cfg.Less.Compiler)
	}
}

func TestDefaultConfig_EntriesFollowStylesheetDefaults(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if diff := cmp.Diff(stylesheet.DefaultEntries, cfg.Less.Entries); diff != "" {
		t.Errorf("Less.Entries mismatch (-want +got):\n%s", diff)
	}

	cfg.Less.Entries[0] = "css/changed.less"
	if stylesheet.DefaultEntries[0] == "css/changed.less" {
		t.Error("DefaultConfig() shares the stylesheet.DefaultEntries slice")
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
store_root: "store"
themes: [
	{name: "Magento/luma", locales: ["en_US", "de_DE"]},
	{name: "Magento/backend"},
]
less: compiler: "lessc --no-color"
exclude: ["**/*.md"]
concurrency: 4
log_level: "debug"
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		StoreRoot: StoreRoot(filepath.Join(dir, "store")),
		Themes: []ThemeConfig{
			{Name: "Magento/luma", Locales: []Locale{"en_US", "de_DE"}},
			{Name: "Magento/backend"},
		},
		OutputDir: "pub/static",
		Less: LessConfig{
			Entries:  []string{"css/styles-m.less", "css/styles-l.less"},
			Compiler: "lessc --no-color",
		},
		Exclude:     []ExcludePattern{"**/*.md"},
		Concurrency: 4,
		LogLevel:    LogLevelDebug,
		File:        path,
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_SearchesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `themes: [{name: "Magento/blank"}]`)
	nested := filepath.Join(dir, "app", "design", "frontend")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(context.Background(), LoadOptions{WorkDir: nested})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if string(cfg.StoreRoot) != dir {
		t.Errorf("StoreRoot = %q, want the directory holding %s (%q)", cfg.StoreRoot, ConfigFileName, dir)
	}
	if got := cfg.Themes[0].LocaleList(); len(got) != 1 || got[0] != DefaultLocale {
		t.Errorf("LocaleList() = %v, want [%s]", got, DefaultLocale)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(context.Background(), LoadOptions{WorkDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}
	if string(cfg.StoreRoot) != dir {
		t.Errorf("StoreRoot = %q, want %q", cfg.StoreRoot, dir)
	}
	if len(cfg.Themes) != 0 {
		t.Errorf("Themes = %v, want none", cfg.Themes)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		missing bool
		wantID  issue.Id
		wantIs  error
	}{
		{name: "missing explicit file", missing: true, wantID: issue.ConfigNotFoundId},
		{name: "syntax error", content: `themes: [`, wantID: issue.ConfigLoadFailedId},
		{name: "unknown field", content: `color: "red"`, wantID: issue.ConfigLoadFailedId},
		{name: "bad theme id", content: `themes: [{name: "luma"}]`, wantID: issue.ConfigLoadFailedId},
		{name: "bad log level", content: `log_level: "loud"`, wantID: issue.ConfigLoadFailedId},
		{name: "zero concurrency", content: `concurrency: 0`, wantID: issue.ConfigLoadFailedId},
		{name: "bad exclude glob", content: `exclude: ["css/[a"]`, wantID: issue.ConfigLoadFailedId, wantIs: ErrInvalidExcludePattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, ConfigFileName)
			if !tt.missing {
				path = writeConfig(t, dir, tt.content)
			}

			_, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T: %v", err, err)
			}
			if ae.IssueID != tt.wantID {
				t.Errorf("IssueID = %d, want %d", ae.IssueID, tt.wantID)
			}
			if !ae.HasSuggestions() {
				t.Error("expected suggestions")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v) = false, got %v", tt.wantIs, err)
			}
		})
	}
}

// Not parallel: t.Setenv.
func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `concurrency: 4
less: compiler: "lessc"`)

	t.Setenv("SCD_CONCURRENCY", "2")
	t.Setenv("SCD_LESS_COMPILER", "node_modules/.bin/lessc")
	t.Setenv("SCD_OUTPUT_DIR", "/srv/static")

	cfg, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if cfg.Less.Compiler != "node_modules/.bin/lessc" {
		t.Errorf("Less.Compiler = %q", cfg.Less.Compiler)
	}
	if got := cfg.ResolvedOutputDir(); got != "/srv/static" {
		t.Errorf("ResolvedOutputDir() = %q, want /srv/static", got)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, LoadOptions{WorkDir: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.StoreRoot = StoreRoot(dir)
	cfg.Themes = []ThemeConfig{
		{Name: "Magento/luma", Locales: []Locale{"en_US", "fr_FR"}},
		{Name: "Magento/backend"},
	}
	cfg.Exclude = []ExcludePattern{"**/*.map"}
	cfg.Less.Compiler = "lessc"

	generated := GenerateCUE(cfg)
	for _, want := range []string{`"Magento/luma"`, `"fr_FR"`, `"lessc"`, `"**/*.map"`} {
		if !strings.Contains(generated, want) {
			t.Errorf("GenerateCUE() missing %s:\n%s", want, generated)
		}
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := Write(path, cfg, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := Write(path, cfg, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second Write() error = %v, want ErrConfigExists", err)
	}

	loaded, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() of generated config error = %v\n%s", err, generated)
	}
	cfg.File = path
	if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, "")
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := FindFile(sub); got != path {
		t.Errorf("FindFile() = %q, want %q", got, path)
	}
}
