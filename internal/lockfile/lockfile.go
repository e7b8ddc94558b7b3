// SPDX-License-Identifier: MPL-2.0

// Package lockfile reads composer.lock and maps the packages it lists to
// store components.
package lockfile

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/scd-tools/scd/internal/cueutil"
)

const (
	// TypeModule is the package type of a module.
	TypeModule = "magento2-module"
	// TypeTheme is the package type of a theme.
	TypeTheme = "magento2-theme"

	// MaxFileSize bounds composer.lock; real stores carry a few megabytes.
	MaxFileSize int64 = 32 * 1024 * 1024
)

//go:embed lock_schema.cue
var lockSchema []byte

var (
	// ErrInvalidThemePackage is the sentinel for theme package names that do
	// not follow <vendor>/theme-<area>-<name>.
	ErrInvalidThemePackage = errors.New("invalid theme package name")
	// ErrInvalidLockfile wraps every composer.lock decoding failure.
	ErrInvalidLockfile = errors.New("invalid composer.lock")
)

type (
	// Lock is the decoded subset of composer.lock.
	Lock struct {
		Packages    []Package `json:"packages"`
		PackagesDev []Package `json:"packages-dev,omitempty"`
	}

	// Package is a single locked package.
	Package struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Version string `json:"version,omitempty"`
	}

	// ThemeName is a theme package name split into its parts.
	ThemeName struct {
		Vendor string
		Area   string
		Name   string
	}

	// InvalidThemePackageError is returned when a theme package name does
	// not follow the naming convention.
	InvalidThemePackageError struct {
		Package string
	}
)

func (e *InvalidThemePackageError) Error() string {
	return fmt.Sprintf("theme package %q does not match <vendor>/theme-<area>-<name>", e.Package)
}

func (e *InvalidThemePackageError) Unwrap() error { return ErrInvalidThemePackage }

// Parse decodes composer.lock contents.
func Parse(data []byte) (*Lock, error) {
	result, err := cueutil.ParseAndDecode[Lock](lockSchema, data, "#Lock",
		cueutil.WithJSON(),
		cueutil.WithFilename("composer.lock"),
		cueutil.WithMaxFileSize(MaxFileSize),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLockfile, err)
	}
	return result.Value, nil
}

// Load reads and decodes composer.lock at the store root. The boolean result
// is false when the store has no lock file.
func Load(fsys fs.FS) (*Lock, bool, error) {
	data, err := fs.ReadFile(fsys, "composer.lock")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read composer.lock: %w", err)
	}
	lock, err := Parse(data)
	if err != nil {
		return nil, true, err
	}
	return lock, true, nil
}

// All returns the runtime packages followed by the dev packages.
func (l *Lock) All() []Package {
	all := make([]Package, 0, len(l.Packages)+len(l.PackagesDev))
	all = append(all, l.Packages...)
	return append(all, l.PackagesDev...)
}

// Dir returns the install directory of the package, relative to the store root.
func (p Package) Dir() string {
	return "vendor/" + p.Name
}

// ParseThemeName splits a theme package name such as
// "magento/theme-frontend-luma". The theme name may itself contain dashes.
func ParseThemeName(pkg string) (ThemeName, error) {
	vendor, rest, ok := strings.Cut(pkg, "/")
	if !ok || vendor == "" {
		return ThemeName{}, &InvalidThemePackageError{Package: pkg}
	}
	rest, ok = strings.CutPrefix(rest, "theme-")
	if !ok {
		return ThemeName{}, &InvalidThemePackageError{Package: pkg}
	}
	area, name, ok := strings.Cut(rest, "-")
	if !ok || area == "" || name == "" {
		return ThemeName{}, &InvalidThemePackageError{Package: pkg}
	}
	return ThemeName{Vendor: vendor, Area: area, Name: name}, nil
}

// RegistrationVendor returns the vendor as it appears in theme identifiers,
// with its first letter upper-cased ("magento" becomes "Magento").
func (n ThemeName) RegistrationVendor() string {
	if n.Vendor == "" {
		return ""
	}
	return strings.ToUpper(n.Vendor[:1]) + n.Vendor[1:]
}
