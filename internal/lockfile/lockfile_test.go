// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

const sampleLock = `{
    "_readme": ["This file locks the dependencies of your project to a known state"],
    "content-hash": "a1b2c3",
    "packages": [
        {
            "name": "magento\/module-catalog",
            "version": "104.0.6",
            "type": "magento2-module",
            "autoload": {"files": ["registration.php"]}
        },
        {
            "name": "magento\/theme-frontend-luma",
            "version": "100.4.6",
            "type": "magento2-theme"
        },
        {
            "name": "monolog\/monolog",
            "version": "2.9.1"
        }
    ],
    "packages-dev": [
        {"name": "phpunit\/phpunit", "version": "9.6.13", "type": "library"}
    ],
    "stability-flags": [],
    "prefer-stable": true
}`

func TestParse(t *testing.T) {
	t.Parallel()

	lock, err := Parse([]byte(sampleLock))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Package{
		{Name: "magento/module-catalog", Type: TypeModule, Version: "104.0.6"},
		{Name: "magento/theme-frontend-luma", Type: TypeTheme, Version: "100.4.6"},
		{Name: "monolog/monolog", Type: "library", Version: "2.9.1"},
		{Name: "phpunit/phpunit", Type: "library", Version: "9.6.13"},
	}
	if diff := cmp.Diff(want, lock.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"packages": [`},
		{"packages not a list", `{"packages": {"name": "a/b"}}`},
		{"package without name", `{"packages": [{"type": "magento2-module"}]}`},
		{"name without vendor", `{"packages": [{"name": "catalog"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), "composer.lock") {
				t.Errorf("error should name composer.lock, got: %v", err)
			}
			if !errors.Is(err, ErrInvalidLockfile) {
				t.Errorf("error should wrap ErrInvalidLockfile, got: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	lock, ok, err := Load(fstest.MapFS{})
	if err != nil || ok || lock != nil {
		t.Fatalf("Load(empty) = %v, %v, %v; want nil, false, nil", lock, ok, err)
	}

	lock, ok, err = Load(fstest.MapFS{"composer.lock": {Data: []byte(sampleLock)}})
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	if len(lock.Packages) != 3 {
		t.Errorf("expected 3 packages, got %d", len(lock.Packages))
	}
	if got := lock.Packages[0].Dir(); got != "vendor/magento/module-catalog" {
		t.Errorf("Dir() = %q", got)
	}
}

func TestParseThemeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkg        string
		want       ThemeName
		wantVendor string
		wantErr    bool
	}{
		{pkg: "magento/theme-frontend-luma", want: ThemeName{"magento", "frontend", "luma"}, wantVendor: "Magento"},
		{pkg: "acme/theme-adminhtml-dark-mode", want: ThemeName{"acme", "adminhtml", "dark-mode"}, wantVendor: "Acme"},
		{pkg: "magento/module-theme", wantErr: true},
		{pkg: "magento/theme-frontend", wantErr: true},
		{pkg: "theme-frontend-luma", wantErr: true},
		{pkg: "magento/theme--luma", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			t.Parallel()
			got, err := ParseThemeName(tt.pkg)
			if tt.wantErr {
				var nameErr *InvalidThemePackageError
				if !errors.As(err, &nameErr) || !errors.Is(err, ErrInvalidThemePackage) {
					t.Fatalf("ParseThemeName() error = %v, want *InvalidThemePackageError", err)
				}
				if nameErr.Package != tt.pkg {
					t.Errorf("Package = %q, want %q", nameErr.Package, tt.pkg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseThemeName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseThemeName() = %+v, want %+v", got, tt.want)
			}
			if v := got.RegistrationVendor(); v != tt.wantVendor {
				t.Errorf("RegistrationVendor() = %q, want %q", v, tt.wantVendor)
			}
		})
	}
}
