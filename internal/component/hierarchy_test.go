// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func theme(id ThemeID, parent ThemeID) Theme {
	vendor, name, _ := strings.Cut(string(id), "/")
	t := NewTheme(AreaFrontend, vendor, name)
	t.Parent = parent
	return t
}

func themeIDs(themes []Theme) []ThemeID {
	ids := make([]ThemeID, len(themes))
	for i, t := range themes {
		ids[i] = t.ID
	}
	return ids
}

func TestResolveThemeHierarchy(t *testing.T) {
	t.Parallel()

	a := theme("Vendor/a", "")
	b := theme("Vendor/b", "Vendor/a")
	c := theme("Vendor/c", "Vendor/b")
	all := []Theme{c, a, b}

	tests := []struct {
		name  string
		theme Theme
		want  []ThemeID
	}{
		{"root theme", a, []ThemeID{"Vendor/a"}},
		{"one parent", b, []ThemeID{"Vendor/a", "Vendor/b"}},
		{"grandparent first", c, []ThemeID{"Vendor/a", "Vendor/b", "Vendor/c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveThemeHierarchy(tt.theme, all)
			if err != nil {
				t.Fatalf("ResolveThemeHierarchy() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, themeIDs(got)); diff != "" {
				t.Errorf("hierarchy mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveThemeHierarchy_PrefersSameArea(t *testing.T) {
	t.Parallel()

	adminBase := NewTheme(AreaAdminhtml, "Acme", "base")
	frontBase := NewTheme(AreaFrontend, "Acme", "base")
	frontBase.Path = "/app/design/frontend/Acme/base"
	child := theme("Acme/shop", "Acme/base")

	got, err := ResolveThemeHierarchy(child, []Theme{adminBase, frontBase, child})
	if err != nil {
		t.Fatalf("ResolveThemeHierarchy() error = %v", err)
	}
	if got[0].Area != AreaFrontend || got[0].Path != frontBase.Path {
		t.Errorf("expected the frontend parent, got %+v", got[0])
	}
}

func TestResolveThemeHierarchy_MissingParent(t *testing.T) {
	t.Parallel()

	child := theme("Vendor/child", "X/y")
	_, err := ResolveThemeHierarchy(child, []Theme{child})

	var missing *MissingParentError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingParentError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrMissingParent) {
		t.Error("expected errors.Is(err, ErrMissingParent)")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Vendor/child") || !strings.Contains(msg, "X/y") {
		t.Errorf("error should name child and parent: %q", msg)
	}
}

func TestResolveThemeHierarchy_Cycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		themes []Theme
		start  int
		chain  []ThemeID
	}{
		{
			name:   "self parent",
			themes: []Theme{theme("Vendor/a", "Vendor/a")},
			chain:  []ThemeID{"Vendor/a", "Vendor/a"},
		},
		{
			name: "three theme loop",
			themes: []Theme{
				theme("Vendor/a", "Vendor/c"),
				theme("Vendor/b", "Vendor/a"),
				theme("Vendor/c", "Vendor/b"),
			},
			start: 2,
			chain: []ThemeID{"Vendor/c", "Vendor/b", "Vendor/a", "Vendor/c"},
		},
		{
			name: "loop above the start",
			themes: []Theme{
				theme("Vendor/leaf", "Vendor/a"),
				theme("Vendor/a", "Vendor/b"),
				theme("Vendor/b", "Vendor/a"),
			},
			chain: []ThemeID{"Vendor/leaf", "Vendor/a", "Vendor/b", "Vendor/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ResolveThemeHierarchy(tt.themes[tt.start], tt.themes)

			var cycle *ThemeCycleError
			if !errors.As(err, &cycle) {
				t.Fatalf("expected *ThemeCycleError, got %T: %v", err, err)
			}
			if diff := cmp.Diff(tt.chain, cycle.Chain); diff != "" {
				t.Errorf("chain mismatch (-want +got):\n%s", diff)
			}
			if !errors.Is(err, ErrThemeCycle) {
				t.Error("expected errors.Is(err, ErrThemeCycle)")
			}
		})
	}
}

func TestFindTheme(t *testing.T) {
	t.Parallel()

	themes := []Theme{theme("Magento/blank", ""), theme("Magento/luma", "Magento/blank")}

	got, err := FindTheme(themes, "Magento/luma")
	if err != nil || got.ID != "Magento/luma" {
		t.Fatalf("FindTheme() = %+v, %v", got, err)
	}

	_, err = FindTheme(themes, "Acme/missing")
	var notFound *ThemeNotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "Acme/missing" {
		t.Fatalf("expected *ThemeNotFoundError, got %v", err)
	}
}
