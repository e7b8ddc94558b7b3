// SPDX-License-Identifier: MPL-2.0

package overlay

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/testutil/storetest"
)

type buildFixture struct {
	fsys       fstest.MapFS
	components *component.Components
	enabled    []component.ModuleID
	theme      component.Theme
}

// newFixture discovers the store, orders the enabled modules and selects
// Magento/luma as the theme to build.
func newFixture(t *testing.T, fsys fstest.MapFS) buildFixture {
	t.Helper()

	ctx := context.Background()
	comps, err := component.Discover(ctx, fsys)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	enabled, err := component.EnabledModules(fsys)
	if err != nil {
		t.Fatalf("EnabledModules() error = %v", err)
	}
	sorted, err := component.ResolveModuleSequence(comps.ModuleList())
	if err != nil {
		t.Fatalf("ResolveModuleSequence() error = %v", err)
	}
	theme, err := component.FindTheme(comps.Themes, "Magento/luma")
	if err != nil {
		t.Fatalf("FindTheme() error = %v", err)
	}
	return buildFixture{
		fsys:       fsys,
		components: comps,
		enabled:    component.OrderEnabled(sorted, enabled),
		theme:      theme,
	}
}

func (f buildFixture) build(t *testing.T) *asset.Tree {
	t.Helper()
	tree, err := Build(context.Background(), f.fsys, Options{
		Theme:          f.theme,
		Components:     f.components,
		EnabledModules: f.enabled,
		Concurrency:    4,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tree
}

func lumaStore(extra ...storetest.Option) fstest.MapFS {
	opts := []storetest.Option{
		storetest.WithModule("Magento_Foo"),
		storetest.WithModule("Magento_Bar", storetest.After("Magento_Foo")),
		storetest.WithModule("Magento_Off", storetest.Disabled()),
		storetest.WithTheme("frontend", "Magento/blank"),
		storetest.WithTheme("frontend", "Magento/luma", storetest.Parent("Magento/blank")),
	}
	return storetest.New(append(opts, extra...)...)
}

func TestBuild_Precedence(t *testing.T) {
	t.Parallel()

	fsys := lumaStore(
		// root < module
		storetest.WithFile("lib/web/Magento_Foo/shared.js", "root"),
		storetest.WithFile("app/code/Magento/Foo/view/base/web/shared.js", "module base"),
		// module base < module area
		storetest.WithFile("app/code/Magento/Foo/view/base/web/area.js", "module base"),
		storetest.WithFile("app/code/Magento/Foo/view/frontend/web/area.js", "module frontend"),
		// root < module < theme
		storetest.WithFile("lib/web/Magento_Bar/all.js", "root"),
		storetest.WithFile("app/code/Magento/Bar/view/frontend/web/all.js", "module"),
		storetest.WithFile("app/design/frontend/Magento/blank/Magento_Bar/web/all.js", "blank"),
		// ancestor < descendant, theme web dir
		storetest.WithFile("app/design/frontend/Magento/blank/web/css/styles.less", "blank"),
		storetest.WithFile("app/design/frontend/Magento/luma/web/css/styles.less", "luma"),
		// root only
		storetest.WithFile("lib/web/mage/utils.js", "root"),
		// the theme web dir is folded after the theme's module-context dirs
		storetest.WithFile("app/design/frontend/Magento/luma/web/Magento_Foo/x.js", "luma web"),
		storetest.WithFile("app/design/frontend/Magento/luma/Magento_Foo/web/x.js", "luma context"),
		// adminhtml views never apply to a frontend theme
		storetest.WithFile("app/code/Magento/Foo/view/adminhtml/web/admin.js", "admin"),
	)
	tree := newFixture(t, fsys).build(t)

	tests := []struct {
		finalPath string
		source    string
		kind      asset.Kind
	}{
		{"Magento_Foo/shared.js", "/app/code/Magento/Foo/view/base/web/shared.js", asset.KindModule},
		{"Magento_Foo/area.js", "/app/code/Magento/Foo/view/frontend/web/area.js", asset.KindModule},
		{"Magento_Bar/all.js", "/app/design/frontend/Magento/blank/Magento_Bar/web/all.js", asset.KindTheme},
		{"css/styles.less", "/app/design/frontend/Magento/luma/web/css/styles.less", asset.KindTheme},
		{"mage/utils.js", "/lib/web/mage/utils.js", asset.KindRoot},
		{"Magento_Foo/x.js", "/app/design/frontend/Magento/luma/web/Magento_Foo/x.js", asset.KindTheme},
	}
	for _, tt := range tests {
		got, ok := tree.Get(tt.finalPath)
		if !ok {
			t.Errorf("%s missing from tree", tt.finalPath)
			continue
		}
		if got.PathFromStoreRoot != tt.source || got.Kind != tt.kind {
			t.Errorf("%s = %s (%s), want %s (%s)", tt.finalPath, got.PathFromStoreRoot, got.Kind, tt.source, tt.kind)
		}
	}

	if _, ok := tree.Get("Magento_Foo/admin.js"); ok {
		t.Error("adminhtml asset leaked into frontend tree")
	}
}

func TestBuild_DisabledModule(t *testing.T) {
	t.Parallel()

	fsys := lumaStore(
		storetest.WithFile("app/code/Magento/Off/view/frontend/web/off.js", "module"),
		storetest.WithFile("app/design/frontend/Magento/luma/Magento_Off/web/override.js", "theme"),
	)
	tree := newFixture(t, fsys).build(t)

	for p, a := range tree.All() {
		if a.ModuleID == "Magento_Off" {
			t.Errorf("disabled module asset in tree: %s from %s", p, a.PathFromStoreRoot)
		}
	}
}

func TestBuild_LowercaseVendorModuleOverride(t *testing.T) {
	t.Parallel()

	fsys := lumaStore(
		storetest.WithModule("acme_Widget"),
		storetest.WithFile("app/code/acme/Widget/view/frontend/web/js/w.js", "module"),
		storetest.WithFile("app/design/frontend/Magento/luma/acme_Widget/web/js/w.js", "luma"),
	)
	tree := newFixture(t, fsys).build(t)

	got, ok := tree.Get("acme_Widget/js/w.js")
	if !ok {
		t.Fatal("acme_Widget/js/w.js missing from tree")
	}
	want := asset.StaticAsset{
		Kind:              asset.KindTheme,
		PathFromStoreRoot: "/app/design/frontend/Magento/luma/acme_Widget/web/js/w.js",
		FinalPath:         "acme_Widget/js/w.js",
		ModuleID:          "acme_Widget",
		ThemeID:           "Magento/luma",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("override mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_MissingDirectories(t *testing.T) {
	t.Parallel()

	// No lib/web, no module views, no theme web dirs.
	tree := newFixture(t, lumaStore()).build(t)
	if tree.Len() != 0 {
		t.Errorf("expected an empty tree, got %v", tree.Paths())
	}
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	fsys := lumaStore(
		storetest.WithFile("lib/web/a.js", "a"),
		storetest.WithFile("lib/web/b/c.js", "c"),
		storetest.WithFile("app/code/Magento/Foo/view/frontend/web/f.js", "f"),
		storetest.WithFile("app/code/Magento/Bar/view/base/web/g.js", "g"),
		storetest.WithFile("app/design/frontend/Magento/blank/web/css/x.less", "x"),
		storetest.WithFile("app/design/frontend/Magento/luma/Magento_Bar/web/h.js", "h"),
	)
	f := newFixture(t, fsys)
	first := f.build(t)
	second := f.build(t)

	if diff := cmp.Diff(first.Assets(), second.Assets()); diff != "" {
		t.Errorf("rebuild differs (-first +second):\n%s", diff)
	}
	want := []string{"a.js", "b/c.js", "Magento_Foo/f.js", "Magento_Bar/g.js", "css/x.less", "Magento_Bar/h.js"}
	if diff := cmp.Diff(want, first.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_UnknownModule(t *testing.T) {
	t.Parallel()

	f := newFixture(t, lumaStore())
	_, err := Build(context.Background(), f.fsys, Options{
		Theme:          f.theme,
		Components:     f.components,
		EnabledModules: []component.ModuleID{"Magento_Foo", "Acme_Missing"},
	})
	var unknown *UnknownModuleError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownModuleError, got %v", err)
	}
	if diff := cmp.Diff([]component.ModuleID{"Acme_Missing"}, unknown.IDs); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_MissingParent(t *testing.T) {
	t.Parallel()

	fsys := storetest.New(
		storetest.WithModule("Magento_Foo"),
		storetest.WithTheme("frontend", "Magento/luma", storetest.Parent("Magento/blank")),
	)
	f := newFixture(t, fsys)
	_, err := Build(context.Background(), f.fsys, Options{Theme: f.theme, Components: f.components})
	if !errors.Is(err, component.ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}

// denyFS fails reads of one directory with a permission error.
type denyFS struct {
	fsys fs.FS
	deny string
}

func (d denyFS) Open(name string) (fs.File, error) {
	if name == d.deny {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return d.fsys.Open(name)
}

func TestBuild_IOErrorAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, lumaStore(
		storetest.WithFile("app/design/frontend/Magento/blank/web/css/x.less", "x"),
		storetest.WithFile("lib/web/a.js", "a"),
	))
	fsys := denyFS{fsys: f.fsys, deny: "app/design/frontend/Magento/blank/web/css"}

	tree, err := Build(context.Background(), fsys, Options{
		Theme:          f.theme,
		Components:     f.components,
		EnabledModules: f.enabled,
	})
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected fs.ErrPermission, got %v", err)
	}
	if tree != nil {
		t.Error("expected no partial tree")
	}
}
