// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/build"
	"github.com/scd-tools/scd/internal/stylesheet"
)

func testLayout() *build.Layout {
	return &build.Layout{
		Tree: asset.NewTree(
			asset.StaticAsset{Kind: asset.KindRoot, FinalPath: "mage/utils.js", PathFromStoreRoot: "/lib/web/mage/utils.js"},
			asset.StaticAsset{Kind: asset.KindModule, ModuleID: "Acme_Foo", FinalPath: "Acme_Foo/js/foo.js", PathFromStoreRoot: "/app/code/Acme/Foo/view/frontend/web/js/foo.js"},
			asset.StaticAsset{Kind: asset.KindTheme, ThemeID: "Acme/blank", FinalPath: "css/styles-m.less", PathFromStoreRoot: "/app/design/frontend/Acme/blank/web/css/styles-m.less"},
			asset.StaticAsset{Kind: asset.KindTheme, ThemeID: "Acme/blank", FinalPath: "README.md", PathFromStoreRoot: "/app/design/frontend/Acme/blank/web/README.md"},
		),
		Generated: []stylesheet.GeneratedAsset{
			{FinalPath: "css/styles-m.less", Source: "@import 'x';"},
			{FinalPath: "requirejs-config.js", Source: "(function() {})();"},
		},
		Remove: []string{"README.md"},
	}
}

func TestTreeEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		glob string
		want []treeEntry
	}{
		{
			name: "all",
			want: []treeEntry{
				{FinalPath: "mage/utils.js", Source: "/lib/web/mage/utils.js", Kind: "RootAsset", Owner: "lib/web"},
				{FinalPath: "Acme_Foo/js/foo.js", Source: "/app/code/Acme/Foo/view/frontend/web/js/foo.js", Kind: "ModuleAsset", Owner: "Acme_Foo"},
				{FinalPath: "css/styles-m.less", Source: "/app/design/frontend/Acme/blank/web/css/styles-m.less", Kind: "ThemeAsset", Owner: "Acme/blank", Generated: true},
				{FinalPath: "requirejs-config.js", Kind: kindGenerated, Generated: true},
			},
		},
		{
			name: "glob",
			glob: "**/*.js",
			want: []treeEntry{
				{FinalPath: "mage/utils.js", Source: "/lib/web/mage/utils.js", Kind: "RootAsset", Owner: "lib/web"},
				{FinalPath: "Acme_Foo/js/foo.js", Source: "/app/code/Acme/Foo/view/frontend/web/js/foo.js", Kind: "ModuleAsset", Owner: "Acme_Foo"},
				{FinalPath: "requirejs-config.js", Kind: kindGenerated, Generated: true},
			},
		},
		{
			name: "glob matching nothing",
			glob: "fonts/**",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := treeEntries(testLayout(), tt.glob)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("treeEntries() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteTree(t *testing.T) {
	t.Parallel()

	entries := treeEntries(testLayout(), "")

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeTree(&buf, "Acme/blank", entries, formatText); err != nil {
			t.Fatal(err)
		}
		want := strings.Join([]string{
			"mage/utils.js\t/lib/web/mage/utils.js",
			"Acme_Foo/js/foo.js\t/app/code/Acme/Foo/view/frontend/web/js/foo.js",
			"css/styles-m.less\t/app/design/frontend/Acme/blank/web/css/styles-m.less (rewritten)",
			"requirejs-config.js\t(generated)",
		}, "\n") + "\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("text output mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeTree(&buf, "Acme/blank", entries, formatJSON); err != nil {
			t.Fatal(err)
		}
		var got []treeEntry
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
		}
		if diff := cmp.Diff(entries, got); diff != "" {
			t.Errorf("json output mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("json empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeTree(&buf, "Acme/blank", nil, formatJSON); err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("empty json output = %q, want []", got)
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeTree(&buf, "Acme/blank", entries, formatTOML); err != nil {
			t.Fatal(err)
		}
		var got treeDocument
		if err := toml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not TOML: %v\n%s", err, buf.String())
		}
		if got.Theme != "Acme/blank" || len(got.Assets) != len(entries) {
			t.Errorf("toml document = %+v", got)
		}
	})
}
