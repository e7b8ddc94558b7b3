// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseModule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		xml     string
		want    ModuleDescriptor
		wantErr bool
	}{
		{
			name: "no sequence",
			xml: `<?xml version="1.0"?>
<config xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="urn:magento:framework:Module/etc/module.xsd">
    <module name="Magento_Store"/>
</config>`,
			want: ModuleDescriptor{Name: "Magento_Store"},
		},
		{
			name: "single sequence entry",
			xml: `<config><module name="Magento_Catalog">
    <sequence><module name="Magento_Store"/></sequence>
</module></config>`,
			want: ModuleDescriptor{Name: "Magento_Catalog", Sequence: []string{"Magento_Store"}},
		},
		{
			name: "multiple sequence entries",
			xml: `<config><module name="Magento_Checkout" setup_version="2.0.0">
    <sequence>
        <module name="Magento_Catalog"/>
        <module name="Magento_Sales"/>
    </sequence>
</module></config>`,
			want: ModuleDescriptor{Name: "Magento_Checkout", Sequence: []string{"Magento_Catalog", "Magento_Sales"}},
		},
		{
			name: "unmapped elements are skipped",
			xml: `<config><!-- vendor note --><module name="Acme_Banner">
    <title>Banner</title>
    <sequence><module name="Magento_Cms"/><note>ignored</note></sequence>
</module></config>`,
			want: ModuleDescriptor{Name: "Acme_Banner", Sequence: []string{"Magento_Cms"}},
		},
		{
			name:    "malformed",
			xml:     `<config><module name="Magento_Store">`,
			wantErr: true,
		},
		{
			name:    "wrong root element",
			xml:     `<theme><title>Luma</title></theme>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseModule(strings.NewReader(tt.xml))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseModule() expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModule() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseModule() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseModule_MissingName(t *testing.T) {
	t.Parallel()

	_, err := ParseModule(strings.NewReader(`<config><module/></config>`))
	if !errors.Is(err, ErrMissingModuleName) {
		t.Errorf("ParseModule() error = %v, want ErrMissingModuleName", err)
	}
}

func TestParseTheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		xml     string
		want    ThemeDescriptor
		wantErr bool
	}{
		{
			name: "with parent",
			xml: `<theme xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="urn:magento:framework:Config/etc/theme.xsd">
    <title>Magento Luma</title>
    <parent>Magento/blank</parent>
    <media><preview_image>media/preview.jpg</preview_image></media>
</theme>`,
			want: ThemeDescriptor{Title: "Magento Luma", Parent: "Magento/blank"},
		},
		{
			name: "without parent",
			xml:  `<theme><title>Magento Blank</title></theme>`,
			want: ThemeDescriptor{Title: "Magento Blank"},
		},
		{
			name:    "empty document",
			xml:     ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTheme(strings.NewReader(tt.xml))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTheme() expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTheme() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseTheme() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
