// SPDX-License-Identifier: MPL-2.0

package storetest

import (
	"fmt"
	"path"
	"strings"
	"testing/fstest"
)

type (
	// Option configures a test store.
	Option func(*builder)

	// ModuleOption configures a test module.
	ModuleOption func(*moduleSpec)

	// ThemeOption configures a test theme.
	ThemeOption func(*themeSpec)

	builder struct {
		fs      fstest.MapFS
		modules []moduleSpec
		status  []moduleStatus
	}

	moduleSpec struct {
		id      string
		dir     string
		after   []string
		enabled bool
		raw     string
	}

	moduleStatus struct {
		id      string
		enabled bool
	}

	themeSpec struct {
		dir    string
		parent string
		raw    string
	}
)

// New returns a store tree built from opts. Every module added with
// WithModule is listed in app/etc/config.php, enabled unless Disabled is
// given.
func New(opts ...Option) fstest.MapFS {
	b := &builder{fs: fstest.MapFS{}}
	for _, opt := range opts {
		opt(b)
	}

	for _, m := range b.modules {
		b.fs[path.Join(m.dir, "etc/module.xml")] = file(m.xml())
	}

	if len(b.status) > 0 {
		b.fs["app/etc/config.php"] = file(configPHP(b.status...))
	}
	return b.fs
}

// WithFile adds a file with the given contents.
func WithFile(name, contents string) Option {
	return func(b *builder) {
		b.fs[name] = file(contents)
	}
}

// WithModule adds a module under app/code (or under vendor/ with InVendor).
func WithModule(id string, opts ...ModuleOption) Option {
	return func(b *builder) {
		vendor, name, _ := strings.Cut(id, "_")
		m := moduleSpec{id: id, dir: path.Join("app/code", vendor, name), enabled: true}
		for _, opt := range opts {
			opt(&m)
		}
		b.modules = append(b.modules, m)
		b.status = append(b.status, moduleStatus{id: id, enabled: m.enabled})
	}
}

// WithTheme adds a theme under app/design/<area>/<id>.
func WithTheme(area, id string, opts ...ThemeOption) Option {
	return func(b *builder) {
		t := themeSpec{dir: path.Join("app/design", area, id)}
		for _, opt := range opts {
			opt(&t)
		}
		b.fs[path.Join(t.dir, "theme.xml")] = file(t.xml(id))
	}
}

// WithModuleStatus lists a module in config.php without installing it.
func WithModuleStatus(id string, enabled bool) Option {
	return func(b *builder) {
		b.status = append(b.status, moduleStatus{id: id, enabled: enabled})
	}
}

// After sets the module's sequence.
func After(ids ...string) ModuleOption {
	return func(m *moduleSpec) {
		m.after = append(m.after, ids...)
	}
}

// Disabled marks the module as switched off in config.php.
func Disabled() ModuleOption {
	return func(m *moduleSpec) {
		m.enabled = false
	}
}

// InVendor installs the module at vendor/<pkg> instead of app/code.
func InVendor(pkg string) ModuleOption {
	return func(m *moduleSpec) {
		m.dir = path.Join("vendor", pkg)
	}
}

// RawModuleXML replaces the generated etc/module.xml.
func RawModuleXML(contents string) ModuleOption {
	return func(m *moduleSpec) {
		m.raw = contents
	}
}

// Parent sets the theme's parent.
func Parent(id string) ThemeOption {
	return func(t *themeSpec) {
		t.parent = id
	}
}

// ThemeDir installs the theme at the given directory instead of app/design.
func ThemeDir(dir string) ThemeOption {
	return func(t *themeSpec) {
		t.dir = dir
	}
}

// RawThemeXML replaces the generated theme.xml.
func RawThemeXML(contents string) ThemeOption {
	return func(t *themeSpec) {
		t.raw = contents
	}
}

// ModuleDir returns the app/code directory of a module id.
func ModuleDir(id string) string {
	vendor, name, _ := strings.Cut(id, "_")
	return path.Join("app/code", vendor, name)
}

// ThemeDirFor returns the app/design directory of a theme.
func ThemeDirFor(area, id string) string {
	return path.Join("app/design", area, id)
}

// configPHP renders an app/etc/config.php listing modules with their status.
func configPHP(modules ...moduleStatus) string {
	var sb strings.Builder
	sb.WriteString("<?php\nreturn [\n    'modules' => [\n")
	for _, m := range modules {
		status := 0
		if m.enabled {
			status = 1
		}
		fmt.Fprintf(&sb, "        '%s' => %d,\n", m.id, status)
	}
	sb.WriteString("    ],\n];\n")
	return sb.String()
}

func (m moduleSpec) xml() string {
	if m.raw != "" {
		return m.raw
	}
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?>` + "\n")
	sb.WriteString(`<config xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="urn:magento:framework:Module/etc/module.xsd">` + "\n")
	if len(m.after) == 0 {
		fmt.Fprintf(&sb, "    <module name=%q/>\n", m.id)
	} else {
		fmt.Fprintf(&sb, "    <module name=%q>\n        <sequence>\n", m.id)
		for _, dep := range m.after {
			fmt.Fprintf(&sb, "            <module name=%q/>\n", dep)
		}
		sb.WriteString("        </sequence>\n    </module>\n")
	}
	sb.WriteString("</config>\n")
	return sb.String()
}

func (t themeSpec) xml(id string) string {
	if t.raw != "" {
		return t.raw
	}
	var sb strings.Builder
	sb.WriteString(`<theme xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="urn:magento:framework:Config/etc/theme.xsd">` + "\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", id)
	if t.parent != "" {
		fmt.Fprintf(&sb, "    <parent>%s</parent>\n", t.parent)
	}
	sb.WriteString("</theme>\n")
	return sb.String()
}

func file(contents string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(contents), Mode: 0o644}
}
