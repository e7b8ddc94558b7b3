// SPDX-License-Identifier: MPL-2.0

package component

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/scd-tools/scd/internal/ctxlog"
	"github.com/scd-tools/scd/internal/descriptor"
	"github.com/scd-tools/scd/internal/lockfile"
	"github.com/scd-tools/scd/internal/storefs"
)

const (
	codeDir   = "app/code"
	designDir = "app/design"

	moduleDescriptor = "etc/module.xml"
	themeDescriptor  = "theme.xml"

	// descriptorReadLimit bounds concurrent descriptor reads per strategy.
	descriptorReadLimit = 16
)

var (
	// ErrDescriptor is the sentinel error wrapped by DescriptorError.
	ErrDescriptor = errors.New("component descriptor unreadable")
	// ErrDuplicateComponent is the sentinel error wrapped by DuplicateComponentError.
	ErrDuplicateComponent = errors.New("component declared twice")
)

type (
	// DescriptorError is returned when a declared component's descriptor is
	// missing or malformed.
	DescriptorError struct {
		Path string
		Err  error
	}

	// DuplicateComponentError is returned when two install locations declare
	// the same module or theme id.
	DuplicateComponentError struct {
		ID     string
		First  string
		Second string
	}

	// discovery is the output of one strategy.
	discovery struct {
		modules []Module
		themes  []Theme
	}
)

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("read component descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrDescriptor and the underlying read or parse error.
func (e *DescriptorError) Unwrap() []error { return []error{ErrDescriptor, e.Err} }

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %s is installed twice: %s and %s", e.ID, e.First, e.Second)
}

// Unwrap returns ErrDuplicateComponent for errors.Is() compatibility.
func (e *DuplicateComponentError) Unwrap() error { return ErrDuplicateComponent }

// Discover finds every module and theme installed in the store. The
// composer.lock strategy and the app/code + app/design scan run concurrently;
// their results are concatenated, lock file entries first.
func Discover(ctx context.Context, fsys fs.FS) (*Components, error) {
	var fromLock, fromDirs discovery

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fromLock, err = discoverFromLockfile(gctx, fsys)
		return err
	})
	g.Go(func() error {
		var err error
		fromDirs, err = discoverFromDirectories(gctx, fsys)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	components := &Components{Modules: make(map[ModuleID]Module)}
	for _, m := range append(fromLock.modules, fromDirs.modules...) {
		if prev, ok := components.Modules[m.ID]; ok {
			return nil, &DuplicateComponentError{ID: string(m.ID), First: prev.Path, Second: m.Path}
		}
		components.Modules[m.ID] = m
	}

	seen := make(map[string]string)
	for _, t := range append(fromLock.themes, fromDirs.themes...) {
		key := string(t.Area) + "/" + string(t.ID)
		if prev, ok := seen[key]; ok {
			return nil, &DuplicateComponentError{ID: string(t.ID), First: prev, Second: t.Path}
		}
		seen[key] = t.Path
		components.Themes = append(components.Themes, t)
	}

	ctxlog.FromContext(ctx).Debug("discovered components",
		"modules", len(components.Modules), "themes", len(components.Themes))
	return components, nil
}

func discoverFromLockfile(ctx context.Context, fsys fs.FS) (discovery, error) {
	lock, ok, err := lockfile.Load(fsys)
	if err != nil || !ok {
		return discovery{}, err
	}

	var (
		modulePkgs []lockfile.Package
		themePkgs  []lockfile.Package
	)
	for _, pkg := range lock.All() {
		switch pkg.Type {
		case lockfile.TypeModule:
			modulePkgs = append(modulePkgs, pkg)
		case lockfile.TypeTheme:
			themePkgs = append(themePkgs, pkg)
		}
	}

	themes := make([]Theme, len(themePkgs))
	for i, pkg := range themePkgs {
		name, err := lockfile.ParseThemeName(pkg.Name)
		if err != nil {
			return discovery{}, err
		}
		area := Area(name.Area)
		if valid, errs := area.IsValid(); !valid || area == AreaBase {
			if len(errs) == 0 {
				errs = []error{&InvalidAreaError{Value: area}}
			}
			return discovery{}, fmt.Errorf("theme package %s: %w", pkg.Name, errs[0])
		}
		themes[i] = NewTheme(area, name.RegistrationVendor(), name.Name)
		themes[i].Path = storefs.FromRoot(pkg.Dir())
	}

	modules := make([]Module, len(modulePkgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(descriptorReadLimit)
	for i, pkg := range modulePkgs {
		g.Go(func() error {
			m, err := readModule(gctx, fsys, pkg.Dir())
			modules[i] = m
			return err
		})
	}
	for i := range themes {
		g.Go(func() error {
			parent, err := readThemeParent(gctx, fsys, themes[i].Path)
			themes[i].Parent = parent
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return discovery{}, err
	}
	return discovery{modules: modules, themes: themes}, nil
}

func discoverFromDirectories(ctx context.Context, fsys fs.FS) (discovery, error) {
	var modulePaths []string
	vendors, err := storefs.ReadDirNames(fsys, codeDir)
	if err != nil {
		return discovery{}, fmt.Errorf("scan %s: %w", codeDir, err)
	}
	for _, vendor := range vendors {
		names, err := storefs.ReadDirNames(fsys, path.Join(codeDir, vendor))
		if err != nil {
			return discovery{}, fmt.Errorf("scan %s: %w", path.Join(codeDir, vendor), err)
		}
		for _, name := range names {
			modulePaths = append(modulePaths, path.Join(codeDir, vendor, name))
		}
	}

	var themes []Theme
	for _, area := range ThemeAreas() {
		areaDir := path.Join(designDir, string(area))
		vendors, err := storefs.ReadDirNames(fsys, areaDir)
		if err != nil {
			return discovery{}, fmt.Errorf("scan %s: %w", areaDir, err)
		}
		for _, vendor := range vendors {
			names, err := storefs.ReadDirNames(fsys, path.Join(areaDir, vendor))
			if err != nil {
				return discovery{}, fmt.Errorf("scan %s: %w", path.Join(areaDir, vendor), err)
			}
			for _, name := range names {
				t := NewTheme(area, vendor, name)
				t.Path = storefs.FromRoot(path.Join(areaDir, vendor, name))
				themes = append(themes, t)
			}
		}
	}

	modules := make([]Module, len(modulePaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(descriptorReadLimit)
	for i, dir := range modulePaths {
		g.Go(func() error {
			m, err := readModule(gctx, fsys, dir)
			modules[i] = m
			return err
		})
	}
	for i := range themes {
		g.Go(func() error {
			parent, err := readThemeParent(gctx, fsys, themes[i].Path)
			themes[i].Parent = parent
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return discovery{}, err
	}
	return discovery{modules: modules, themes: themes}, nil
}

func readModule(ctx context.Context, fsys fs.FS, dir string) (Module, error) {
	if err := ctx.Err(); err != nil {
		return Module{}, err
	}
	file := path.Join(storefs.Clean(dir), moduleDescriptor)
	f, err := fsys.Open(file)
	if err != nil {
		return Module{}, &DescriptorError{Path: file, Err: err}
	}
	defer f.Close()

	desc, err := descriptor.ParseModule(f)
	if err != nil {
		return Module{}, &DescriptorError{Path: file, Err: err}
	}

	m := Module{ID: ModuleID(desc.Name), Path: storefs.FromRoot(dir)}
	if valid, errs := m.ID.IsValid(); !valid {
		return Module{}, &DescriptorError{Path: file, Err: errs[0]}
	}
	for _, dep := range desc.Sequence {
		m.Sequence = append(m.Sequence, ModuleID(dep))
	}
	return m, nil
}

func readThemeParent(ctx context.Context, fsys fs.FS, dir string) (ThemeID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file := path.Join(storefs.Clean(dir), themeDescriptor)
	f, err := fsys.Open(file)
	if err != nil {
		return "", &DescriptorError{Path: file, Err: err}
	}
	defer f.Close()

	desc, err := descriptor.ParseTheme(f)
	if err != nil {
		return "", &DescriptorError{Path: file, Err: err}
	}
	parent := ThemeID(desc.Parent)
	if parent != "" {
		if valid, errs := parent.IsValid(); !valid {
			return "", &DescriptorError{Path: file, Err: errs[0]}
		}
	}
	return parent, nil
}
