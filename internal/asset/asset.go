// SPDX-License-Identifier: MPL-2.0

// Package asset maps physical store files to their logical ("final") paths
// in the deployed theme and holds the merged result in a Tree.
package asset

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/storefs"
)

const (
	// KindRoot is a file from the shared lib/web library.
	KindRoot Kind = iota + 1
	// KindModule is a file from a module's view/<area>/web directory.
	KindModule
	// KindTheme is a file from a theme, possibly in a module context.
	KindTheme
)

// RootWebDir is the shared library every theme builds on.
const RootWebDir = "lib/web"

// ErrOutsideLayout is the sentinel error wrapped by LayoutError.
var ErrOutsideLayout = errors.New("path outside the static asset layout")

type (
	// Kind discriminates the StaticAsset variants.
	Kind int

	// StaticAsset is a single deployable file. Kind selects which of the
	// optional fields are set:
	//
	//	KindRoot:   none
	//	KindModule: ModuleID
	//	KindTheme:  ThemeID, and ModuleID in a module context
	StaticAsset struct {
		Kind Kind
		// PathFromStoreRoot is the physical file, with a leading slash.
		PathFromStoreRoot string
		// FinalPath is the path inside the deployed theme directory.
		FinalPath string
		ModuleID  component.ModuleID
		ThemeID   component.ThemeID
	}

	// LayoutError is returned when a path does not lie under the directory
	// layout expected for its owner.
	LayoutError struct {
		Path  string
		Owner string
	}
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "RootAsset"
	case KindModule:
		return "ModuleAsset"
	case KindTheme:
		return "ThemeAsset"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s is not a static asset of %s", e.Path, e.Owner)
}

// Unwrap returns ErrOutsideLayout for errors.Is() compatibility.
func (e *LayoutError) Unwrap() error { return ErrOutsideLayout }

// Owner describes where the asset comes from, for listings.
func (a StaticAsset) Owner() string {
	switch a.Kind {
	case KindRoot:
		return RootWebDir
	case KindModule:
		return string(a.ModuleID)
	case KindTheme:
		if a.ModuleID != "" {
			return string(a.ThemeID) + " (" + string(a.ModuleID) + ")"
		}
		return string(a.ThemeID)
	default:
		return ""
	}
}

// PathInContext returns the final path without its module segment: module
// assets and module-context theme assets drop their leading
// "<Vendor_Module>/", other assets are returned unchanged.
func (a StaticAsset) PathInContext() string {
	switch a.Kind {
	case KindModule:
		return strings.TrimPrefix(a.FinalPath, string(a.ModuleID)+"/")
	case KindTheme:
		if a.ModuleID != "" {
			return strings.TrimPrefix(a.FinalPath, string(a.ModuleID)+"/")
		}
		return a.FinalPath
	default:
		return a.FinalPath
	}
}

// ClassifyRootPath classifies a file under lib/web.
func ClassifyRootPath(p string) (StaticAsset, error) {
	rel, ok := within(storefs.Clean(p), RootWebDir)
	if !ok {
		return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: RootWebDir}
	}
	return StaticAsset{
		Kind:              KindRoot,
		PathFromStoreRoot: storefs.FromRoot(p),
		FinalPath:         rel,
	}, nil
}

// ClassifyModulePath classifies a file under one of the module's
// view/<area>/web directories. The final path is "<ModuleID>/<rest>".
func ClassifyModulePath(p string, module component.Module) (StaticAsset, error) {
	rel, ok := within(storefs.Clean(p), storefs.Clean(module.Path))
	if !ok {
		return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: string(module.ID)}
	}

	// view/<area>/web/<rest>
	parts := strings.SplitN(rel, "/", 4)
	if len(parts) != 4 || parts[0] != "view" || parts[2] != "web" {
		return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: string(module.ID)}
	}
	if valid, _ := component.Area(parts[1]).IsValid(); !valid {
		return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: string(module.ID)}
	}

	return StaticAsset{
		Kind:              KindModule,
		PathFromStoreRoot: storefs.FromRoot(p),
		FinalPath:         path.Join(string(module.ID), parts[3]),
		ModuleID:          module.ID,
	}, nil
}

// ClassifyThemePath classifies a file of a theme. Files under
// "<Vendor_Module>/web/" get the final path "<Vendor_Module>/<rest>"; files
// under "web/" get "<rest>".
func ClassifyThemePath(p string, theme component.Theme) (StaticAsset, error) {
	rel, ok := within(storefs.Clean(p), storefs.Clean(theme.Path))
	if !ok {
		return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: string(theme.ID)}
	}

	first, rest, _ := strings.Cut(rel, "/")
	if valid, _ := component.ModuleID(first).IsValid(); valid {
		inner, ok := within(rest, "web")
		if !ok {
			return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: string(theme.ID)}
		}
		return StaticAsset{
			Kind:              KindTheme,
			PathFromStoreRoot: storefs.FromRoot(p),
			FinalPath:         path.Join(first, inner),
			ModuleID:          component.ModuleID(first),
			ThemeID:           theme.ID,
		}, nil
	}

	inner, ok := within(rel, "web")
	if !ok {
		return StaticAsset{}, &LayoutError{Path: storefs.FromRoot(p), Owner: string(theme.ID)}
	}
	return StaticAsset{
		Kind:              KindTheme,
		PathFromStoreRoot: storefs.FromRoot(p),
		FinalPath:         inner,
		ThemeID:           theme.ID,
	}, nil
}

// within returns p relative to dir when p lies strictly below dir.
func within(p, dir string) (string, bool) {
	if dir == "." {
		return p, p != "." && p != ""
	}
	rel, ok := strings.CutPrefix(p, dir+"/")
	if !ok || rel == "" {
		return "", false
	}
	return rel, true
}
