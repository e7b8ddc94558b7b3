// SPDX-License-Identifier: MPL-2.0

// Package component discovers the modules and themes installed in a store and
// orders them: modules by their declared load sequence, themes by their
// parent chain.
package component

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
)

const (
	// AreaFrontend is the storefront area.
	AreaFrontend Area = "frontend"
	// AreaAdminhtml is the administration area.
	AreaAdminhtml Area = "adminhtml"
	// AreaBase holds views shared by every area. Themes never live in it.
	AreaBase Area = "base"
)

var (
	// ErrInvalidModuleID is the sentinel error wrapped by InvalidModuleIDError.
	ErrInvalidModuleID = errors.New("invalid module id")
	// ErrInvalidThemeID is the sentinel error wrapped by InvalidThemeIDError.
	ErrInvalidThemeID = errors.New("invalid theme id")
	// ErrInvalidArea is the sentinel error wrapped by InvalidAreaError.
	ErrInvalidArea = errors.New("invalid area")

	moduleIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+_[A-Za-z0-9]+$`)
	themeIDPattern  = regexp.MustCompile(`^[A-Za-z0-9][\w.-]*/[\w.-]+$`)
)

type (
	// ModuleID identifies a module, in Vendor_Name form (e.g. "Magento_Catalog").
	ModuleID string

	// ThemeID identifies a theme, in Vendor/name form (e.g. "Magento/luma").
	ThemeID string

	// Area is a deployment context selecting which view tree applies.
	Area string

	// InvalidModuleIDError is returned when a ModuleID is not in Vendor_Name form.
	InvalidModuleIDError struct {
		Value ModuleID
	}

	// InvalidThemeIDError is returned when a ThemeID is not in Vendor/name form.
	InvalidThemeIDError struct {
		Value ThemeID
	}

	// InvalidAreaError is returned for an unknown area.
	InvalidAreaError struct {
		Value Area
	}

	// Module is an installed module.
	Module struct {
		ID ModuleID
		// Sequence lists the modules this module must load after.
		Sequence []ModuleID
		// Path is the install directory, from the store root with a leading
		// slash (e.g. "/app/code/Magento/Catalog").
		Path string
	}

	// Theme is an installed theme.
	Theme struct {
		ID     ThemeID
		Vendor string
		Name   string
		Area   Area
		// Parent is empty for a theme without a parent.
		Parent ThemeID
		// Path is the install directory, from the store root with a leading slash.
		Path string
	}

	// Components is everything discovered in a store.
	Components struct {
		Modules map[ModuleID]Module
		Themes  []Theme
	}
)

func (id ModuleID) String() string { return string(id) }

// IsValid returns whether the ModuleID is in Vendor_Name form.
func (id ModuleID) IsValid() (bool, []error) {
	if !moduleIDPattern.MatchString(string(id)) {
		return false, []error{&InvalidModuleIDError{Value: id}}
	}
	return true, nil
}

func (e *InvalidModuleIDError) Error() string {
	return fmt.Sprintf("invalid module id %q: expected Vendor_Name", e.Value)
}

// Unwrap returns ErrInvalidModuleID for errors.Is() compatibility.
func (e *InvalidModuleIDError) Unwrap() error { return ErrInvalidModuleID }

func (id ThemeID) String() string { return string(id) }

// IsValid returns whether the ThemeID is in Vendor/name form.
func (id ThemeID) IsValid() (bool, []error) {
	if !themeIDPattern.MatchString(string(id)) {
		return false, []error{&InvalidThemeIDError{Value: id}}
	}
	return true, nil
}

func (e *InvalidThemeIDError) Error() string {
	return fmt.Sprintf("invalid theme id %q: expected Vendor/name", e.Value)
}

// Unwrap returns ErrInvalidThemeID for errors.Is() compatibility.
func (e *InvalidThemeIDError) Unwrap() error { return ErrInvalidThemeID }

func (a Area) String() string { return string(a) }

// IsValid returns whether the Area is one of the known areas.
func (a Area) IsValid() (bool, []error) {
	switch a {
	case AreaFrontend, AreaAdminhtml, AreaBase:
		return true, nil
	default:
		return false, []error{&InvalidAreaError{Value: a}}
	}
}

// ThemeAreas returns the areas that hold themes.
func ThemeAreas() []Area {
	return []Area{AreaFrontend, AreaAdminhtml}
}

func (e *InvalidAreaError) Error() string {
	return fmt.Sprintf("invalid area %q: expected frontend, adminhtml or base", e.Value)
}

// Unwrap returns ErrInvalidArea for errors.Is() compatibility.
func (e *InvalidAreaError) Unwrap() error { return ErrInvalidArea }

// NewTheme builds a theme from its area, vendor and name. The install path is
// left to the caller.
func NewTheme(area Area, vendor, name string) Theme {
	return Theme{
		ID:     ThemeID(vendor + "/" + name),
		Vendor: vendor,
		Name:   name,
		Area:   area,
	}
}

// WebDir is the theme's own static asset directory.
func (t Theme) WebDir() string {
	return path.Join(t.Path, "web")
}

// ModuleWebDir is the theme's override directory for the given module.
func (t Theme) ModuleWebDir(id ModuleID) string {
	return path.Join(t.Path, string(id), "web")
}

// ViewWebDir is the module's static asset directory for area.
func (m Module) ViewWebDir(area Area) string {
	return path.Join(m.Path, "view", string(area), "web")
}

// SortedModuleIDs returns the ids of all modules in lexical order.
func (c *Components) SortedModuleIDs() []ModuleID {
	ids := make([]ModuleID, 0, len(c.Modules))
	for id := range c.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ModuleList returns all modules in lexical id order.
func (c *Components) ModuleList() []Module {
	ids := c.SortedModuleIDs()
	modules := make([]Module, 0, len(ids))
	for _, id := range ids {
		modules = append(modules, c.Modules[id])
	}
	return modules
}
