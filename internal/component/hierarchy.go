// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrThemeNotFound is the sentinel error wrapped by ThemeNotFoundError.
	ErrThemeNotFound = errors.New("theme not found")
	// ErrMissingParent is the sentinel error wrapped by MissingParentError.
	ErrMissingParent = errors.New("theme parent not found")
	// ErrThemeCycle is the sentinel error wrapped by ThemeCycleError.
	ErrThemeCycle = errors.New("theme inheritance cycle")
)

type (
	// ThemeNotFoundError is returned when no installed theme has the id.
	ThemeNotFoundError struct {
		ID ThemeID
	}

	// MissingParentError is returned when a theme's parent is not installed.
	MissingParentError struct {
		Theme  ThemeID
		Parent ThemeID
	}

	// ThemeCycleError is returned when a parent chain revisits a theme. Chain
	// lists the themes from the starting theme to the repeated one.
	ThemeCycleError struct {
		Chain []ThemeID
	}
)

func (e *ThemeNotFoundError) Error() string {
	return fmt.Sprintf("theme %s is not installed", e.ID)
}

// Unwrap returns ErrThemeNotFound for errors.Is() compatibility.
func (e *ThemeNotFoundError) Unwrap() error { return ErrThemeNotFound }

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("theme %s declares parent %s, which is not installed", e.Theme, e.Parent)
}

// Unwrap returns ErrMissingParent for errors.Is() compatibility.
func (e *MissingParentError) Unwrap() error { return ErrMissingParent }

func (e *ThemeCycleError) Error() string {
	ids := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		ids[i] = string(id)
	}
	return fmt.Sprintf("theme inheritance cycle: %s", strings.Join(ids, " -> "))
}

// Unwrap returns ErrThemeCycle for errors.Is() compatibility.
func (e *ThemeCycleError) Unwrap() error { return ErrThemeCycle }

// FindTheme returns the theme with the given id.
func FindTheme(themes []Theme, id ThemeID) (Theme, error) {
	for _, t := range themes {
		if t.ID == id {
			return t, nil
		}
	}
	return Theme{}, &ThemeNotFoundError{ID: id}
}

// ResolveThemeHierarchy returns theme and its ancestors, most distant
// ancestor first. Parents are looked up in themes by id, preferring a theme
// in the child's area.
func ResolveThemeHierarchy(theme Theme, themes []Theme) ([]Theme, error) {
	chain := []Theme{theme}
	visited := map[ThemeID]bool{theme.ID: true}
	order := []ThemeID{theme.ID}

	current := theme
	for current.Parent != "" {
		parent, ok := lookupParent(themes, current)
		if !ok {
			return nil, &MissingParentError{Theme: current.ID, Parent: current.Parent}
		}
		order = append(order, parent.ID)
		if visited[parent.ID] {
			return nil, &ThemeCycleError{Chain: order}
		}
		visited[parent.ID] = true
		chain = append(chain, parent)
		current = parent
	}

	// Collected child first; callers want base first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func lookupParent(themes []Theme, child Theme) (Theme, bool) {
	var fallback *Theme
	for i := range themes {
		if themes[i].ID != child.Parent {
			continue
		}
		if themes[i].Area == child.Area {
			return themes[i], true
		}
		if fallback == nil {
			fallback = &themes[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Theme{}, false
}
