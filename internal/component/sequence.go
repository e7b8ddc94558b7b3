// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"fmt"

	"github.com/scd-tools/scd/internal/dag"
)

// ErrMissingDependency is the sentinel error wrapped by MissingDependencyError.
var ErrMissingDependency = errors.New("module dependency not installed")

// MissingDependencyError is returned when a module's sequence names a module
// that was not discovered.
type MissingDependencyError struct {
	Module     ModuleID
	Dependency ModuleID
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("module %s declares a sequence dependency on %s, which is not installed", e.Module, e.Dependency)
}

// Unwrap returns ErrMissingDependency for errors.Is() compatibility.
func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// ResolveModuleSequence orders modules so that every module follows the
// modules in its Sequence. Modules without an ordering constraint between
// them keep their input order. A cycle yields *dag.CycleError.
func ResolveModuleSequence(modules []Module) ([]Module, error) {
	byID := make(map[ModuleID]Module, len(modules))
	g := dag.New()
	for _, m := range modules {
		byID[m.ID] = m
		g.AddNode(string(m.ID))
	}

	for _, m := range modules {
		for _, dep := range m.Sequence {
			if _, ok := byID[dep]; !ok {
				return nil, &MissingDependencyError{Module: m.ID, Dependency: dep}
			}
			g.AddEdge(string(dep), string(m.ID))
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	sorted := make([]Module, 0, len(order))
	for _, id := range order {
		sorted = append(sorted, byID[ModuleID(id)])
	}
	return sorted, nil
}

// OrderEnabled filters sequence-ordered modules down to the enabled ones.
// The result follows the order of sorted, not of enabled; enabled ids that
// are not in sorted are dropped.
func OrderEnabled(sorted []Module, enabled []ModuleID) []ModuleID {
	on := make(map[ModuleID]bool, len(enabled))
	for _, id := range enabled {
		on[id] = true
	}

	var ordered []ModuleID
	for _, m := range sorted {
		if on[m.ID] {
			ordered = append(ordered, m.ID)
		}
	}
	return ordered
}

// UnknownModules returns the enabled ids that do not name an installed module.
func UnknownModules(c *Components, enabled []ModuleID) []ModuleID {
	var unknown []ModuleID
	for _, id := range enabled {
		if _, ok := c.Modules[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
