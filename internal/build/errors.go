// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"io/fs"

	"github.com/scd-tools/scd/internal/asset"
	"github.com/scd-tools/scd/internal/component"
	"github.com/scd-tools/scd/internal/dag"
	"github.com/scd-tools/scd/internal/issue"
	"github.com/scd-tools/scd/internal/lockfile"
	"github.com/scd-tools/scd/internal/overlay"
	"github.com/scd-tools/scd/internal/stylesheet"
)

// wrap turns a pipeline failure into an ActionableError linked to the
// matching issue catalog entry.
func wrap(operation, resource string, err error) error {
	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)

	var cycle *dag.CycleError
	switch {
	case errors.Is(err, component.ErrThemeNotFound):
		ec.WithIssue(issue.ThemeNotFoundId).
			WithSuggestion("Run 'scd themes' to list installed themes")
	case errors.Is(err, component.ErrMissingParent):
		ec.WithIssue(issue.ThemeParentMissingId).
			WithSuggestion("Install the parent theme or fix <parent> in theme.xml")
	case errors.Is(err, component.ErrThemeCycle):
		ec.WithIssue(issue.ThemeCycleId).
			WithSuggestion("Remove <parent> from the theme that should be the base")
	case errors.Is(err, component.ErrMissingDependency), errors.Is(err, overlay.ErrUnknownModule):
		ec.WithIssue(issue.ModuleDependencyMissingId).
			WithSuggestion("Run 'scd modules --all' to compare installed and enabled modules")
	case errors.As(err, &cycle):
		ec.WithIssue(issue.DependencyCycleId).
			WithSuggestion("Break the cycle by removing one <sequence> entry")
	case errors.Is(err, lockfile.ErrInvalidLockfile), errors.Is(err, lockfile.ErrInvalidThemePackage):
		ec.WithIssue(issue.LockfileInvalidId).
			WithSuggestion("Regenerate composer.lock with 'composer update --lock'")
	case errors.Is(err, component.ErrDescriptor), errors.Is(err, component.ErrDuplicateComponent),
		errors.Is(err, component.ErrInvalidModuleID), errors.Is(err, component.ErrInvalidThemeID):
		ec.WithIssue(issue.DescriptorInvalidId).
			WithSuggestion("Check the descriptor file named in the error")
	case errors.Is(err, stylesheet.ErrCompileFailed):
		ec.WithIssue(issue.CompilerFailedId).
			WithSuggestion("Run the compiler by hand on the entry named in the error")
	case errors.Is(err, stylesheet.ErrNotInTree), errors.Is(err, asset.ErrOutsideLayout):
		ec.WithSuggestion("Check the @magento_import and @import paths of the stylesheet named in the error")
	case errors.Is(err, fs.ErrPermission):
		ec.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check the permissions of the path in the error message")
	case operation == opOpenStore, operation == opReadEnabled && errors.Is(err, fs.ErrNotExist):
		ec.WithIssue(issue.StoreRootNotFoundId).
			WithSuggestion("Set store_root in scd.cue to the store installation directory")
	}
	return ec.BuildError()
}
