// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"sort"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigLoadFailedId
	StoreRootNotFoundId
	ThemeNotFoundId
	ThemeParentMissingId
	ThemeCycleId
	ModuleDependencyMissingId
	DependencyCycleId
	LockfileInvalidId
	DescriptorInvalidId
	PermissionDeniedId
	CompilerFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No scd.cue found!

scd looked for an ` + "`scd.cue`" + ` file in the current directory and every parent
directory, but could not find one.

## Things you can try:
- Run scd from the root of your store, or any directory below it
- Create a configuration for the themes you deploy:
~~~
$ scd init --theme Magento/luma --locale en_US
~~~
- Point scd at a specific file:
~~~
$ scd --config /path/to/scd.cue deploy
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your scd.cue file exists but could not be loaded.

## Things you can try:
- Check the error message above for the offending field
- Make sure ` + "`store_root`" + ` is an absolute path
- Every theme entry needs a ` + "`name`" + ` in ` + "`Vendor/name`" + ` form

## Example configuration:
~~~cue
store_root: "/var/www/store"
themes: [
  {name: "Magento/luma", locales: ["en_US"]},
]
~~~`,
	}

	storeRootNotFoundIssue = &Issue{
		id: StoreRootNotFoundId,
		mdMsg: `
# Not a store root!

The configured store root does not contain ` + "`app/etc/config.php`" + ` or ` + "`composer.lock`" + `.

## Things you can try:
- Verify ` + "`store_root`" + ` in scd.cue
- Run the application installer so that app/etc/config.php exists`,
	}

	themeNotFoundIssue = &Issue{
		id: ThemeNotFoundId,
		mdMsg: `
# Theme not found!

The requested theme is not installed in this store.

## Things you can try:
- List the installed themes:
~~~
$ scd themes
~~~
- Theme identifiers use the ` + "`Vendor/name`" + ` form, e.g. ` + "`Magento/luma`",
	}

	themeParentMissingIssue = &Issue{
		id: ThemeParentMissingId,
		mdMsg: `
# Theme parent not found!

A theme declares a ` + "`<parent>`" + ` in its theme.xml that is not installed.

## Things you can try:
- Install the parent theme (or require its package)
- Fix the ` + "`<parent>`" + ` element in the child theme's theme.xml`,
	}

	themeCycleIssue = &Issue{
		id: ThemeCycleId,
		mdMsg: `
# Theme inheritance cycle!

Following the ` + "`<parent>`" + ` chain of the theme leads back to a theme that was already
visited. Theme inheritance must form a tree.

## Things you can try:
- Inspect the theme.xml of every theme named in the error
- Remove the ` + "`<parent>`" + ` element from the theme that should be the base`,
	}

	moduleDependencyMissingIssue = &Issue{
		id: ModuleDependencyMissingId,
		mdMsg: `
# Module dependency not found!

A module lists another module in its ` + "`<sequence>`" + ` (etc/module.xml), but that module is
not installed in app/code or in the composer lock file.

## Things you can try:
- Install the missing module
- Remove the stale ` + "`<sequence>`" + ` entry from the dependent module`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Module sequence cycle detected!

The ` + "`<sequence>`" + ` declarations of your modules form a cycle, so no load order exists.

## Things you can try:
- Review the etc/module.xml of each module named in the error
- Break the cycle by removing one of the sequence entries`,
	}

	lockfileInvalidIssue = &Issue{
		id: LockfileInvalidId,
		mdMsg: `
# Invalid composer.lock!

The composer.lock file at the store root could not be parsed, or one of its theme
packages does not follow the ` + "`<vendor>/theme-<area>-<name>`" + ` naming convention.

## Things you can try:
- Regenerate the lock file:
~~~
$ composer update --lock
~~~
- Check the package named in the error message`,
	}

	descriptorInvalidIssue = &Issue{
		id: DescriptorInvalidId,
		mdMsg: `
# Invalid component descriptor!

A module's etc/module.xml or a theme's theme.xml is missing or is not well-formed XML.

## Things you can try:
- Validate the file named in the error with an XML linter
- Reinstall the package that ships the component`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

scd could not read part of the store, or could not write to the output directory.

## Things you can try:
- Check the permissions of the path in the error message
- Run scd as the user that owns the store files`,
	}

	compilerFailedIssue = &Issue{
		id: CompilerFailedId,
		mdMsg: `
# Stylesheet compiler failed!

The configured ` + "`less.compiler`" + ` command exited with an error.

## Things you can try:
- Run the compiler by hand on the entry file named in the error
- Remove ` + "`less.compiler`" + ` from scd.cue to deploy the preprocessed .less sources only`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():          configNotFoundIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		storeRootNotFoundIssue.Id():       storeRootNotFoundIssue,
		themeNotFoundIssue.Id():           themeNotFoundIssue,
		themeParentMissingIssue.Id():      themeParentMissingIssue,
		themeCycleIssue.Id():              themeCycleIssue,
		moduleDependencyMissingIssue.Id(): moduleDependencyMissingIssue,
		dependencyCycleIssue.Id():         dependencyCycleIssue,
		lockfileInvalidIssue.Id():         lockfileInvalidIssue,
		descriptorInvalidIssue.Id():       descriptorInvalidIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
		compilerFailedIssue.Id():          compilerFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for v := range maps.Values(issues) {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].id < values[j].id })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
