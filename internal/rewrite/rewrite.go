// SPDX-License-Identifier: MPL-2.0

// Package rewrite expands the @magento_import stylesheet directive into plain
// @import statements resolved against an asset.Tree.
//
//	// @magento_import (reference) 'source/_module.less';
//
// becomes one import per matching asset, relative to the importing file:
//
//	@import (reference) '../Magento_Catalog/css/source/_module.less';
//	@import (reference) '../Magento_Theme/css/source/_module.less';
package rewrite

import (
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/scd-tools/scd/internal/asset"
)

// DefaultExtension is appended to patterns without an extension.
const DefaultExtension = ".less"

var directive = regexp.MustCompile(`//\s*@magento_import\s+(?:\(([a-z, ]+)\))?\s?['"]([^'"]+)['"]\s*;`)

// HasImportDirective reports whether source contains an @magento_import.
func HasImportDirective(source string) bool {
	return directive.MatchString(source)
}

// ImportDirectives replaces every @magento_import in source, a file deployed
// at finalPath, with imports of the matching tree assets. Matches follow tree
// order; a directive without matches is removed.
func ImportDirectives(finalPath, source string, tree *asset.Tree) string {
	dir := path.Dir(finalPath)
	return directive.ReplaceAllStringFunc(source, func(m string) string {
		groups := directive.FindStringSubmatch(m)
		opts, pattern := groups[1], groups[2]

		matches := Matches(pattern, tree)
		imports := make([]string, 0, len(matches))
		for _, a := range matches {
			imports = append(imports, importStatement(opts, relative(dir, a.FinalPath)))
		}
		return strings.Join(imports, "\n")
	})
}

// Matches returns the tree assets an @magento_import pattern refers to: those
// whose path without module segment equals the pattern or ends with
// "/<pattern>". Patterns with glob characters match with doublestar.
func Matches(pattern string, tree *asset.Tree) []asset.StaticAsset {
	pattern = strings.TrimPrefix(path.Clean(pattern), "./")
	if path.Ext(pattern) == "" {
		pattern += DefaultExtension
	}
	glob := hasMeta(pattern)

	var matches []asset.StaticAsset
	for _, a := range tree.All() {
		inContext := a.PathInContext()
		if glob {
			if ok, _ := doublestar.Match("**/"+pattern, inContext); ok {
				matches = append(matches, a)
			}
			continue
		}
		if inContext == pattern || strings.HasSuffix(inContext, "/"+pattern) {
			matches = append(matches, a)
		}
	}
	return matches
}

func importStatement(opts, target string) string {
	if opts != "" {
		return "@import (" + opts + ") '" + target + "';"
	}
	return "@import '" + target + "';"
}

// relative returns target relative to dir; both are slash separated paths
// inside the deployed theme.
func relative(dir, target string) string {
	if dir == "." || dir == "" {
		return target
	}
	from := strings.Split(dir, "/")
	to := strings.Split(target, "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	return strings.Join(parts, "/")
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
