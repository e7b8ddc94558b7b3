// SPDX-License-Identifier: MPL-2.0

// Package stylesheet prepares a theme's .less sources for deployment.
//
// Preprocess expands @magento_import directives against the asset tree and
// returns the rewritten files as generated assets. Compiler runs an external
// compiler, such as lessc, over the deployed entry files; DefaultEntries are
// the entries a storefront theme compiles when none are configured.
//
// Resolver is the extension point for in-process compilers. It follows
// @import statements through the asset tree instead of the disk, so a
// compiler that is handed Resolver.Load as its file loader can compile a
// theme before anything is written. ExecCompiler does not use it: it runs
// over the deployed directory, where the tree has already been
// materialized.
package stylesheet
