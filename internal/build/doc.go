// SPDX-License-Identifier: MPL-2.0

// Package build runs the static content pipeline for one theme: it discovers
// the installed components, orders the enabled modules, merges the asset tree
// along the theme's inheritance chain, generates the merged requirejs config
// and preprocessed stylesheets, and writes the result once per locale.
package build
