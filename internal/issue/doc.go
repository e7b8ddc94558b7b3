// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// pages for the failures a deploy can run into (missing configuration, broken
// theme inheritance, dangling module sequences, unreadable store files).
package issue
