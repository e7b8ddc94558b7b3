// SPDX-License-Identifier: MPL-2.0

// Package storetest builds in-memory store trees for tests.
//
// This package is separate from testutil so that it can import
// internal/component without creating an import cycle.
//
// # Usage
//
//	import "github.com/scd-tools/scd/internal/testutil/storetest"
//
//	fsys := storetest.New(
//	    storetest.WithModule("Magento_Catalog", storetest.After("Magento_Store")),
//	    storetest.WithModule("Magento_Store"),
//	    storetest.WithTheme("frontend", "Magento/luma", storetest.Parent("Magento/blank")),
//	    storetest.WithTheme("frontend", "Magento/blank"),
//	    storetest.WithFile("lib/web/jquery.js", "/* jquery */"),
//	)
package storetest
