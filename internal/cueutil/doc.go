// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the shared schema-validated decoding flow used for
// scd.cue and composer.lock:
//
//  1. Compile the embedded schema
//  2. Compile (or extract, for JSON) the user data and unify it with the schema
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed lock_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[Lock](
//	    schema, data, "#Lock",
//	    cueutil.WithFilename("composer.lock"),
//	    cueutil.WithJSON(),
//	)
package cueutil
