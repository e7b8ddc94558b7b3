// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is read from an scd.cue file, found by walking up from the working
// directory (or named explicitly with --config). The file is validated against an
// embedded CUE schema (config_schema.cue), merged over the defaults, and finally
// overridden by SCD_* environment variables.
package config
