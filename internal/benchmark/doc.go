// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks over a synthetic store for PGO profile
// generation. They cover the hot paths of a deployment:
//   - scd.cue loading and schema validation
//   - component discovery and module sequencing
//   - asset tree merging, stylesheet preprocessing and requirejs merging
//   - a full deployment into an in-memory filesystem
//
// To generate a profile:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
