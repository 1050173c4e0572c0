// Package env supplies the values a suite run is seeded with and the
// immutable bind snapshots threaded through it.
//
// Bind resolution order is fixed: environment values from a Source, then
// explicit input, then values extracted from responses as requests run.
// Each step merges on top of the previous snapshot, most recent wins.
package env
