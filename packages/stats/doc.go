// Package stats aggregates request latencies into percentile summaries
// using an HDR histogram.
package stats
