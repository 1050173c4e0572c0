// Package output provides formatters for displaying suite results.
//
// Supported output formats:
//   - Console: one line per request, assertion lines on failure or -v
//   - JSON: machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// Every formatter accumulates or streams results per file and writes its
// closing output in Flush.
package output
