// Package cmd implements the rorschach CLI commands using Cobra.
//
// Available commands:
//   - inspect (alias run): execute test suites
//   - validate: check suite syntax without executing
//   - version: show version information
//
// Exit codes: 0 all passed, 1 a request failed, 2 a suite did not parse,
// 3 bad configuration, 5 a pre-request aborted a suite, 64 bad usage.
package cmd
