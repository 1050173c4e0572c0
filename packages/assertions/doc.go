// Package assertions evaluates expect blocks against HTTP responses.
//
// Supported kinds:
//   - has: every listed path exists; wildcards require every branch
//   - type: leaves have a JSON type, optionally nullable ("nullable|int")
//   - value: leaves equal a literal; numbers compare numerically
//   - code: status code equality
//   - redirect: Location header equality
//
// Path failures never escape an assertion; they produce a failed Result.
// Unknown kinds and malformed arguments are configuration errors.
package assertions
