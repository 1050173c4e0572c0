// Package builtin provides the named transforms applied to extracted values
// before they are bound.
//
// Available transforms:
//   - trim, upper, lower, string: text conversions
//   - int, float: numeric conversions
//   - base64, base64Decode, md5, sha256, urlEncode, urlDecode: encodings
//   - json: decode a string holding a JSON document
//   - bearer: prefix with "Bearer "
//   - first, last, count: array helpers
//
// Transforms chain with a pipe, "trim|upper", and are selected in test files
// through a bind's "after" key or a request's "after-function".
package builtin
