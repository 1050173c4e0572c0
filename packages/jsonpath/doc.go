// Package jsonpath decodes JSON response bodies into a closed set of value
// types and navigates them with dot-separated paths.
//
// Path syntax:
//   - "user.name" follows object keys
//   - "items.0.id" indexes arrays by position
//   - "items..id" fans out over every element of items (empty segment)
//
// Fan-out composes: "a..b..c" visits every c of every b of every a element.
// The package only navigates; callers decide whether all, any, or every
// failing branch matters.
package jsonpath
