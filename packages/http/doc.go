// Package http provides the HTTP client used to execute test requests.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, proxy and TLS verification
//   - Opt-in redirect following, capped by a maximum
//   - Request building from parsed request specs and file defaults
//   - A decoded response View for assertions and bind extraction
package http
