// Package capture extracts bind values from HTTP responses for use in
// subsequent requests.
//
// Bind paths address the JSON body by default ("data.token", "items..id").
// The response envelope is reachable with @status, @redirect, @body and
// @header.<Name>. A rule that cannot be resolved binds nothing.
package capture
