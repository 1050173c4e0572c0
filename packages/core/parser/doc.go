// Package parser turns rorschach test files into request specifications.
//
// A test file is YAML with an optional "pre-request" list, a required
// "request" list, and optional file-wide "base-url" and "headers":
//
//	pre-request:
//	  - method: POST
//	    url: "{{ base }}/login"
//	    body: {user: "{{ user }}"}
//	    bind:
//	      token: data.token
//	request:
//	  - url: "{{ base }}/users"
//	    headers:
//	      Authorization: "Bearer {{ token }}"
//	    expect:
//	      code: 200
//	      has: [data..id]
//	      type: {data..name: string}
//
// Templates are processed as text before parsing. Precompile rewrites
// {{ name }} references into the internal (( name )) form, which YAML treats
// as plain text, and Compile substitutes bound values into that form.
package parser
