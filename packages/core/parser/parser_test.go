package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParse_SimpleGET(t *testing.T) {
	input := `request:
  - url: https://api.example.com/users/1
    expect:
      code: 200
`
	file, err := Parse(input, "test.yml")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)
	assert.Empty(t, file.PreRequests)

	req := file.Requests[0]
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://api.example.com/users/1", req.URL)
	require.Len(t, req.Expect, 1)
	assert.Equal(t, "code", req.Expect[0].Kind)
	require.Len(t, req.Expect[0].Args, 1)
	assert.Equal(t, jsonpath.Number{Raw: "200"}, req.Expect[0].Args[0].Value)
}

func TestParse_FullRequest(t *testing.T) {
	input := `base-url: https://api.example.com
headers:
  X-Client: rorschach
pre-request:
  - method: post
    url: /login
    body:
      user: john
      roles: [admin, dev]
    bind:
      token: data.token
request:
  - method: GET
    url: /users
    description: list users
    headers:
      Authorization: Bearer ((token))
    query:
      page: 2
    expect:
      has:
        - data..id
        - meta
      type:
        data..name: string
        data..age: nullable|integer
      value:
        meta.total: 2
        meta.label: "2"
      redirect: https://example.com/next
`
	file, err := Parse(input, "full.yml")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", file.BaseURL)
	require.Len(t, file.Headers, 1)
	assert.Equal(t, "X-Client", file.Headers[0].Key)

	require.Len(t, file.PreRequests, 1)
	pre := file.PreRequests[0]
	assert.Equal(t, "POST", pre.Method)
	require.NotNil(t, pre.Body)
	assert.Equal(t, BodyJSON, pre.Body.ContentType)
	assert.Equal(t, `{"user":"john","roles":["admin","dev"]}`, pre.Body.Raw)
	require.Len(t, pre.Binds, 1)
	assert.Equal(t, &BindRule{Name: "token", Path: "data.token", Line: 11}, pre.Binds[0])

	require.Len(t, file.Requests, 1)
	req := file.Requests[0]
	assert.Equal(t, "list users", req.Name())
	auth, ok := req.HeaderValue("authorization")
	require.True(t, ok)
	assert.Equal(t, "Bearer ((token))", auth)
	require.Len(t, req.Query, 1)
	assert.Equal(t, "2", req.Query[0].Value)

	var kinds []string
	for _, exp := range req.Expect {
		kinds = append(kinds, exp.Kind)
	}
	assert.Equal(t, []string{"has", "type", "value", "redirect"}, kinds)

	has := req.Expect[0]
	require.Len(t, has.Args, 2)
	assert.Equal(t, "data..id", has.Args[0].Subject)
	assert.Nil(t, has.Args[0].Value)

	typ := req.Expect[1]
	require.Len(t, typ.Args, 2)
	assert.Equal(t, "data..age", typ.Args[1].Subject)
	assert.Equal(t, jsonpath.String("nullable|integer"), typ.Args[1].Value)

	value := req.Expect[2]
	assert.Equal(t, jsonpath.Number{Raw: "2"}, value.Args[0].Value)
	assert.Equal(t, jsonpath.String("2"), value.Args[1].Value)
}

func TestParse_BindForms(t *testing.T) {
	input := `request:
  - url: /tokens
    after-function: trim
    bind:
      token: data.token
      id:
        path: data.id
        after: string
`
	file, err := Parse(input, "binds.yml")
	require.NoError(t, err)

	binds := file.Requests[0].Binds
	require.Len(t, binds, 2)
	assert.Equal(t, "trim", binds[0].Transform)
	assert.Equal(t, "data.id", binds[1].Path)
	assert.Equal(t, "string", binds[1].Transform)
}

func TestParse_RawBody(t *testing.T) {
	input := `request:
  - method: POST
    url: /raw
    body: |
      plain text
`
	file, err := Parse(input, "raw.yml")
	require.NoError(t, err)
	body := file.Requests[0].Body
	require.NotNil(t, body)
	assert.Equal(t, BodyRaw, body.ContentType)
	assert.Equal(t, "plain text\n", body.Raw)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		count    int
	}{
		{
			name:     "missing request section",
			input:    "pre-request:\n  - url: /a\n",
			contains: []string{`"request" entry is required`},
			count:    1,
		},
		{
			name:     "empty request list",
			input:    "request: []\n",
			contains: []string{`"request" entry is required`},
			count:    1,
		},
		{
			name:     "every invalid request is reported",
			input:    "request:\n  - method: GET\n  - url: /ok\n    bogus: 1\n  - description: x\n",
			contains: []string{"missing url", `unknown request field "bogus"`},
			count:    3,
		},
		{
			name:     "expect must be a mapping",
			input:    "request:\n  - url: /a\n    expect: [code]\n",
			contains: []string{"expect must be a mapping"},
			count:    1,
		},
		{
			name:     "not a mapping",
			input:    "- url: /a\n",
			contains: []string{"document must be a mapping"},
			count:    1,
		},
		{
			name:     "invalid yaml",
			input:    "request:\n  - url: [\n",
			contains: []string{"bad.yml"},
			count:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "bad.yml")
			require.Error(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
			errs := multierr.Errors(err)
			assert.Len(t, errs, tt.count)

			var pe *ParseError
			assert.True(t, errors.As(errs[0], &pe))
		})
	}
}

func TestParse_ErrorPositions(t *testing.T) {
	_, err := Parse("request:\n  - method: GET\n", "pos.yml")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "pos.yml", pe.File)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, pe.Error(), "pos.yml:2:")
}

func TestParse_UnknownExpectKindIsKept(t *testing.T) {
	file, err := Parse("request:\n  - url: /a\n    expect:\n      header: x\n", "kind.yml")
	require.NoError(t, err)
	assert.Equal(t, "header", file.Requests[0].Expect[0].Kind)
}

func TestDumpAndParseRequest(t *testing.T) {
	input := `request:
  - method: POST
    url: /users/((id))
    body:
      id: ((id))
    expect:
      code: 201
`
	file, err := Parse(input, "dump.yml")
	require.NoError(t, err)

	dumped, err := Dump(file.Requests[0])
	require.NoError(t, err)
	assert.Contains(t, dumped, "((id))")
	assert.NotContains(t, dumped, "request:")

	compiled := Compile(dumped, MapBinds{"id": 7})
	req, err := ParseRequest(compiled)
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/users/7", req.URL)
	assert.Equal(t, `{"id":7}`, req.Body.Raw)
	assert.Equal(t, jsonpath.Number{Raw: "201"}, req.Expect[0].Args[0].Value)

	again, err := Dump(req)
	require.NoError(t, err)
	reparsed, err := ParseRequest(again)
	require.NoError(t, err)
	assert.Equal(t, req.URL, reparsed.URL)
	assert.Equal(t, req.Body.Raw, reparsed.Body.Raw)
}

func TestDump_WithoutSource(t *testing.T) {
	_, err := Dump(&RequestSpec{Method: "GET", URL: "/x"})
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_users.yml")
	require.NoError(t, os.WriteFile(path, []byte("request:\n  - url: \"{{ base }}/users\"\n"), 0o644))

	file, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, file.Path)
	assert.Equal(t, "((base))/users", file.Requests[0].URL)

	_, err = ParseFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestYAMLSyntax(t *testing.T) {
	var s Syntax = YAML{}
	text := s.Precompile("request:\n  - url: {{ host }}/a\n")
	assert.Equal(t, []string{"host"}, s.SearchVars(text))

	file, err := s.Parse(s.Compile(text, MapBinds{"host": "http://x"}), "")
	require.NoError(t, err)
	assert.Equal(t, "http://x/a", file.Requests[0].URL)
}
