package capture

import (
	"testing"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/http"
	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newView(status int, body string, headers map[string]string) *http.View {
	return http.NewView(&http.Response{StatusCode: status, Body: []byte(body), Headers: headers})
}

func TestExtractor_Body(t *testing.T) {
	view := newView(200, `{"data": {"token": " abc "}, "items": [{"id": 1}, {"id": 2}], "one": [{"id": 9}]}`, nil)
	e := NewExtractor(view, nil)

	tests := []struct {
		name     string
		rule     *parser.BindRule
		expected jsonpath.Value
	}{
		{"plain path", &parser.BindRule{Path: "data.token"}, jsonpath.String(" abc ")},
		{"transform", &parser.BindRule{Path: "data.token", Transform: "trim"}, jsonpath.String("abc")},
		{"wildcard binds array", &parser.BindRule{Path: "items..id"}, jsonpath.Array{jsonpath.Number{Raw: "1"}, jsonpath.Number{Raw: "2"}}},
		{"single wildcard match is still an array", &parser.BindRule{Path: "one..id"}, jsonpath.Array{jsonpath.Number{Raw: "9"}}},
		{"wildcard then first", &parser.BindRule{Path: "items..id", Transform: "first"}, jsonpath.Number{Raw: "1"}},
		{"subtree", &parser.BindRule{Path: "items.1"}, jsonpath.Object{Keys: []string{"id"}, Fields: map[string]jsonpath.Value{"id": jsonpath.Number{Raw: "2"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(tt.rule)
			require.NoError(t, err)
			assert.True(t, jsonpath.Equal(tt.expected, got), "got %s", jsonpath.Encode(got))
		})
	}
}

func TestExtractor_Envelope(t *testing.T) {
	view := newView(302, `not json`, map[string]string{"Location": "/next", "X-Request-Id": "r-1"})
	e := NewExtractor(view, nil)

	got, err := e.Extract(&parser.BindRule{Path: "@status"})
	require.NoError(t, err)
	assert.Equal(t, jsonpath.Number{Raw: "302"}, got)

	got, err = e.Extract(&parser.BindRule{Path: "@redirect"})
	require.NoError(t, err)
	assert.Equal(t, jsonpath.String("/next"), got)

	got, err = e.Extract(&parser.BindRule{Path: "@header.x-request-id"})
	require.NoError(t, err)
	assert.Equal(t, jsonpath.String("r-1"), got)

	got, err = e.Extract(&parser.BindRule{Path: "@body"})
	require.NoError(t, err)
	assert.Equal(t, jsonpath.String("not json"), got)

	_, err = e.Extract(&parser.BindRule{Path: "@header.missing"})
	assert.Error(t, err)
	_, err = e.Extract(&parser.BindRule{Path: "@nope"})
	assert.Error(t, err)
}

func TestExtractAll_MissesDoNotStopOtherRules(t *testing.T) {
	view := newView(200, `{"id": 5, "name": "x"}`, nil)
	rules := []*parser.BindRule{
		{Name: "id", Path: "id"},
		{Name: "missing", Path: "nope.deeper"},
		{Name: "bad", Path: "name", Transform: "int"},
		{Name: "unknown", Path: "name", Transform: "shout"},
		{Name: "name", Path: "name"},
	}

	binds, misses := ExtractAll(view, rules, nil)
	assert.Equal(t, map[string]any{
		"id":   jsonpath.Number{Raw: "5"},
		"name": jsonpath.String("x"),
	}, binds)

	require.Len(t, misses, 3)
	assert.Equal(t, "missing", misses[0].Name)
	assert.Contains(t, misses[0].Error(), "no such path")
	assert.Equal(t, "bad", misses[1].Name)
	assert.Contains(t, misses[2].Error(), "unknown transform")
}

func TestExtractAll_NonJSONBody(t *testing.T) {
	view := newView(200, `<html>`, nil)
	binds, misses := ExtractAll(view, []*parser.BindRule{{Name: "id", Path: "id"}}, nil)
	assert.Empty(t, binds)
	require.Len(t, misses, 1)
	assert.ErrorIs(t, misses[0].Err, http.ErrBodyNotJSON)
}

func TestExtractAll_LaterRuleWins(t *testing.T) {
	view := newView(200, `{"a": 1, "b": 2}`, nil)
	binds, _ := ExtractAll(view, []*parser.BindRule{{Name: "x", Path: "a"}, {Name: "x", Path: "b"}}, nil)
	assert.Equal(t, jsonpath.Number{Raw: "2"}, binds["x"])
}
