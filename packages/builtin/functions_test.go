package builtin

import (
	"testing"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Apply(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name      string
		transform string
		input     jsonpath.Value
		expected  jsonpath.Value
	}{
		{"empty name is identity", "", jsonpath.Number{Raw: "1"}, jsonpath.Number{Raw: "1"}},
		{"trim", "trim", jsonpath.String("  x "), jsonpath.String("x")},
		{"upper", "upper", jsonpath.String("abc"), jsonpath.String("ABC")},
		{"string of number", "string", jsonpath.Number{Raw: "42"}, jsonpath.String("42")},
		{"int from string", "int", jsonpath.String("42"), jsonpath.Number{Raw: "42"}},
		{"int truncates float", "int", jsonpath.Number{Raw: "4.9"}, jsonpath.Number{Raw: "4"}},
		{"float", "float", jsonpath.String("2"), jsonpath.Number{Raw: "2.0"}},
		{"base64", "base64", jsonpath.String("user:pass"), jsonpath.String("dXNlcjpwYXNz")},
		{"base64Decode", "base64Decode", jsonpath.String("dXNlcjpwYXNz"), jsonpath.String("user:pass")},
		{"md5", "md5", jsonpath.String("a"), jsonpath.String("0cc175b9c0f1b6a831c399e269772661")},
		{"urlEncode", "urlEncode", jsonpath.String("a b&c"), jsonpath.String("a+b%26c")},
		{"urlDecode", "urlDecode", jsonpath.String("a+b%26c"), jsonpath.String("a b&c")},
		{"bearer", "bearer", jsonpath.String("tok"), jsonpath.String("Bearer tok")},
		{"first", "first", jsonpath.Array{jsonpath.String("a"), jsonpath.String("b")}, jsonpath.String("a")},
		{"last", "last", jsonpath.Array{jsonpath.String("a"), jsonpath.String("b")}, jsonpath.String("b")},
		{"count", "count", jsonpath.Array{jsonpath.Null{}, jsonpath.Null{}}, jsonpath.Number{Raw: "2"}},
		{"chain", "trim | upper | bearer", jsonpath.String(" t "), jsonpath.String("Bearer T")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Apply(tt.transform, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegistry_ApplyErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Apply("nope", jsonpath.String("x"))
	assert.ErrorContains(t, err, `unknown transform "nope"`)

	_, err = r.Apply("trim|nope", jsonpath.String("x"))
	assert.Error(t, err)

	_, err = r.Apply("int", jsonpath.String("abc"))
	assert.ErrorContains(t, err, `transform "int"`)

	_, err = r.Apply("first", jsonpath.Array{})
	assert.Error(t, err)

	_, err = r.Apply("count", jsonpath.Bool(true))
	assert.Error(t, err)
}

func TestRegistry_JSON(t *testing.T) {
	got, err := NewRegistry().Apply("json|count", jsonpath.String(`{"a":1,"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, jsonpath.Number{Raw: "2"}, got)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("reverse"))

	r.Register("reverse", func(v jsonpath.Value) (jsonpath.Value, error) {
		runes := []rune(Text(v))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return jsonpath.String(string(runes)), nil
	})

	assert.True(t, r.Has("reverse"))
	assert.Contains(t, r.Names(), "reverse")
	got, err := r.Apply("reverse", jsonpath.String("abc"))
	require.NoError(t, err)
	assert.Equal(t, jsonpath.String("cba"), got)
}

func TestText(t *testing.T) {
	assert.Equal(t, "x", Text(jsonpath.String("x")))
	assert.Equal(t, "", Text(jsonpath.Null{}))
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "[1,true]", Text(jsonpath.Array{jsonpath.Number{Raw: "1"}, jsonpath.Bool(true)}))
}
