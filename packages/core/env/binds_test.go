package env

import (
	"testing"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindSet_MergeDoesNotMutate(t *testing.T) {
	first := NewBindSet(map[string]any{"a": 1})
	second := first.Merge(map[string]any{"a": 2, "b": 3})

	v, _ := first.Lookup("a")
	assert.Equal(t, 1, v)
	_, ok := first.Lookup("b")
	assert.False(t, ok)

	v, _ = second.Lookup("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"a", "b"}, second.Names())
	assert.Equal(t, 2, second.Len())
}

func TestBindSet_NewCopiesInput(t *testing.T) {
	input := map[string]any{"a": 1}
	set := NewBindSet(input)
	input["a"] = 2

	v, _ := set.Lookup("a")
	assert.Equal(t, 1, v)

	out := set.Map()
	out["a"] = 3
	v, _ = set.Lookup("a")
	assert.Equal(t, 1, v)
}

func TestBindSet_ZeroValue(t *testing.T) {
	var set BindSet
	_, ok := set.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 1, set.Merge(map[string]any{"x": 1}).Len())
}

func TestRegistry_SeedOrder(t *testing.T) {
	source := MapSource{"X": "1", "HOST": "api.local", "EMPTY": ""}
	reg := NewRegistry(source)

	binds := reg.Seed([]string{"X", "HOST", "EMPTY", "MISSING"}, map[string]any{"X": "2"})

	x, _ := binds.Lookup("X")
	assert.Equal(t, "2", x, "explicit input overrides environment")
	host, _ := binds.Lookup("HOST")
	assert.Equal(t, "api.local", host)

	_, ok := binds.Lookup("EMPTY")
	assert.False(t, ok, "empty environment values are not bound")
	_, ok = binds.Lookup("MISSING")
	assert.False(t, ok)

	extracted := binds.Merge(map[string]any{"X": "3"})
	x, _ = binds.Lookup("X")
	assert.Equal(t, "2", x)
	x, _ = extracted.Lookup("X")
	assert.Equal(t, "3", x)
}

func TestRegistry_OnlyRequestedNames(t *testing.T) {
	reg := NewRegistry(MapSource{"A": "1", "B": "2"})
	binds := reg.Seed([]string{"A"}, nil)
	assert.Equal(t, []string{"A"}, binds.Names())
}

func TestRegistry_NilSource(t *testing.T) {
	binds := NewRegistry(nil).Seed([]string{"A"}, map[string]any{"B": 1})
	assert.Equal(t, []string{"B"}, binds.Names())
}

func TestSources(t *testing.T) {
	t.Setenv("RORSCHACH_TEST_TOKEN", "abc")

	v, ok := OSSource{}.Lookup("RORSCHACH_TEST_TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = OSSource{Prefix: "RORSCHACH_TEST_"}.Lookup("TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	chain := Chain{nil, MapSource{"TOKEN": "file"}, OSSource{Prefix: "RORSCHACH_TEST_"}}
	v, ok = chain.Lookup("TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "file", v)

	_, ok = chain.Lookup("NOPE_NOT_SET_ANYWHERE")
	assert.False(t, ok)
}

func TestParseInput(t *testing.T) {
	got, err := ParseInput([]string{`{"a": 1, "b": "x"}`, "", `{"a": 2.5}`})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": jsonpath.Number{Raw: "2.5"},
		"b": jsonpath.String("x"),
	}, got)

	_, err = ParseInput([]string{`[1, 2]`})
	assert.Error(t, err)

	_, err = ParseInput([]string{`{"a":`})
	assert.Error(t, err)
}

func TestMergeVariables(t *testing.T) {
	got := MergeVariables(map[string]any{"a": 1, "b": 1}, nil, map[string]any{"b": 2})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
}
