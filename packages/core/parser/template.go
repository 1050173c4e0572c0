package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

var (
	// userVarPattern is the interpolation syntax written in test files.
	userVarPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)
	// varPattern is the internal form. "{{" opens a YAML flow mapping, so
	// references are rewritten before the text reaches the YAML parser.
	varPattern = regexp.MustCompile(`\(\(\s*([A-Za-z0-9_.\-]+)\s*\)\)`)
)

// Binds looks up bound values by name.
type Binds interface {
	Lookup(name string) (any, bool)
}

// MapBinds adapts a plain map to Binds.
type MapBinds map[string]any

func (m MapBinds) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Precompile rewrites every {{name}} reference into the internal ((name))
// form.
func Precompile(text string) string {
	return userVarPattern.ReplaceAllString(text, "(($1))")
}

// Compile substitutes every ((name)) reference that binds can resolve.
// Unresolved references are left in place. Substituted text is not
// rescanned, so compiling twice is only stable when no bound value itself
// contains a ((name)) reference that binds can resolve.
func Compile(text string, binds Binds) string {
	if binds == nil {
		return text
	}
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		v, ok := binds.Lookup(name)
		if !ok {
			return match
		}
		return Render(v)
	})
}

// SearchVars lists the names still referenced in ((name)) form, in order of
// first appearance.
func SearchVars(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range varPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render formats a bound value as template text.
func Render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case jsonpath.String:
		return string(x)
	case jsonpath.Null:
		return ""
	case jsonpath.Value:
		return jsonpath.Encode(x)
	case []any, map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", x)
	}
}
