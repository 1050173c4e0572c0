package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/rorschach/packages/builtin"
	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/http"
	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

// Paths starting with SourcePrefix read from the response envelope instead
// of the body: @status, @redirect, @body and @header.<Name>.
const SourcePrefix = "@"

// Miss records a bind rule that produced no value.
type Miss struct {
	Name string
	Path string
	Err  error
}

func (m Miss) Error() string {
	return fmt.Sprintf("bind %q from %q: %v", m.Name, m.Path, m.Err)
}

type Extractor struct {
	view       *http.View
	transforms *builtin.Registry
}

// NewExtractor extracts from view. A nil registry uses the default
// transforms.
func NewExtractor(view *http.View, transforms *builtin.Registry) *Extractor {
	if transforms == nil {
		transforms = builtin.NewRegistry()
	}
	return &Extractor{view: view, transforms: transforms}
}

// Extract resolves the rule's path, then applies its transform. A wildcard
// path reaching several values binds them as an array.
func (e *Extractor) Extract(rule *parser.BindRule) (jsonpath.Value, error) {
	v, err := e.lookup(rule.Path)
	if err != nil {
		return nil, err
	}
	return e.transforms.Apply(rule.Transform, v)
}

func (e *Extractor) lookup(path string) (jsonpath.Value, error) {
	if strings.HasPrefix(path, SourcePrefix) {
		return e.fromEnvelope(strings.TrimPrefix(path, SourcePrefix))
	}

	body, err := e.view.JSON()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return body, nil
	}

	values, err := jsonpath.Resolve(body, path)
	if err != nil {
		return nil, err
	}
	if !jsonpath.HasWildcard(path) && len(values) == 1 {
		return values[0], nil
	}
	return jsonpath.Array(values), nil
}

func (e *Extractor) fromEnvelope(source string) (jsonpath.Value, error) {
	switch {
	case source == "status":
		return jsonpath.Number{Raw: strconv.Itoa(e.view.Status)}, nil
	case source == "redirect":
		if e.view.Redirect == "" {
			return nil, fmt.Errorf("response has no redirect")
		}
		return jsonpath.String(e.view.Redirect), nil
	case source == "body":
		return jsonpath.String(e.view.Raw), nil
	case strings.HasPrefix(source, "header."):
		name := strings.TrimPrefix(source, "header.")
		value := e.view.Header(name)
		if value == "" {
			return nil, fmt.Errorf("no %s header", name)
		}
		return jsonpath.String(value), nil
	default:
		return nil, fmt.Errorf("unknown source %q", SourcePrefix+source)
	}
}

// ExtractAll runs every rule in order. Rules that fail produce no bind and
// are reported as misses; a later rule with the same name wins.
func ExtractAll(view *http.View, rules []*parser.BindRule, transforms *builtin.Registry) (map[string]any, []Miss) {
	extractor := NewExtractor(view, transforms)
	results := make(map[string]any)
	var misses []Miss

	for _, rule := range rules {
		value, err := extractor.Extract(rule)
		if err != nil {
			misses = append(misses, Miss{Name: rule.Name, Path: rule.Path, Err: err})
			continue
		}
		results[rule.Name] = value
	}

	return results, misses
}
