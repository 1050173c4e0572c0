package env

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

// Registry produces the first bind snapshot of a suite run.
type Registry struct {
	source Source
}

// NewRegistry returns a registry that seeds from source. A nil source binds
// nothing from the environment.
func NewRegistry(source Source) *Registry {
	return &Registry{source: source}
}

// Seed binds every name the source provides with a non-empty value, then
// layers input on top.
func (r *Registry) Seed(names []string, input map[string]any) BindSet {
	seeded := make(map[string]any)
	if r.source != nil {
		for _, name := range names {
			if v, ok := r.source.Lookup(name); ok && v != "" {
				seeded[name] = v
			}
		}
	}
	return NewBindSet(seeded).Merge(input)
}

// MergeVariables merges sources in order; later keys win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// ParseInput decodes explicit binds given as JSON objects, merged in order.
// Values are kept as jsonpath values so numbers keep their literal text.
func ParseInput(raw []string) (map[string]any, error) {
	objects := make([]map[string]any, 0, len(raw))
	for i, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		v, err := jsonpath.Parse([]byte(item))
		if err != nil {
			return nil, fmt.Errorf("bind #%d: %w", i+1, err)
		}
		obj, ok := v.(jsonpath.Object)
		if !ok {
			return nil, fmt.Errorf("bind #%d is not a JSON object", i+1)
		}
		values := make(map[string]any, len(obj.Keys))
		for _, k := range obj.Keys {
			values[k] = obj.Fields[k]
		}
		objects = append(objects, values)
	}
	return MergeVariables(objects...), nil
}
