package env

import (
	"sort"
)

// BindSet is an immutable snapshot of bound values. Merge returns a new
// snapshot and never changes the receiver.
type BindSet struct {
	values map[string]any
}

// NewBindSet returns a snapshot holding a copy of values.
func NewBindSet(values map[string]any) BindSet {
	return BindSet{}.Merge(values)
}

// Lookup returns the value bound to name.
func (b BindSet) Lookup(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Merge returns a snapshot with values layered over b. Later values win;
// nothing is removed.
func (b BindSet) Merge(values map[string]any) BindSet {
	if len(values) == 0 {
		return b
	}
	merged := make(map[string]any, len(b.values)+len(values))
	for k, v := range b.values {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return BindSet{values: merged}
}

func (b BindSet) Len() int {
	return len(b.values)
}

// Names returns the bound names in sorted order.
func (b BindSet) Names() []string {
	names := make([]string, 0, len(b.values))
	for k := range b.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the bound values.
func (b BindSet) Map() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
