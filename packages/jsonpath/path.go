package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator splits a path into segments. An empty segment is a wildcard
// that fans out over every element of an array.
const Separator = "."

// PathError reports a path that does not exist in a document.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no such path: %s", e.Path)
	}
	return fmt.Sprintf("no such path: %s (%s)", e.Path, e.Reason)
}

// Split breaks a path into its segments.
func Split(path string) []string {
	return strings.Split(path, Separator)
}

// HasWildcard reports whether path fans out.
func HasWildcard(path string) bool {
	for _, seg := range Split(path) {
		if seg == "" {
			return true
		}
	}
	return false
}

// WalkFunc receives every leaf reached by a path, or the error of the branch
// that could not be followed. Returning false stops the walk.
type WalkFunc func(leaf Value, err error) bool

// Walk follows path through root and calls fn once per fanned-out branch.
// It never modifies root.
func Walk(root Value, path string, fn WalkFunc) {
	walk(path, Split(path), root, fn)
}

func walk(path string, segments []string, current Value, fn WalkFunc) bool {
	for i, seg := range segments {
		if seg == "" {
			arr, ok := current.(Array)
			if !ok {
				return fn(nil, &PathError{Path: path, Reason: fmt.Sprintf("wildcard over %s", TypeName(current))})
			}
			rest := segments[i+1:]
			for _, item := range arr {
				if !walk(path, rest, item, fn) {
					return false
				}
			}
			return true
		}

		next, err := step(path, current, seg)
		if err != nil {
			return fn(nil, err)
		}
		current = next
	}
	return fn(current, nil)
}

func step(path string, current Value, seg string) (Value, error) {
	switch c := current.(type) {
	case Object:
		if v, ok := c.Fields[seg]; ok {
			return v, nil
		}
		return nil, &PathError{Path: path, Reason: fmt.Sprintf("missing key %q", seg)}
	case Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(c) {
			return nil, &PathError{Path: path, Reason: fmt.Sprintf("missing index %q", seg)}
		}
		return c[idx], nil
	default:
		return nil, &PathError{Path: path, Reason: fmt.Sprintf("cannot descend into %s", TypeName(current))}
	}
}

// Resolve returns every value reached by path. Without wildcards the result
// holds exactly one value. The first branch that cannot be followed fails
// the whole resolution.
func Resolve(root Value, path string) ([]Value, error) {
	var (
		results []Value
		failure error
	)
	Walk(root, path, func(leaf Value, err error) bool {
		if err != nil {
			failure = err
			return false
		}
		results = append(results, leaf)
		return true
	})
	if failure != nil {
		return nil, failure
	}
	return results, nil
}

// Get resolves a path that must reach a single value.
func Get(root Value, path string) (Value, error) {
	results, err := Resolve(root, path)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, &PathError{Path: path, Reason: fmt.Sprintf("expected one value, found %d", len(results))}
	}
	return results[0], nil
}
