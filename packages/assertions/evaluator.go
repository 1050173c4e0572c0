package assertions

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/http"
	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

type Result struct {
	Kind    string
	Subject string
	Passed  bool
	// Errors lists every failing leaf of a type assertion, or the single
	// reason any other assertion failed.
	Errors   []string
	Expected any
	Actual   any
}

// Message joins the failure reasons.
func (r *Result) Message() string {
	return strings.Join(r.Errors, " ")
}

type Evaluator struct {
	view *http.View
}

func NewEvaluator(view *http.View) *Evaluator {
	return &Evaluator{view: view}
}

// Evaluate checks one assertion against the response. It never errors:
// path failures become negative results.
func (e *Evaluator) Evaluate(a Assertion) *Result {
	result := &Result{Kind: a.Kind(), Subject: a.Subject()}

	switch x := a.(type) {
	case Presence:
		e.presence(x, result)
	case Type:
		e.typeOf(x, result)
	case Value:
		e.value(x, result)
	case StatusCode:
		result.Expected = x.Expected
		result.Actual = e.view.Status
		result.Passed = e.view.Status == x.Expected
		if !result.Passed {
			result.Errors = []string{fmt.Sprintf("expected status %d, got %d", x.Expected, e.view.Status)}
		}
	case Redirect:
		result.Expected = x.Expected
		result.Actual = e.view.Redirect
		result.Passed = e.view.Redirect == x.Expected
		if !result.Passed {
			result.Errors = []string{fmt.Sprintf("expected redirect to %q, got %q", x.Expected, e.view.Redirect)}
		}
	default:
		result.Errors = []string{fmt.Sprintf("unsupported assertion %T", a)}
	}

	return result
}

// EvaluateAll evaluates expectations in order. A configuration error stops
// evaluation; the results gathered so far are returned with it.
func (e *Evaluator) EvaluateAll(expectations []*parser.Expectation) ([]*Result, error) {
	var results []*Result
	for _, exp := range expectations {
		list, err := FromExpectation(exp)
		if err != nil {
			return results, err
		}
		for _, a := range list {
			results = append(results, e.Evaluate(a))
		}
	}
	return results, nil
}

// AllPassed reports whether every result passed.
func AllPassed(results []*Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (e *Evaluator) body(result *Result) (jsonpath.Value, bool) {
	body, err := e.view.JSON()
	if err != nil {
		result.Errors = []string{err.Error()}
		return nil, false
	}
	return body, true
}

// presence requires every fanned-out branch to resolve.
func (e *Evaluator) presence(a Presence, result *Result) {
	body, ok := e.body(result)
	if !ok {
		return
	}
	if _, err := jsonpath.Resolve(body, a.Path); err != nil {
		result.Errors = []string{err.Error()}
		return
	}
	result.Passed = true
}

// typeOf reports one message per mismatching leaf. A path that cannot be
// followed replaces them with the path error alone.
func (e *Evaluator) typeOf(a Type, result *Result) {
	body, ok := e.body(result)
	if !ok {
		return
	}
	result.Expected = a.Spec

	var errs []string
	jsonpath.Walk(body, a.Path, func(leaf jsonpath.Value, err error) bool {
		if err != nil {
			errs = []string{err.Error()}
			return false
		}
		if _, isNull := leaf.(jsonpath.Null); isNull && a.Nullable {
			return true
		}
		if !a.Expected.Matches(leaf) {
			errs = append(errs, fmt.Sprintf("%s is not %s.", a.Path, a.Expected))
		}
		return true
	})

	result.Errors = errs
	result.Passed = len(errs) == 0
}

// value stops at the first leaf that differs or cannot be reached.
func (e *Evaluator) value(a Value, result *Result) {
	body, ok := e.body(result)
	if !ok {
		return
	}
	result.Expected = literal(a.Expected)

	passed := true
	jsonpath.Walk(body, a.Path, func(leaf jsonpath.Value, err error) bool {
		if err != nil {
			result.Errors = []string{err.Error()}
			passed = false
			return false
		}
		if !jsonpath.Equal(a.Expected, leaf) {
			result.Actual = literal(leaf)
			result.Errors = []string{fmt.Sprintf("%s is %s, expected %s", a.Path, jsonpath.Encode(leaf), jsonpath.Encode(a.Expected))}
			passed = false
			return false
		}
		return true
	})

	result.Passed = passed
}
