package parser

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
	"gopkg.in/yaml.v3"
)

// TestFile is one parsed test document.
type TestFile struct {
	Path        string
	BaseURL     string
	Headers     []*Header
	PreRequests []*RequestSpec
	Requests    []*RequestSpec
}

type RequestSpec struct {
	Description   string
	Method        string
	URL           string
	Headers       []*Header
	Query         []*QueryParam
	Body          *Body
	Binds         []*BindRule
	AfterFunction string
	Expect        []*Expectation
	Line          int

	// node is the request's own source fragment. Dump serializes it so the
	// request can be recompiled against a later bind snapshot.
	node *yaml.Node
}

type Header struct {
	Key   string
	Value string
	Line  int
}

type QueryParam struct {
	Key   string
	Value string
	Line  int
}

type Body struct {
	ContentType BodyType
	Raw         string
	Line        int
}

type BodyType int

const (
	BodyNone BodyType = iota
	BodyJSON
	BodyRaw
)

func (t BodyType) String() string {
	switch t {
	case BodyJSON:
		return "json"
	case BodyRaw:
		return "raw"
	default:
		return "none"
	}
}

// BindRule extracts a value from a response into a bind.
type BindRule struct {
	Name      string
	Path      string
	Transform string
	Line      int
}

// Expectation is one entry of a request's expect block: a kind and its
// arguments in file order.
type Expectation struct {
	Kind string
	Args []*Arg
	Line int
}

// Arg is a single assertion argument. Subject is set when the kind takes a
// list or mapping of paths and empty when it takes a bare scalar.
type Arg struct {
	Subject string
	Value   jsonpath.Value
	Line    int
}

// HeaderValue returns the first header with the given key, ignoring case.
func (r *RequestSpec) HeaderValue(key string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// Name identifies the request in reports.
func (r *RequestSpec) Name() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Method + " " + r.URL
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
