package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	keyBaseURL    = "base-url"
	keyHeaders    = "headers"
	keyPreRequest = "pre-request"
	keyRequest    = "request"
)

// ParseFile reads a test file, rewrites its interpolation delimiters and
// parses the result. Variables are left unresolved.
func ParseFile(path string) (*TestFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(Precompile(string(content)), path)
}

// Parse parses precompiled test file text. Every structural problem in the
// document is reported, combined into one error.
func Parse(input, filename string) (*TestFile, error) {
	root, err := decodeDocument(input, filename)
	if err != nil {
		return nil, err
	}

	p := &fileParser{file: filename}
	tf := p.parseFile(root)
	if err := multierr.Combine(p.errs...); err != nil {
		return nil, err
	}
	return tf, nil
}

// ParseRequest parses a single request fragment, typically produced by Dump
// and then compiled.
func ParseRequest(input string) (*RequestSpec, error) {
	root, err := decodeDocument(input, "")
	if err != nil {
		return nil, err
	}

	p := &fileParser{}
	req := p.parseRequest(root)
	if err := multierr.Combine(p.errs...); err != nil {
		return nil, err
	}
	return req, nil
}

// Dump serializes the request's own source fragment.
func Dump(req *RequestSpec) (string, error) {
	if req.node == nil {
		return "", fmt.Errorf("request %q has no source fragment", req.Name())
	}
	data, err := yaml.Marshal(req.node)
	if err != nil {
		return "", fmt.Errorf("failed to dump request: %w", err)
	}
	return string(data), nil
}

func decodeDocument(input, filename string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil {
		return nil, &ParseError{File: filename, Message: err.Error(), Cause: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{File: filename, Message: "empty document"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{File: filename, Line: root.Line, Column: root.Column, Message: "document must be a mapping"}
	}
	return root, nil
}

type fileParser struct {
	file string
	errs []error
}

func (p *fileParser) errorf(n *yaml.Node, format string, args ...any) {
	pe := &ParseError{File: p.file, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		pe.Line = n.Line
		pe.Column = n.Column
	}
	p.errs = append(p.errs, pe)
}

func (p *fileParser) parseFile(root *yaml.Node) *TestFile {
	tf := &TestFile{Path: p.file}
	seenRequest := false

	eachPair(root, func(key, value *yaml.Node) {
		switch key.Value {
		case keyBaseURL:
			tf.BaseURL = p.scalar(value, keyBaseURL)
		case keyHeaders:
			tf.Headers = p.parseHeaders(value)
		case keyPreRequest:
			tf.PreRequests = p.parseRequestList(value, keyPreRequest)
		case keyRequest:
			seenRequest = true
			tf.Requests = p.parseRequestList(value, keyRequest)
		}
	})

	if !seenRequest || len(tf.Requests) == 0 {
		p.errorf(root, "at least one %q entry is required", keyRequest)
	}
	return tf
}

func (p *fileParser) parseRequestList(n *yaml.Node, section string) []*RequestSpec {
	n = resolveAlias(n)
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		p.errorf(n, "%s must be a list of requests", section)
		return nil
	}
	reqs := make([]*RequestSpec, 0, len(n.Content))
	for _, item := range n.Content {
		if req := p.parseRequest(item); req != nil {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

func (p *fileParser) parseRequest(n *yaml.Node) *RequestSpec {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "request must be a mapping")
		return nil
	}

	req := &RequestSpec{Method: "GET", Line: n.Line, node: n}
	eachPair(n, func(key, value *yaml.Node) {
		switch key.Value {
		case "method":
			if m := p.scalar(value, "method"); m != "" {
				req.Method = strings.ToUpper(m)
			}
		case "url":
			req.URL = p.scalar(value, "url")
		case "description":
			req.Description = p.scalar(value, "description")
		case "headers":
			req.Headers = p.parseHeaders(value)
		case "query":
			req.Query = p.parseQuery(value)
		case "body":
			req.Body = p.parseBody(value)
		case "bind":
			req.Binds = p.parseBinds(value)
		case "after-function":
			req.AfterFunction = p.scalar(value, "after-function")
		case "expect":
			req.Expect = p.parseExpect(value)
		default:
			p.errorf(key, "unknown request field %q", key.Value)
		}
	})

	if req.URL == "" {
		p.errorf(n, "request is missing url")
	}
	if req.AfterFunction != "" {
		for _, b := range req.Binds {
			if b.Transform == "" {
				b.Transform = req.AfterFunction
			}
		}
	}
	return req
}

func (p *fileParser) parseHeaders(n *yaml.Node) []*Header {
	var headers []*Header
	p.stringPairs(n, "headers", func(key, value string, line int) {
		headers = append(headers, &Header{Key: key, Value: value, Line: line})
	})
	return headers
}

func (p *fileParser) parseQuery(n *yaml.Node) []*QueryParam {
	var params []*QueryParam
	p.stringPairs(n, "query", func(key, value string, line int) {
		params = append(params, &QueryParam{Key: key, Value: value, Line: line})
	})
	return params
}

func (p *fileParser) parseBody(n *yaml.Node) *Body {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return nil
		}
		return &Body{ContentType: BodyRaw, Raw: n.Value, Line: n.Line}
	case yaml.MappingNode, yaml.SequenceNode:
		v, err := nodeValue(n)
		if err != nil {
			p.errorf(n, "invalid body: %v", err)
			return nil
		}
		return &Body{ContentType: BodyJSON, Raw: jsonpath.Encode(v), Line: n.Line}
	default:
		p.errorf(n, "invalid body")
		return nil
	}
}

// parseBinds accepts either "name: path" or a mapping with path and after.
func (p *fileParser) parseBinds(n *yaml.Node) []*BindRule {
	n = resolveAlias(n)
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "bind must be a mapping of name to path")
		return nil
	}

	var rules []*BindRule
	eachPair(n, func(key, value *yaml.Node) {
		rule := &BindRule{Name: key.Value, Line: key.Line}
		value = resolveAlias(value)
		switch value.Kind {
		case yaml.ScalarNode:
			rule.Path = value.Value
		case yaml.MappingNode:
			eachPair(value, func(k, v *yaml.Node) {
				switch k.Value {
				case "path":
					rule.Path = p.scalar(v, "bind path")
				case "after", "after-function":
					rule.Transform = p.scalar(v, "bind transform")
				default:
					p.errorf(k, "unknown bind field %q", k.Value)
				}
			})
		default:
			p.errorf(value, "bind %q must be a path", key.Value)
			return
		}
		if rule.Path == "" {
			p.errorf(value, "bind %q is missing a path", key.Value)
			return
		}
		rules = append(rules, rule)
	})
	return rules
}

// parseExpect keeps the shape of each entry: lists become subject-only
// arguments, mappings become subject/value pairs, scalars a single value.
// Kinds are interpreted by the assertion engine.
func (p *fileParser) parseExpect(n *yaml.Node) []*Expectation {
	n = resolveAlias(n)
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "expect must be a mapping of assertion kinds")
		return nil
	}

	var expectations []*Expectation
	eachPair(n, func(key, value *yaml.Node) {
		exp := &Expectation{Kind: key.Value, Line: key.Line}
		value = resolveAlias(value)
		switch value.Kind {
		case yaml.SequenceNode:
			for _, item := range value.Content {
				item = resolveAlias(item)
				if item.Kind != yaml.ScalarNode {
					p.errorf(item, "%s entries must be paths", key.Value)
					continue
				}
				exp.Args = append(exp.Args, &Arg{Subject: item.Value, Line: item.Line})
			}
		case yaml.MappingNode:
			eachPair(value, func(k, v *yaml.Node) {
				val, err := nodeValue(v)
				if err != nil {
					p.errorf(v, "invalid %s argument: %v", key.Value, err)
					return
				}
				exp.Args = append(exp.Args, &Arg{Subject: k.Value, Value: val, Line: k.Line})
			})
		default:
			val, err := nodeValue(value)
			if err != nil {
				p.errorf(value, "invalid %s argument: %v", key.Value, err)
				return
			}
			exp.Args = append(exp.Args, &Arg{Value: val, Line: value.Line})
		}
		expectations = append(expectations, exp)
	})
	return expectations
}

func (p *fileParser) stringPairs(n *yaml.Node, field string, fn func(key, value string, line int)) {
	n = resolveAlias(n)
	if isNull(n) {
		return
	}
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "%s must be a mapping", field)
		return
	}
	eachPair(n, func(key, value *yaml.Node) {
		fn(key.Value, p.scalar(value, field+"."+key.Value), key.Line)
	})
}

func (p *fileParser) scalar(n *yaml.Node, field string) string {
	n = resolveAlias(n)
	if n.Kind != yaml.ScalarNode {
		p.errorf(n, "%s must be a scalar", field)
		return ""
	}
	if isNull(n) {
		return ""
	}
	return n.Value
}

func eachPair(n *yaml.Node, fn func(key, value *yaml.Node)) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i], n.Content[i+1])
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// nodeValue converts a YAML node into a JSON value, keeping mapping order.
func nodeValue(n *yaml.Node) (jsonpath.Value, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if tag := n.ShortTag(); tag == "!!timestamp" || tag == "!!binary" {
			return jsonpath.String(n.Value), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return jsonpath.FromAny(v), nil
	case yaml.SequenceNode:
		arr := make(jsonpath.Array, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := jsonpath.Object{Fields: make(map[string]jsonpath.Value, len(n.Content)/2)}
		var err error
		eachPair(n, func(key, value *yaml.Node) {
			if err != nil {
				return
			}
			var v jsonpath.Value
			v, err = nodeValue(value)
			if err != nil {
				return
			}
			if _, dup := obj.Fields[key.Value]; !dup {
				obj.Keys = append(obj.Keys, key.Value)
			}
			obj.Fields[key.Value] = v
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported node at line %d", n.Line)
	}
}
