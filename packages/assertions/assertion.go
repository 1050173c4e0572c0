package assertions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

// Expectation kinds as written in test files.
const (
	KindHas      = "has"
	KindType     = "type"
	KindValue    = "value"
	KindCode     = "code"
	KindRedirect = "redirect"
)

// Assertion is one of Presence, Type, Value, StatusCode or Redirect.
type Assertion interface {
	Kind() string
	Subject() string
}

// Presence passes when every branch of Path resolves.
type Presence struct {
	Path string
}

// Type passes when every leaf of Path has the expected JSON type. A null
// leaf passes when Nullable is set.
type Type struct {
	Path     string
	Expected TypeKind
	Nullable bool
	Spec     string
}

// Value passes when every leaf of Path equals Expected.
type Value struct {
	Path     string
	Expected jsonpath.Value
}

type StatusCode struct {
	Expected int
}

// Redirect compares the final response's Location header.
type Redirect struct {
	Expected string
}

func (Presence) Kind() string   { return KindHas }
func (Type) Kind() string       { return KindType }
func (Value) Kind() string      { return KindValue }
func (StatusCode) Kind() string { return KindCode }
func (Redirect) Kind() string   { return KindRedirect }

func (a Presence) Subject() string   { return a.Path }
func (a Type) Subject() string       { return a.Path + ":" + a.Spec }
func (a Value) Subject() string      { return a.Path + ":" + literal(a.Expected) }
func (a StatusCode) Subject() string { return strconv.Itoa(a.Expected) }
func (a Redirect) Subject() string   { return a.Expected }

type TypeKind string

const (
	TypeString  TypeKind = "string"
	TypeInteger TypeKind = "integer"
	TypeFloat   TypeKind = "float"
	TypeArray   TypeKind = "array"
	TypeObject  TypeKind = "object"
	TypeBoolean TypeKind = "boolean"
)

var typeAliases = map[string]TypeKind{
	"string":  TypeString,
	"str":     TypeString,
	"integer": TypeInteger,
	"int":     TypeInteger,
	"float":   TypeFloat,
	"double":  TypeFloat,
	"array":   TypeArray,
	"object":  TypeObject,
	"obj":     TypeObject,
	"boolean": TypeBoolean,
	"bool":    TypeBoolean,
}

const nullableFlag = "nullable"

// ParseTypeSpec reads "[nullable|]kind" or "kind|nullable".
func ParseTypeSpec(spec string) (TypeKind, bool, error) {
	var (
		kind     string
		nullable bool
	)
	for _, part := range strings.Split(spec, "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch {
		case part == nullableFlag:
			nullable = true
		case kind == "":
			kind = part
		default:
			return "", false, fmt.Errorf("type %q names more than one kind", spec)
		}
	}
	if kind == "" {
		return "", false, fmt.Errorf("type %q names no kind", spec)
	}
	t, ok := typeAliases[kind]
	if !ok {
		return "", false, fmt.Errorf("unknown type %q", kind)
	}
	return t, nullable, nil
}

// Matches reports whether v has type t. Arrays and objects are distinct.
func (t TypeKind) Matches(v jsonpath.Value) bool {
	switch x := v.(type) {
	case jsonpath.String:
		return t == TypeString
	case jsonpath.Number:
		if x.IsInteger() {
			return t == TypeInteger
		}
		return t == TypeFloat
	case jsonpath.Bool:
		return t == TypeBoolean
	case jsonpath.Array:
		return t == TypeArray
	case jsonpath.Object:
		return t == TypeObject
	default:
		return false
	}
}

// FromExpectation turns a parsed expect entry into assertions. An unknown
// kind or a malformed argument is a *ConfigurationError.
func FromExpectation(exp *parser.Expectation) ([]Assertion, error) {
	switch exp.Kind {
	case KindHas:
		var out []Assertion
		for _, arg := range exp.Args {
			path := arg.Subject
			if path == "" {
				path = literal(arg.Value)
			}
			out = append(out, Presence{Path: path})
		}
		return out, nil

	case KindType:
		var out []Assertion
		for _, arg := range exp.Args {
			if arg.Subject == "" {
				return nil, configErrorf(exp, "expected a mapping of path to type")
			}
			spec, ok := arg.Value.(jsonpath.String)
			if !ok {
				return nil, configErrorf(exp, "type of %s must be a string", arg.Subject)
			}
			kind, nullable, err := ParseTypeSpec(string(spec))
			if err != nil {
				return nil, configErrorf(exp, "%s: %v", arg.Subject, err)
			}
			out = append(out, Type{Path: arg.Subject, Expected: kind, Nullable: nullable, Spec: string(spec)})
		}
		return out, nil

	case KindValue:
		var out []Assertion
		for _, arg := range exp.Args {
			if arg.Subject == "" {
				return nil, configErrorf(exp, "expected a mapping of path to value")
			}
			out = append(out, Value{Path: arg.Subject, Expected: arg.Value})
		}
		return out, nil

	case KindCode:
		arg, err := single(exp)
		if err != nil {
			return nil, err
		}
		code, ok := statusCode(arg.Value)
		if !ok {
			return nil, configErrorf(exp, "%s is not an integer status code", literal(arg.Value))
		}
		return []Assertion{StatusCode{Expected: code}}, nil

	case KindRedirect:
		arg, err := single(exp)
		if err != nil {
			return nil, err
		}
		return []Assertion{Redirect{Expected: literal(arg.Value)}}, nil

	default:
		return nil, &ConfigurationError{Kind: exp.Kind, Line: exp.Line, Message: "unknown expect type given"}
	}
}

func single(exp *parser.Expectation) (*parser.Arg, error) {
	if len(exp.Args) != 1 || exp.Args[0].Subject != "" {
		return nil, configErrorf(exp, "expected a single value")
	}
	return exp.Args[0], nil
}

func statusCode(v jsonpath.Value) (int, bool) {
	var raw string
	switch x := v.(type) {
	case jsonpath.Number:
		if !x.IsInteger() {
			return 0, false
		}
		raw = x.Raw
	case jsonpath.String:
		raw = strings.TrimSpace(string(x))
	default:
		return 0, false
	}
	code, err := strconv.Atoi(raw)
	return code, err == nil
}

// literal renders an argument the way it was written: strings verbatim,
// everything else as JSON.
func literal(v jsonpath.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case jsonpath.String:
		return string(x)
	default:
		return jsonpath.Encode(x)
	}
}
