package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

// Func transforms an extracted value before it is bound.
type Func func(v jsonpath.Value) (jsonpath.Value, error)

// Pipe separates chained transforms, applied left to right: "trim|upper".
const Pipe = "|"

type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["trim"] = stringFunc(strings.TrimSpace)
	r.funcs["upper"] = stringFunc(strings.ToUpper)
	r.funcs["lower"] = stringFunc(strings.ToLower)
	r.funcs["string"] = stringFunc(func(s string) string { return s })
	r.funcs["int"] = funcInt
	r.funcs["float"] = funcFloat
	r.funcs["base64"] = stringFunc(func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	})
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["md5"] = stringFunc(func(s string) string {
		hash := md5.Sum([]byte(s))
		return hex.EncodeToString(hash[:])
	})
	r.funcs["sha256"] = stringFunc(func(s string) string {
		hash := sha256.Sum256([]byte(s))
		return hex.EncodeToString(hash[:])
	})
	r.funcs["urlEncode"] = stringFunc(url.QueryEscape)
	r.funcs["urlDecode"] = funcURLDecode
	r.funcs["json"] = funcJSON
	r.funcs["bearer"] = stringFunc(func(s string) string { return "Bearer " + s })
	r.funcs["first"] = funcFirst
	r.funcs["last"] = funcLast
	r.funcs["count"] = funcCount
}

// Register adds or replaces a transform.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names lists registered transforms.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

// Apply runs the named transform, or a Pipe-separated chain of them. An
// empty name returns v unchanged.
func (r *Registry) Apply(name string, v jsonpath.Value) (jsonpath.Value, error) {
	if strings.TrimSpace(name) == "" {
		return v, nil
	}
	for _, step := range strings.Split(name, Pipe) {
		step = strings.TrimSpace(step)
		r.mu.RLock()
		fn, ok := r.funcs[step]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown transform %q", step)
		}
		out, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", step, err)
		}
		v = out
	}
	return v, nil
}

// Text renders a value as plain text: strings verbatim, everything else as
// JSON.
func Text(v jsonpath.Value) string {
	switch x := v.(type) {
	case jsonpath.String:
		return string(x)
	case nil, jsonpath.Null:
		return ""
	default:
		return jsonpath.Encode(x)
	}
}

func stringFunc(fn func(string) string) Func {
	return func(v jsonpath.Value) (jsonpath.Value, error) {
		return jsonpath.String(fn(Text(v))), nil
	}
}

func funcInt(v jsonpath.Value) (jsonpath.Value, error) {
	s := strings.TrimSpace(Text(v))
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return jsonpath.Number{Raw: strconv.FormatInt(i, 10)}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return jsonpath.Number{Raw: strconv.FormatInt(int64(f), 10)}, nil
}

func funcFloat(v jsonpath.Value) (jsonpath.Value, error) {
	s := strings.TrimSpace(Text(v))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return jsonpath.FromAny(f), nil
}

func funcBase64Decode(v jsonpath.Value) (jsonpath.Value, error) {
	decoded, err := base64.StdEncoding.DecodeString(Text(v))
	if err != nil {
		return nil, err
	}
	return jsonpath.String(decoded), nil
}

func funcURLDecode(v jsonpath.Value) (jsonpath.Value, error) {
	decoded, err := url.QueryUnescape(Text(v))
	if err != nil {
		return nil, err
	}
	return jsonpath.String(decoded), nil
}

// funcJSON decodes a string holding a JSON document.
func funcJSON(v jsonpath.Value) (jsonpath.Value, error) {
	s, ok := v.(jsonpath.String)
	if !ok {
		return v, nil
	}
	return jsonpath.Parse([]byte(s))
}

func funcFirst(v jsonpath.Value) (jsonpath.Value, error) {
	arr, ok := v.(jsonpath.Array)
	if !ok {
		return v, nil
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty array")
	}
	return arr[0], nil
}

func funcLast(v jsonpath.Value) (jsonpath.Value, error) {
	arr, ok := v.(jsonpath.Array)
	if !ok {
		return v, nil
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty array")
	}
	return arr[len(arr)-1], nil
}

func funcCount(v jsonpath.Value) (jsonpath.Value, error) {
	switch x := v.(type) {
	case jsonpath.Array:
		return jsonpath.Number{Raw: strconv.Itoa(len(x))}, nil
	case jsonpath.Object:
		return jsonpath.Number{Raw: strconv.Itoa(len(x.Keys))}, nil
	case jsonpath.String:
		return jsonpath.Number{Raw: strconv.Itoa(len([]rune(string(x))))}, nil
	default:
		return nil, fmt.Errorf("cannot count %s", jsonpath.TypeName(v))
	}
}
