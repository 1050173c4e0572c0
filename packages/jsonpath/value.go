package jsonpath

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Value is a decoded JSON value. It is one of Null, Bool, Number, String,
// Array or Object.
type Value interface {
	isValue()
}

type Null struct{}

type Bool bool

// Number keeps the literal text of a JSON number so integers and floats
// stay distinguishable after decoding.
type Number struct {
	Raw string
}

type String string

type Array []Value

// Object is a JSON object with its key order preserved.
type Object struct {
	Keys   []string
	Fields map[string]Value
}

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (Array) isValue()  {}
func (Object) isValue() {}

// IsInteger reports whether the number was written without a fraction or
// exponent.
func (n Number) IsInteger() bool {
	return !strings.ContainsAny(n.Raw, ".eE")
}

func (n Number) Float() float64 {
	f, _ := strconv.ParseFloat(n.Raw, 64)
	return f
}

// Get returns the field stored under key.
func (o Object) Get(key string) (Value, bool) {
	v, ok := o.Fields[key]
	return v, ok
}

// Parse decodes a JSON document.
func Parse(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) Value {
	switch {
	case r.IsArray():
		arr := Array{}
		r.ForEach(func(_, item gjson.Result) bool {
			arr = append(arr, fromResult(item))
			return true
		})
		return arr
	case r.IsObject():
		obj := Object{Fields: make(map[string]Value)}
		r.ForEach(func(key, item gjson.Result) bool {
			k := key.String()
			if _, seen := obj.Fields[k]; !seen {
				obj.Keys = append(obj.Keys, k)
			}
			obj.Fields[k] = fromResult(item)
			return true
		})
		return obj
	}

	switch r.Type {
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return Number{Raw: r.Raw}
	case gjson.String:
		return String(r.Str)
	default:
		return Null{}
	}
}

// FromAny lifts a Go value, as produced by yaml or encoding/json decoding,
// into a Value. Map keys are sorted because Go maps carry no order.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case int:
		return Number{Raw: strconv.Itoa(x)}
	case int64:
		return Number{Raw: strconv.FormatInt(x, 10)}
	case uint64:
		return Number{Raw: strconv.FormatUint(x, 10)}
	case float64:
		return Number{Raw: formatFloat(x)}
	case float32:
		return Number{Raw: formatFloat(float64(x))}
	case json.Number:
		return Number{Raw: x.String()}
	case []any:
		arr := make(Array, len(x))
		for i, item := range x {
			arr[i] = FromAny(item)
		}
		return arr
	case map[string]any:
		obj := Object{Fields: make(map[string]Value, len(x))}
		for k, item := range x {
			obj.Keys = append(obj.Keys, k)
			obj.Fields[k] = FromAny(item)
		}
		sort.Strings(obj.Keys)
		return obj
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// formatFloat always yields float syntax so 1.0 survives as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Interface converts v back into plain Go values: nil, bool, int64 or
// float64, string, []any and map[string]any.
func Interface(v Value) any {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Number:
		if x.IsInteger() {
			if i, err := strconv.ParseInt(x.Raw, 10, 64); err == nil {
				return i
			}
		}
		return x.Float()
	case String:
		return string(x)
	case Array:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Interface(item)
		}
		return out
	case Object:
		out := make(map[string]any, len(x.Keys))
		for _, k := range x.Keys {
			out[k] = Interface(x.Fields[k])
		}
		return out
	default:
		return nil
	}
}

// Encode renders v as compact JSON, keeping object key order.
func Encode(v Value) string {
	var b strings.Builder
	encode(&b, v)
	return b.String()
}

func encode(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case Bool:
		b.WriteString(strconv.FormatBool(bool(x)))
	case Number:
		b.WriteString(x.Raw)
	case String:
		data, _ := json.Marshal(string(x))
		b.Write(data)
	case Array:
		b.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			encode(b, item)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		for i, k := range x.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			encode(b, x.Fields[k])
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
}

// Equal reports structural equality. Numbers compare by numeric value and
// objects compare by key set, ignoring key order.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x.Raw == y.Raw {
			return true
		}
		if x.IsInteger() && y.IsInteger() {
			xi, xok := new(big.Int).SetString(x.Raw, 10)
			yi, yok := new(big.Int).SetString(y.Raw, 10)
			if xok && yok {
				return xi.Cmp(yi) == 0
			}
		}
		return x.Float() == y.Float()
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, xv := range x.Fields {
			yv, ok := y.Fields[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}

// TypeName names the JSON type of v.
func TypeName(v Value) string {
	switch x := v.(type) {
	case Bool:
		return "boolean"
	case Number:
		if x.IsInteger() {
			return "integer"
		}
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "null"
	}
}
