package jsonv

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the JSON type held by a [Value].
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "boolean",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

// String returns the JSON type name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Members is the ordered member map of an object value.
type Members = orderedmap.OrderedMap[string, Value]

// Value is a single parsed JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	items   []Value
	members *Members
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, number: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array value holding items in order.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Member is a key/value pair used to construct objects.
type Member struct {
	Key   string
	Value Value
}

// Object returns an object value with members in the given order.
// A repeated key replaces the earlier value but keeps its position.
func Object(members ...Member) Value {
	m := orderedmap.New[string, Value]()
	for _, mb := range members {
		m.Set(mb.Key, mb.Value)
	}
	return Value{kind: KindObject, members: m}
}

// M is shorthand for constructing a [Member].
func M(key string, v Value) Member { return Member{Key: key, Value: v} }

// Kind returns the JSON type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload. It is false for non-boolean values.
func (v Value) Bool() bool { return v.boolean }

// Float returns the numeric payload. It is 0 for non-number values.
func (v Value) Float() float64 { return v.number }

// Str returns the string payload. It is empty for non-string values.
func (v Value) Str() string { return v.str }

// Len returns the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		if v.members == nil {
			return 0
		}
		return v.members.Len()
	default:
		return 0
	}
}

// Items returns the elements of an array value. The slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Each calls fn for every object member in document order.
// Iteration stops early when fn returns false.
func (v Value) Each(fn func(key string, child Value) bool) {
	if v.kind != KindObject || v.members == nil {
		return
	}
	for pair := v.members.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Keys returns object member keys in document order.
func (v Value) Keys() []string {
	keys := make([]string, 0, v.Len())
	v.Each(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Get returns the member stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject || v.members == nil {
		return Value{}, false
	}
	return v.members.Get(key)
}

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Interface converts v into plain Go values (nil, bool, float64, string,
// []any, map[string]any). Object member order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		return v.number
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.Len())
		v.Each(func(key string, child Value) bool {
			out[key] = child.Interface()
			return true
		})
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes v as JSON, keeping object members in document order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// infLiteral is valid JSON that overflows to +Inf when read back by [Parse].
// NaN has no such spelling and encodes as null.
const infLiteral = "1e999"

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		switch {
		case math.IsNaN(v.number):
			buf.WriteString("null")
		case math.IsInf(v.number, 1):
			buf.WriteString(infLiteral)
		case math.IsInf(v.number, -1):
			buf.WriteString("-" + infLiteral)
		default:
			data, err := json.Marshal(v.number)
			if err != nil {
				return err
			}
			buf.Write(data)
		}
	case KindString:
		data, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		var err error
		first := true
		v.Each(func(key string, child Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			var k []byte
			if k, err = json.Marshal(key); err != nil {
				return false
			}
			buf.Write(k)
			buf.WriteByte(':')
			err = child.encode(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes JSON text into v, preserving member order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Equal reports whether v and other hold the same value, including member order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.number == other.number
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.Len() != other.Len() {
			return false
		}
		a, b := v.Keys(), other.Keys()
		for i, key := range a {
			if b[i] != key {
				return false
			}
			x, _ := v.Get(key)
			y, _ := other.Get(key)
			if !x.Equal(y) {
				return false
			}
		}
		return true
	}
	return false
}
