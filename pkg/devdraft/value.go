package devdraft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// Kind identifies the JSON type held by a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lower-case JSON type name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// ErrTrailingData is returned by ParseValue when the input holds more than one JSON document.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// Value is a decoded JSON document whose shape is not known in advance.
//
// API responses are exposed as Values because the fields the SDK reads
// (items, cursors, page counts, error fields) have caller-configurable names.
// The zero Value is JSON null. Numbers are kept as json.Number so that large
// integers survive a round trip.
type Value struct {
	v interface{}
}

// Null is the JSON null Value.
var Null = Value{}

// ValueOf wraps an arbitrary Go value. Values that are not already made of
// the JSON primitive types are normalized through a JSON round trip.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool, string, json.Number, []interface{}, map[string]interface{}:
		return Value{v: t}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Null
	}

	parsed, err := ParseValue(data)
	if err != nil {
		return Null
	}

	return parsed
}

// ParseValue decodes exactly one JSON document.
func ParseValue(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw interface{}

	err := decoder.Decode(&raw)
	if err != nil {
		return Null, fmt.Errorf("failed to decode JSON value: %w", err)
	}

	_, err = decoder.Token()
	if !errors.Is(err, io.EOF) {
		return Null, ErrTrailingData
	}

	return Value{v: raw}, nil
}

// ParseBody decodes a response body leniently: an empty body, a body that is
// not valid UTF-8, or a body that is not valid JSON all yield Null.
func ParseBody(data []byte) Value {
	if len(bytes.TrimSpace(data)) == 0 || !utf8.Valid(data) {
		return Null
	}

	value, err := ParseValue(data)
	if err != nil {
		return Null
	}

	return value
}

// Kind reports the JSON type of v.
func (v Value) Kind() Kind {
	switch v.v.(type) {
	case bool:
		return KindBool
	case json.Number:
		return KindNumber
	case string:
		return KindString
	case []interface{}:
		return KindArray
	case map[string]interface{}:
		return KindObject
	default:
		return KindNull
	}
}

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool {
	return v.Kind() == KindNull
}

// Interface returns the underlying Go representation.
func (v Value) Interface() interface{} {
	return v.v
}

// Lookup returns the field key of an object Value.
func (v Value) Lookup(key string) (Value, bool) {
	obj, ok := v.v.(map[string]interface{})
	if !ok {
		return Null, false
	}

	field, ok := obj[key]
	if !ok {
		return Null, false
	}

	return Value{v: field}, true
}

// Get returns the field key of an object Value, or Null.
func (v Value) Get(key string) Value {
	field, _ := v.Lookup(key)

	return field
}

// Index returns element i of an array Value, or Null when out of range.
func (v Value) Index(i int) Value {
	arr, ok := v.v.([]interface{})
	if !ok || i < 0 || i >= len(arr) {
		return Null
	}

	return Value{v: arr[i]}
}

// Len returns the number of elements of an array or fields of an object.
func (v Value) Len() int {
	switch t := v.v.(type) {
	case []interface{}:
		return len(t)
	case map[string]interface{}:
		return len(t)
	case string:
		return len(t)
	default:
		return 0
	}
}

// Array returns the elements of an array Value; nil for other kinds.
func (v Value) Array() []Value {
	arr, ok := v.v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]Value, len(arr))
	for i, elem := range arr {
		out[i] = Value{v: elem}
	}

	return out
}

// Object returns the fields of an object Value; nil for other kinds.
func (v Value) Object() map[string]Value {
	obj, ok := v.v.(map[string]interface{})
	if !ok {
		return nil
	}

	out := make(map[string]Value, len(obj))
	for key, field := range obj {
		out[key] = Value{v: field}
	}

	return out
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	s, ok := v.v.(string)

	return s, ok
}

// Text returns strings as-is and numbers and booleans in their JSON form.
// Null, arrays and objects yield "".
func (v Value) Text() string {
	switch t := v.v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	b, ok := v.v.(bool)

	return b, ok
}

// Int returns the number held by v as an integer. Numbers with a fractional
// part are truncated.
func (v Value) Int() (int64, bool) {
	n, ok := v.v.(json.Number)
	if !ok {
		return 0, false
	}

	if i, err := n.Int64(); err == nil {
		return i, true
	}

	f, err := n.Float64()
	if err != nil {
		return 0, false
	}

	return int64(f), true
}

// Float returns the number held by v.
func (v Value) Float() (float64, bool) {
	n, ok := v.v.(json.Number)
	if !ok {
		return 0, false
	}

	f, err := n.Float64()

	return f, err == nil
}

// Truthy applies the usual dynamic-language truthiness: null, false, zero,
// the empty string, and empty arrays and objects are false.
func (v Value) Truthy() bool {
	switch t := v.v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()

		return err == nil && f != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return false
	}
}

// Decode converts v into dst, which must be a pointer, using encoding/json rules.
func (v Value) Decode(dst interface{}) error {
	data, err := json.Marshal(v.v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// MarshalYAML lets gopkg.in/yaml.v3 render the underlying document.
func (v Value) MarshalYAML() (interface{}, error) {
	return yamlFriendly(v.v), nil
}

// yamlFriendly converts json.Number into int64 or float64 so YAML output
// does not quote numbers.
func yamlFriendly(raw interface{}) interface{} {
	switch t := raw.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		if f, err := t.Float64(); err == nil {
			return f
		}

		return t.String()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			out[i] = yamlFriendly(elem)
		}

		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for key, field := range t {
			out[key] = yamlFriendly(field)
		}

		return out
	default:
		return t
	}
}
