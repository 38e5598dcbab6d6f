package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON-compatible values the
// normalization engine operates on. Only Null, String, Int, Float, Bool,
// Array, and Object implement it.
//
// Unlike a constrained IR, vendor payloads are arbitrary JSON, so both
// null and floating-point numbers are first-class here.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null. An explicit type (rather than a nil Value)
// keeps every decoded element inside the sealed interface.
type Null struct{}

func (Null) value() {}

// String represents a JSON string value.
type String string

func (String) value() {}

// Int represents a JSON number with no fractional or exponent part.
// Numbers that fit int64 decode as Int so templates can distinguish
// integer defaults (0) from float defaults (0.0).
type Int int64

func (Int) value() {}

// Float represents any other JSON number.
type Float float64

func (Float) value() {}

// Bool represents a JSON boolean value.
type Bool bool

func (Bool) value() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Object represents a map of string keys to values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns the object's keys in UTF-16 code unit order, the
// RFC 8785 canonical ordering. Go's sort.Strings compares UTF-8 bytes,
// which produces a different order for non-BMP keys.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units per RFC 8785.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// Decode parses JSON bytes into a Value.
//
// Numbers decode as Int when they carry no fractional or exponent part and
// fit int64; everything else decodes as Float. JSON null decodes as Null.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	// Reject trailing garbage after the first value.
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	return fromAny(raw)
}

// DecodeString is a convenience wrapper over Decode for text inputs.
func DecodeString(s string) (Value, error) {
	return Decode([]byte(s))
}

// fromAny recursively converts a decoded Go value into a Value.
func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			if n, err := val.Int64(); err == nil {
				return Int(n), nil
			}
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Float(f), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			converted, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			converted, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// IsNull reports whether v is the explicit Null value or a nil interface.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}
