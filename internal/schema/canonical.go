package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for a Value.
//
// Properties, following RFC 8785 where it applies:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats use the shortest round-trip representation
//
// Generated documents embed normalized instances through this serialization
// so repeated runs over the same inputs are byte-identical, which is also
// what the golden tests compare against.
func MarshalCanonical(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return marshalCanonicalString(string(val))
	case Int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Float:
		return strconv.AppendFloat(nil, float64(val), 'g', -1, 64), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Array:
		return marshalCanonicalArray(val)
	case Object:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string: NFC normalized,
// no HTML escaping. Only control characters, backslash, and quote are
// escaped by the encoder.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return unescapeSeparators(result), nil
}

// unescapeSeparators converts \u2028 and \u2029 escape sequences back to
// literal characters per RFC 8785. Go's encoder escapes them for JavaScript
// compatibility. A sequence preceded by an odd number of backslashes is an
// escaped backslash followed by literal "u2028" text and must stay as-is.
func unescapeSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	var result []byte
	backslashes := 0
	for i := 0; i < len(data); {
		if data[i] == '\\' && backslashes%2 == 0 &&
			i+6 <= len(data) && bytes.HasPrefix(data[i:], []byte(`\u202`)) &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if result == nil {
				result = append(make([]byte, 0, len(data)), data[:i]...)
			}
			if data[i+5] == '8' {
				result = append(result, "\u2028"...)
			} else {
				result = append(result, "\u2029"...)
			}
			i += 6
			continue
		}

		if data[i] == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		if result != nil {
			result = append(result, data[i])
		}
		i++
	}

	if result == nil {
		return data
	}
	return result
}

func marshalCanonicalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj Object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
