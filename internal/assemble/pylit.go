package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/portforge/internal/schema"
)

// PyLiteral renders a value as Python source. Object keys are emitted in
// canonical sorted order so the same instance always renders to the same
// text.
func PyLiteral(v schema.Value) string {
	var b strings.Builder
	writePyLiteral(&b, v)
	return b.String()
}

func writePyLiteral(b *strings.Builder, v schema.Value) {
	switch val := v.(type) {
	case nil, schema.Null:
		b.WriteString("None")
	case schema.Bool:
		if val {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case schema.Int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case schema.Float:
		b.WriteString(formatPyFloat(float64(val)))
	case schema.String:
		writePyString(b, string(val))
	case schema.Array:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writePyLiteral(b, elem)
		}
		b.WriteByte(']')
	case schema.Object:
		b.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				b.WriteString(", ")
			}
			writePyString(b, k)
			b.WriteString(": ")
			writePyLiteral(b, val[k])
		}
		b.WriteByte('}')
	default:
		panic(fmt.Sprintf("unhandled value type %T", v))
	}
}

// formatPyFloat renders a float the way repr() does: shortest text that
// round-trips, always with a decimal point or exponent so the literal
// stays a float.
func formatPyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.ContainsAny(s, "nN") {
		s += ".0"
	}
	return s
}

// writePyString emits a single-quoted Python string literal.
func writePyString(b *strings.Builder, s string) {
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
}
