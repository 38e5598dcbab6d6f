package escape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReescapeSingleQuotedNewline(t *testing.T) {
	// x = "a<newline>b" becomes x = "a\nb"
	assert.Equal(t, `x = "a\nb"`, Reescape("x = \"a\nb\""))
}

func TestReescapeTripleQuotedNewlines(t *testing.T) {
	in := "s = \"\"\"line one\nline two\"\"\"\n"
	want := `s = """line one\nline two"""` + "\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeCommentsUntouched(t *testing.T) {
	in := "# comment with \"quotes\" and stuff\nx = 1\n"
	assert.Equal(t, in, Reescape(in))
}

func TestReescapeCommentNewlineExitsToCode(t *testing.T) {
	in := "# first\ny = \"a\nb\"\n"
	want := "# first\ny = \"a\\nb\"\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeHashInsideStringIsNotAComment(t *testing.T) {
	in := "x = \"value # not a comment\nmore\"\n"
	want := `x = "value # not a comment\nmore"` + "\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeEscapedQuoteDoesNotClose(t *testing.T) {
	in := "x = \"a\\\"b\nc\"\n"
	want := `x = "a\"b\nc"` + "\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeEscapedBackslashThenQuoteCloses(t *testing.T) {
	in := `x = "a\\"` + "\ny = 2\n"
	assert.Equal(t, in, Reescape(in))
}

func TestReescapeCRLFNormalized(t *testing.T) {
	in := "x = \"a\r\nb\"\r\n"
	want := `x = "a\nb"` + "\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeMixedQuotes(t *testing.T) {
	in := "a = 'single\nbreak'\nb = \"double 'nested' ok\"\n"
	want := "a = 'single\\nbreak'\nb = \"double 'nested' ok\"\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeTripleQuoteWithSingleQuoteInside(t *testing.T) {
	in := "d = \"\"\"it's\na test\"\"\"\n"
	want := `d = """it's\na test"""` + "\n"
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeUnterminatedStringTolerated(t *testing.T) {
	in := "x = \"never closed\nrest"
	want := `x = "never closed\nrest`
	assert.Equal(t, want, Reescape(in))
}

func TestReescapeEmptyAndPlainCode(t *testing.T) {
	assert.Equal(t, "", Reescape(""))

	plain := "def f(a, b):\n    return a + b\n"
	assert.Equal(t, plain, Reescape(plain))
}

// Non-interference: code and comments are byte-identical; only string
// interiors may change, and the change is reversible.
func TestReescapeRoundTrip(t *testing.T) {
	in := "def port(src):\n" +
		"    # header comment\n" +
		"    msg = \"hello\nworld\"\n" +
		"    doc = '''multi\nline'''\n" +
		"    return msg + doc\n"

	out := Reescape(in)
	assert.NotContains(t, strippedStrings(out), "\n",
		"no literal newline may remain inside any string region")

	// Undoing the rewrite restores the original exactly.
	restored := strings.ReplaceAll(out, `\n`, "\n")
	assert.Equal(t, in, restored)
}

func TestReescapeIdempotent(t *testing.T) {
	in := "x = \"a\nb\"\ns = '''p\nq'''\n# comment\n"
	once := Reescape(in)
	assert.Equal(t, once, Reescape(once))
}

// strippedStrings returns the concatenated interior of all string regions
// in src, using the same scan rules as Reescape.
func strippedStrings(src string) string {
	var out strings.Builder
	st := stateCode
	var quote byte
	triple := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch st {
		case stateComment:
			if ch == '\n' {
				st = stateCode
			}
		case stateStringEscape:
			out.WriteByte(ch)
			st = stateString
		case stateString:
			switch {
			case ch == '\\':
				st = stateStringEscape
			case ch == quote && triple:
				if i+2 < len(src) && src[i+1] == quote && src[i+2] == quote {
					i += 2
					st = stateCode
				} else {
					out.WriteByte(ch)
				}
			case ch == quote:
				st = stateCode
			default:
				out.WriteByte(ch)
			}
		default:
			switch {
			case ch == '#':
				st = stateComment
			case ch == '\'' || ch == '"':
				quote = ch
				if i+2 < len(src) && src[i+1] == ch && src[i+2] == ch {
					i += 2
					triple = true
				} else {
					triple = false
				}
				st = stateString
			}
		}
	}
	return out.String()
}
