package escape

import "strings"

// state is the scanner position in the closed transition table.
type state int

const (
	// stateCode is the default state: outside strings and comments.
	stateCode state = iota
	// stateComment runs from a '#' marker to the next literal newline.
	stateComment
	// stateString is inside a quoted string region.
	stateString
	// stateStringEscape is the character immediately after a backslash
	// inside a string; it passes through unconditionally.
	stateStringEscape
)

// Reescape rewrites literal newlines inside string literals of src into the
// two-character escape sequence `\n`, leaving comments and code structure
// untouched. CR and CRLF line endings are normalized to LF first.
//
// Transition rules:
//   - CODE: '#' enters COMMENT; a quote character enters STRING, consuming
//     two more identical quotes immediately following to distinguish a
//     triple-quoted region from a single one; everything else passes through.
//   - COMMENT: every character passes through; a newline exits to CODE.
//   - STRING: a backslash enters STRING_ESCAPE (emitting the backslash); the
//     matching closing quote (one or three, per the opening) exits to CODE; a
//     literal newline emits `\n` instead of itself; anything else passes
//     through.
//   - STRING_ESCAPE: the next character passes through, back to STRING.
//
// Malformed input (an unterminated string) is tolerated: the scan simply
// ends in a non-CODE state and the tail is emitted as scanned.
func Reescape(src string) string {
	if src == "" {
		return ""
	}
	s := strings.ReplaceAll(src, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out strings.Builder
	out.Grow(len(s) + 16)

	st := stateCode
	var quote byte
	triple := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		switch st {
		case stateComment:
			out.WriteByte(ch)
			if ch == '\n' {
				st = stateCode
			}

		case stateStringEscape:
			out.WriteByte(ch)
			st = stateString

		case stateString:
			switch {
			case ch == '\\':
				out.WriteByte(ch)
				st = stateStringEscape
			case ch == '\n':
				out.WriteString(`\n`)
			case ch == quote && triple:
				if i+2 < len(s) && s[i+1] == quote && s[i+2] == quote {
					out.WriteByte(quote)
					out.WriteByte(quote)
					out.WriteByte(quote)
					i += 2
					st = stateCode
					triple = false
				} else {
					out.WriteByte(ch)
				}
			case ch == quote:
				out.WriteByte(ch)
				st = stateCode
			default:
				out.WriteByte(ch)
			}

		default: // stateCode
			switch {
			case ch == '#':
				out.WriteByte(ch)
				st = stateComment
			case ch == '\'' || ch == '"':
				quote = ch
				if i+2 < len(s) && s[i+1] == ch && s[i+2] == ch {
					out.WriteByte(ch)
					out.WriteByte(ch)
					out.WriteByte(ch)
					i += 2
					triple = true
				} else {
					out.WriteByte(ch)
					triple = false
				}
				st = stateString
			default:
				out.WriteByte(ch)
			}
		}
	}

	return out.String()
}
