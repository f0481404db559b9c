package extract

import (
	"bytes"
	"strings"
)

// DefaultLookahead is the number of input bytes searched for a needle when
// the caller does not supply its own window.
const DefaultLookahead = 1000

// delimiters terminate a token copy.
var delimiters = [256]bool{
	'\r': true,
	'\n': true,
	'}':  true,
	',':  true,
	';':  true,
	' ':  true,
	'"':  true,
}

// IsDelimiter reports whether b terminates a token.
func IsDelimiter(b byte) bool {
	return delimiters[b]
}

// Token searches the first lookahead bytes of input for needle and copies the
// bytes that follow the match into out.
//
// Input ends at len(input) or at the first NUL byte, whichever comes first.
// The needle must end inside the lookahead window; the copy after it is only
// bounded by the output capacity and the end of input. Copying stops at the
// first delimiter, after len(out)-1 bytes, or at the end of input, and out[n]
// is set to NUL.
//
// found is false when the needle does not occur in the window, and out is
// left untouched in that case. A match followed directly by a delimiter or by
// the end of input reports found with n == 0. An empty needle never matches.
// A lookahead of zero or less selects [DefaultLookahead].
func Token(input, needle, out []byte, lookahead int) (n int, found bool) {
	return scan(input, needle, out, lookahead, false)
}

// Needle returns the pattern searched for keyword. A bare field name k becomes
// the JSON key "k":. A keyword holding a quote or a colon is a literal pattern
// and is returned as given.
func Needle(keyword string) []byte {
	if IsLiteral(keyword) {
		return []byte(keyword)
	}
	return []byte(`"` + keyword + `":`)
}

// IsLiteral reports whether keyword is used verbatim rather than as a field name.
func IsLiteral(keyword string) bool {
	return strings.ContainsAny(keyword, `":`)
}

// Field is [Token] with the needle derived from keyword by [Needle]. For a
// bare field name, spaces, tabs and line breaks between the colon and the
// value are skipped, so both "k":1 and "k": 1 yield 1. A literal keyword is
// matched and copied exactly like [Token].
func Field(input []byte, keyword string, out []byte, lookahead int) (n int, found bool) {
	if keyword == "" {
		return 0, false
	}
	return scan(input, Needle(keyword), out, lookahead, !IsLiteral(keyword))
}

func scan(input, needle, out []byte, lookahead int, skipSpace bool) (n int, found bool) {
	if len(needle) == 0 {
		return 0, false
	}
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}

	if end := bytes.IndexByte(input, 0); end >= 0 {
		input = input[:end]
	}

	window := input
	if len(window) > lookahead {
		window = window[:lookahead]
	}

	idx := bytes.Index(window, needle)
	if idx < 0 {
		return 0, false
	}
	if len(out) == 0 {
		return 0, true
	}

	rest := input[idx+len(needle):]
	if skipSpace {
		rest = bytes.TrimLeft(rest, " \t\r\n")
	}
	limit := len(out) - 1
	for n < limit && n < len(rest) && !delimiters[rest[n]] {
		out[n] = rest[n]
		n++
	}
	out[n] = 0
	return n, true
}
