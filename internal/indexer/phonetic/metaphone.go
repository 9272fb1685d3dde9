// Package phonetic maps normalised tokens to Metaphone codes so that
// differently spelled but similarly pronounced words share a posting set.
package phonetic

import "strings"

// Encoder maps a token to a phonetic code. Implementations must be pure and
// deterministic and never return an empty code.
type Encoder interface {
	Encode(token string) string
}

// EncoderFunc adapts a plain function to Encoder.
type EncoderFunc func(token string) string

func (f EncoderFunc) Encode(token string) string { return f(token) }

// Metaphone is the classic Metaphone encoder. Digits pass through unchanged
// and any other non-letter is dropped.
var Metaphone Encoder = EncoderFunc(Encode)

// Encode returns the Metaphone code of token. When the rules leave nothing
// (a lone "h", an underscore run) the upper-cased token is returned instead.
func Encode(token string) string {
	w := strings.ToUpper(token)
	n := len(w)
	if n == 0 {
		return ""
	}

	var code strings.Builder
	start, first := 0, 0
	switch {
	case hasPrefixAny(w, "AE", "GN", "KN", "PN", "WR"):
		start, first = 1, 1
	case w[0] == 'X':
		code.WriteByte('S')
		start, first = 1, -1
	case strings.HasPrefix(w, "WH"):
		code.WriteByte('W')
		start, first = 2, -1
	}

	at := func(i int) byte {
		if i < 0 || i >= n {
			return 0
		}
		return w[i]
	}

	for i := start; i < n; i++ {
		c := w[i]
		prev, next, next2 := at(i-1), at(i+1), at(i+2)
		if c == prev && c != 'C' && !isDigit(c) {
			continue
		}
		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == first {
				code.WriteByte(c)
			}
		case 'B':
			if !(prev == 'M' && i == n-1) {
				code.WriteByte('B')
			}
		case 'C':
			switch {
			case next == 'I' && next2 == 'A':
				code.WriteByte('X')
			case next == 'H':
				if prev == 'S' {
					code.WriteByte('K')
				} else {
					code.WriteByte('X')
				}
			case next == 'I' || next == 'E' || next == 'Y':
				if prev != 'S' {
					code.WriteByte('S')
				}
			default:
				code.WriteByte('K')
			}
		case 'D':
			if next == 'G' && (next2 == 'E' || next2 == 'I' || next2 == 'Y') {
				code.WriteByte('J')
			} else {
				code.WriteByte('T')
			}
		case 'G':
			switch {
			case next == 'H' && i+2 < n && !isVowel(next2):
			case next == 'N' && (i+2 == n || w[i+1:] == "NED"):
			case prev == 'D' && (next == 'E' || next == 'I' || next == 'Y'):
			case (next == 'I' || next == 'E' || next == 'Y') && prev != 'G':
				code.WriteByte('J')
			default:
				code.WriteByte('K')
			}
		case 'H':
			if isVowel(next) && !strings.ContainsRune("CGPST", rune(prev)) {
				code.WriteByte('H')
			}
		case 'K':
			if prev != 'C' {
				code.WriteByte('K')
			}
		case 'P':
			if next == 'H' {
				code.WriteByte('F')
			} else {
				code.WriteByte('P')
			}
		case 'Q':
			code.WriteByte('K')
		case 'S':
			switch {
			case next == 'H':
				code.WriteByte('X')
			case next == 'I' && (next2 == 'O' || next2 == 'A'):
				code.WriteByte('X')
			default:
				code.WriteByte('S')
			}
		case 'T':
			switch {
			case next == 'I' && (next2 == 'O' || next2 == 'A'):
				code.WriteByte('X')
			case next == 'H':
				code.WriteByte('0')
			case next == 'C' && next2 == 'H':
			default:
				code.WriteByte('T')
			}
		case 'V':
			code.WriteByte('F')
		case 'W', 'Y':
			if isVowel(next) {
				code.WriteByte(c)
			}
		case 'X':
			code.WriteString("KS")
		case 'Z':
			code.WriteByte('S')
		case 'F', 'J', 'L', 'M', 'N', 'R':
			code.WriteByte(c)
		default:
			if isDigit(c) {
				code.WriteByte(c)
			}
		}
	}

	if code.Len() == 0 {
		return w
	}
	return code.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isVowel(c byte) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
