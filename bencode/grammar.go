package bencode

import (
	"fmt"
	"math"
)

// scanContext selects which tokens may start at a position, and therefore the expected-set reported on failure.
type scanContext uint8

const (
	contextValue scanContext = iota // top level or dictionary value
	contextList                     // list element or end of list
	contextKey                      // dictionary key or end of dictionary
)

func (c scanContext) expected() string {
	switch c {
	case contextList:
		return "expected 'd', 'e', 'i', 'l', or '0'-'9'"
	case contextKey:
		return "expected 'e' or '0'-'9'"
	default:
		return "expected 'd', 'i', 'l', or '0'-'9'"
	}
}

func describeByte(c byte) string {
	if c >= 0x20 && c < 0x7f && c != '\'' {
		return fmt.Sprintf("'%c'", c)
	}
	return fmt.Sprintf("0x%02x", c)
}

// unexpected builds the error for the byte at pos, or for running off the end of buf.
func unexpected(buf []byte, pos int, expected string) *InvalidBencodeError {
	if pos >= len(buf) {
		return newInvalidBencodeError(len(buf), "unexpected end of data, %s", expected)
	}
	return newInvalidBencodeError(pos, "unexpected %s, %s", describeByte(buf[pos]), expected)
}

func expectByte(buf []byte, pos int, b byte) error {
	if pos >= len(buf) || buf[pos] != b {
		return unexpected(buf, pos, fmt.Sprintf("expected '%c'", b))
	}
	return nil
}

// scanTokenType classifies the token starting at pos without consuming it.
func scanTokenType(buf []byte, pos int, ctx scanContext) (TokenType, error) {
	if pos >= len(buf) {
		return None, unexpected(buf, pos, ctx.expected())
	}
	c := buf[pos]
	switch {
	case c == bencodeEnd && ctx == contextList:
		return ListTail, nil
	case c == bencodeEnd && ctx == contextKey:
		return DictionaryTail, nil
	case isDigit(c) && ctx == contextKey:
		return Key, nil
	case ctx == contextKey:
		// only keys and the end marker are allowed here
	case isDigit(c):
		return String, nil
	case c == numberStart:
		return Integer, nil
	case c == listStart:
		return ListHead, nil
	case c == dictStart:
		return DictionaryHead, nil
	}
	return None, unexpected(buf, pos, ctx.expected())
}

// scanInteger reads `i` `-`? digits `e` starting at pos and returns the value and the offset just past the `e`.
func scanInteger(buf []byte, pos int) (int64, int, error) {
	if err := expectByte(buf, pos, numberStart); err != nil {
		return 0, pos, err
	}
	i := pos + 1
	neg := false
	if i < len(buf) && buf[i] == minusSign {
		neg = true
		i++
	}
	digitStart := i
	if i >= len(buf) || !isDigit(buf[i]) || (neg && buf[i] == '0') {
		switch {
		case neg:
			return 0, pos, unexpected(buf, i, "expected '1'-'9'")
		default:
			return 0, pos, unexpected(buf, i, "expected '-' or '0'-'9'")
		}
	}

	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	var mag uint64
	overflow := false
	more := "expected '0'-'9' or 'e'"
	if buf[i] == '0' {
		i++
		more = "expected 'e'"
	} else {
		for ; i < len(buf) && isDigit(buf[i]); i++ {
			d := uint64(buf[i] - '0')
			if overflow || mag > (limit-d)/10 {
				overflow = true
				continue
			}
			mag = mag*10 + d
		}
	}
	if i >= len(buf) || buf[i] != bencodeEnd {
		return 0, pos, unexpected(buf, i, more)
	}
	if overflow {
		return 0, pos, newUnsupportedBencodeError(digitStart, "integer %s does not fit in 64 bits", buf[pos+1:i])
	}
	if !neg {
		return int64(mag), i + 1, nil
	}
	if mag == limit {
		return math.MinInt64, i + 1, nil
	}
	return -int64(mag), i + 1, nil
}

// scanStringHeader reads the decimal length and the `:` of a byte string starting at pos. It returns the length and
// the offset of the first body byte; it does not check that the body is present.
func scanStringHeader(buf []byte, pos int) (int, int, error) {
	if pos >= len(buf) || !isDigit(buf[pos]) {
		return 0, pos, unexpected(buf, pos, "expected '0'-'9'")
	}
	i := pos
	n := 0
	overflow := false
	more := "expected '0'-'9' or ':'"
	if buf[i] == '0' {
		i++
		more = "expected ':'"
	} else {
		for ; i < len(buf) && isDigit(buf[i]); i++ {
			d := int(buf[i] - '0')
			if overflow || n > (math.MaxInt-d)/10 {
				overflow = true
				continue
			}
			n = n*10 + d
		}
	}
	if i >= len(buf) || buf[i] != bytesLengthSep {
		return 0, pos, unexpected(buf, i, more)
	}
	if overflow {
		return 0, pos, newUnsupportedBencodeError(pos, "string length %s is too large", buf[pos:i])
	}
	return n, i + 1, nil
}

// scanString reads a whole byte string and returns a view of its body, capped so that appending to it cannot
// overwrite the source.
func scanString(buf []byte, pos int) ([]byte, int, error) {
	n, start, err := scanStringHeader(buf, pos)
	if err != nil {
		return nil, pos, err
	}
	if n > len(buf)-start {
		return nil, pos, newInvalidBencodeError(len(buf), "unexpected end of data, string of length %d has only %d bytes", n, len(buf)-start)
	}
	end := start + n
	return buf[start:end:end], end, nil
}
