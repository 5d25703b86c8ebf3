package core

// Character classes of the PDF lexical grammar, shared with the content
// stream parser.

const (
	classRegular = iota
	classSpace
	classDelim
)

var charClass = func() (t [256]uint8) {
	for _, c := range []byte(" \t\r\n\f\x00") {
		t[c] = classSpace
	}
	for _, c := range []byte("()<>[]{}/%") {
		t[c] = classDelim
	}
	return t
}()

// IsWhitespace reports whether c is one of the six PDF white-space bytes
func IsWhitespace(c byte) bool { return charClass[c] == classSpace }

// IsDelimiter reports whether c ends a name, number or keyword
func IsDelimiter(c byte) bool { return charClass[c] == classDelim }

// IsRegular reports whether c is neither white space nor a delimiter
func IsRegular(c byte) bool { return charClass[c] == classRegular }

// HexValue returns the value of a hex digit and whether c is one
func HexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// escapes maps the single-character escapes of literal strings
var escapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

// Unescape resolves the escape that follows a backslash in a literal
// string. next returns the following byte without consuming it when
// consume is false. The returned slice is empty for a line continuation.
func Unescape(c byte, next func(consume bool) (byte, bool)) []byte {
	if b, ok := escapes[c]; ok {
		return []byte{b}
	}
	switch {
	case c == '\r':
		if b, ok := next(false); ok && b == '\n' {
			next(true)
		}
		return nil
	case c == '\n':
		return nil
	case c >= '0' && c <= '7':
		v := c - '0'
		for i := 0; i < 2; i++ {
			b, ok := next(false)
			if !ok || b < '0' || b > '7' {
				break
			}
			next(true)
			v = v<<3 | (b - '0')
		}
		return []byte{v}
	}
	return []byte{c}
}
