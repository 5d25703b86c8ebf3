package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// TokenType classifies a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword // obj, endobj, stream, true, null...
	TokenInteger
	TokenReal
	TokenString    // literal string, escapes resolved
	TokenHexString // hex digits only, white space removed
	TokenName      // without the slash, #xx resolved
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenIndirectRef // the R keyword
)

var tokenNames = [...]string{
	"EOF", "comment", "keyword", "integer", "real", "string", "hex string",
	"name", "[", "]", "<<", ">>", "R",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexical token and the offset it started at
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

func (t *Token) String() string {
	return fmt.Sprintf("%s %q at %d", t.Type, t.Value, t.Pos)
}

// Lexer splits PDF syntax into tokens. It reads through a buffer, so the
// underlying reader is positioned past the last token once it is done.
type Lexer struct {
	r   *bufio.Reader
	pos int64
}

// NewLexer creates a lexer reading from r
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r)}
}

func (l *Lexer) next() (byte, bool) {
	c, err := l.r.ReadByte()
	if err != nil {
		return 0, false
	}
	l.pos++
	return c, true
}

func (l *Lexer) peek() (byte, bool) {
	b, err := l.r.Peek(1)
	if err != nil {
		return 0, false
	}
	return b[0], true
}

// lookahead adapts the lexer to Unescape
func (l *Lexer) lookahead(consume bool) (byte, bool) {
	if consume {
		return l.next()
	}
	return l.peek()
}

// NextToken returns the next token. At the end of input it returns a
// TokenEOF token rather than an error.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		c, ok := l.peek()
		if !ok {
			return &Token{Type: TokenEOF, Pos: l.pos}, nil
		}
		if !IsWhitespace(c) {
			break
		}
		l.next()
	}

	start := l.pos
	tok := func(typ TokenType, v []byte) (*Token, error) {
		return &Token{Type: typ, Value: v, Pos: start}, nil
	}

	c, _ := l.next()
	switch c {
	case '%':
		v := append([]byte{'%'}, l.until(func(b byte) bool { return b == '\r' || b == '\n' })...)
		return tok(TokenComment, v)
	case '[':
		return tok(TokenArrayStart, []byte("["))
	case ']':
		return tok(TokenArrayEnd, []byte("]"))
	case '(':
		v, err := l.literal()
		if err != nil {
			return nil, err
		}
		return tok(TokenString, v)
	case '<':
		if b, ok := l.peek(); ok && b == '<' {
			l.next()
			return tok(TokenDictStart, []byte("<<"))
		}
		v, err := l.hex()
		if err != nil {
			return nil, err
		}
		return tok(TokenHexString, v)
	case '>':
		if b, ok := l.peek(); ok && b == '>' {
			l.next()
			return tok(TokenDictEnd, []byte(">>"))
		}
		return nil, fmt.Errorf("stray '>' at offset %d", start)
	case '/':
		v, err := l.name()
		if err != nil {
			return nil, err
		}
		return tok(TokenName, v)
	}

	if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		return l.number(c, start), nil
	}
	if IsRegular(c) && (c|0x20) >= 'a' && (c|0x20) <= 'z' {
		word := append([]byte{c}, l.until(func(b byte) bool { return !IsRegular(b) })...)
		if string(word) == "R" {
			return tok(TokenIndirectRef, word)
		}
		return tok(TokenKeyword, word)
	}
	return nil, fmt.Errorf("unexpected character %q at offset %d", c, start)
}

// until consumes bytes up to, not including, the first one that stops it
func (l *Lexer) until(stop func(byte) bool) []byte {
	var out []byte
	for {
		b, ok := l.peek()
		if !ok || stop(b) {
			return out
		}
		l.next()
		out = append(out, b)
	}
}

// number reads digits with at most one decimal point after the first byte
func (l *Lexer) number(first byte, start int64) *Token {
	v := []byte{first}
	dot := first == '.'
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if b == '.' && !dot {
			dot = true
		} else if b < '0' || b > '9' {
			break
		}
		l.next()
		v = append(v, b)
	}
	typ := TokenInteger
	if dot {
		typ = TokenReal
	}
	return &Token{Type: typ, Value: v, Pos: start}
}

// literal reads the body of a (string) after its opening parenthesis
func (l *Lexer) literal() ([]byte, error) {
	var buf bytes.Buffer
	for depth := 1; ; {
		c, ok := l.next()
		if !ok {
			return nil, fmt.Errorf("unterminated string: %w", io.ErrUnexpectedEOF)
		}
		switch c {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return buf.Bytes(), nil
			}
		case '\\':
			e, ok := l.next()
			if !ok {
				return nil, fmt.Errorf("unterminated string: %w", io.ErrUnexpectedEOF)
			}
			buf.Write(Unescape(e, l.lookahead))
			continue
		}
		buf.WriteByte(c)
	}
}

// hex reads the digits of a <hex string> after its opening bracket
func (l *Lexer) hex() ([]byte, error) {
	var out []byte
	for {
		c, ok := l.next()
		switch {
		case !ok:
			return nil, fmt.Errorf("unterminated hex string: %w", io.ErrUnexpectedEOF)
		case c == '>':
			return out, nil
		case IsWhitespace(c):
		default:
			if _, isHex := HexValue(c); !isHex {
				return nil, fmt.Errorf("invalid hex digit %q at offset %d", c, l.pos-1)
			}
			out = append(out, c)
		}
	}
}

// name reads a name after its slash, resolving #xx escapes
func (l *Lexer) name() ([]byte, error) {
	raw := l.until(func(b byte) bool { return !IsRegular(b) })
	out := raw[:0:0]
	for i := 0; i < len(raw); i++ {
		if raw[i] != '#' {
			out = append(out, raw[i])
			continue
		}
		if i+2 >= len(raw) {
			return nil, fmt.Errorf("truncated #escape in name /%s", raw)
		}
		hi, ok1 := HexValue(raw[i+1])
		lo, ok2 := HexValue(raw[i+2])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid #escape in name /%s", raw)
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return out, nil
}

// SkipStreamEOL consumes the end-of-line marker that follows the stream
// keyword: LF, CR LF, or a lone CR as some writers emit.
func (l *Lexer) SkipStreamEOL() error {
	for {
		b, ok := l.peek()
		if !ok {
			return io.ErrUnexpectedEOF
		}
		if b != ' ' {
			break
		}
		l.next()
	}
	b, _ := l.peek()
	switch b {
	case '\n':
		l.next()
	case '\r':
		l.next()
		if b, ok := l.peek(); ok && b == '\n' {
			l.next()
		}
	}
	return nil
}

// ReadBytes reads exactly n raw bytes
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(l.r, buf)
	l.pos += int64(read)
	if err != nil {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, l.pos-int64(read), err)
	}
	return buf, nil
}
