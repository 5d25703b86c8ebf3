package contentstream

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/figharvest/figharvest/core"
)

// Operation is one content stream operator together with the operands that
// preceded it.
type Operation struct {
	Operator string        // e.g. "Tj", "cm", "Do"
	Operands []core.Object // in stream order
	// Data holds the raw samples of an inline image. It is set only for
	// the "BI" operation, whose single operand is the image dictionary
	// with abbreviated keys as written in the stream.
	Data []byte
}

// Parser turns a content stream into operations. A Parser is not safe for
// concurrent use, but independent parsers are.
type Parser struct {
	data     []byte
	pos      int
	operands []core.Object
	ops      []Operation
}

// NewParser creates a parser over data
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse reads the whole stream and returns its operations in order.
// Operands left over at the end of the stream are discarded.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return p.ops, nil
		}
		if err := p.step(); err != nil {
			return nil, fmt.Errorf("at offset %d: %w", p.pos, err)
		}
	}
}

// step consumes one token: an operand is pushed, an operator closes the
// pending operation.
func (p *Parser) step() error {
	c := p.data[p.pos]
	if c == '{' || c == '}' {
		// PostScript procedure braces, found in embedded CMaps
		p.pos++
		p.emit(Operation{Operator: string(c)})
		return nil
	}
	if core.IsRegular(c) && !startsNumber(c) {
		word := p.readWord()
		switch word {
		case "true":
			p.operands = append(p.operands, core.Bool(true))
		case "false":
			p.operands = append(p.operands, core.Bool(false))
		case "null":
			p.operands = append(p.operands, core.Null{})
		case "BI":
			return p.inlineImage()
		default:
			p.emit(Operation{Operator: word})
		}
		return nil
	}

	obj, err := p.readObject()
	if err != nil {
		return err
	}
	p.operands = append(p.operands, obj)
	return nil
}

func (p *Parser) emit(op Operation) {
	if len(p.operands) > 0 {
		op.Operands = append([]core.Object(nil), p.operands...)
	}
	p.ops = append(p.ops, op)
	p.operands = p.operands[:0]
}

// inlineImage reads the key/value pairs between BI and ID and the sample
// bytes up to EI.
func (p *Parser) inlineImage() error {
	dict := core.Dict{}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return fmt.Errorf("inline image: missing ID")
		}
		if p.data[p.pos] != '/' {
			if word := p.readWord(); word != "ID" {
				return fmt.Errorf("inline image: unexpected %q before ID", word)
			}
			break
		}
		key := p.readName()
		p.skipSpace()
		value, err := p.readObject()
		if err != nil {
			return fmt.Errorf("inline image /%s: %w", key, err)
		}
		dict[string(key)] = value
	}

	// a single whitespace byte separates ID from the samples
	if p.pos < len(p.data) && core.IsWhitespace(p.data[p.pos]) {
		p.pos++
	}
	start := p.pos

	var end int
	if n, ok := inlineLength(dict); ok && start+n <= len(p.data) {
		end = start + n
		p.pos = end
		p.skipSpace()
		if !bytes.HasPrefix(p.data[p.pos:], []byte("EI")) {
			return fmt.Errorf("inline image: missing EI after %d bytes", n)
		}
		p.pos += 2
	} else {
		end = findEI(p.data, start)
		if end < 0 {
			return fmt.Errorf("inline image: missing EI")
		}
		p.pos = end + 3
		if p.pos > len(p.data) {
			p.pos = len(p.data)
		}
	}

	p.operands = append(p.operands[:0], dict)
	p.emit(Operation{Operator: "BI", Data: p.data[start:end]})
	return nil
}

func inlineLength(dict core.Dict) (int, bool) {
	for _, key := range []string{"L", "Length"} {
		if n, ok := dict.GetInt(key); ok && n >= 0 {
			return int(n), true
		}
	}
	return 0, false
}

// findEI returns the offset of the whitespace byte that precedes the EI
// terminating inline image samples starting at from, or -1.
func findEI(data []byte, from int) int {
	for i := from; i+2 < len(data); i++ {
		if !core.IsWhitespace(data[i]) || data[i+1] != 'E' || data[i+2] != 'I' {
			continue
		}
		if i+3 == len(data) || core.IsWhitespace(data[i+3]) || core.IsDelimiter(data[i+3]) {
			return i
		}
	}
	return -1
}

// readObject reads a single operand.
func (p *Parser) readObject() (core.Object, error) {
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}
	c := p.data[p.pos]
	switch {
	case startsNumber(c):
		return p.readNumber()
	case c == '(':
		return p.readLiteral()
	case c == '/':
		return p.readName(), nil
	case c == '[':
		return p.readArray()
	case c == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			return p.readDict()
		}
		return p.readHex()
	case core.IsRegular(c):
		switch word := p.readWord(); word {
		case "true":
			return core.Bool(true), nil
		case "false":
			return core.Bool(false), nil
		case "null":
			return core.Null{}, nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q in operand", word)
		}
	}
	return nil, fmt.Errorf("unexpected character %q", c)
}

func (p *Parser) readNumber() (core.Object, error) {
	start := p.pos
	if c := p.data[p.pos]; c == '+' || c == '-' {
		p.pos++
	}
	real := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '.' && !real {
			real = true
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}

	text := string(p.data[start:p.pos])
	if real {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q", text)
		}
		return core.Real(v), nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// a lone sign reads as zero
		if text == "+" || text == "-" {
			return core.Int(0), nil
		}
		return nil, fmt.Errorf("invalid integer %q", text)
	}
	return core.Int(v), nil
}

// readLiteral reads a (string) with balanced parentheses and escapes.
func (p *Parser) readLiteral() (core.Object, error) {
	p.pos++
	var out bytes.Buffer
	for depth := 1; p.pos < len(p.data); {
		c := p.data[p.pos]
		p.pos++
		switch c {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return core.String(out.Bytes()), nil
			}
		case '\\':
			if p.pos < len(p.data) {
				e := p.data[p.pos]
				p.pos++
				out.Write(core.Unescape(e, p.lookahead))
			}
			continue
		}
		out.WriteByte(c)
	}
	return nil, fmt.Errorf("unterminated string")
}

// lookahead adapts the parser to core.Unescape
func (p *Parser) lookahead(consume bool) (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	c := p.data[p.pos]
	if consume {
		p.pos++
	}
	return c, true
}

// readHex reads a <hex> string. An odd final digit is padded with zero.
func (p *Parser) readHex() (core.Object, error) {
	p.pos++
	var out []byte
	half := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		if c == '>' {
			return core.String(out), nil
		}
		if core.IsWhitespace(c) {
			continue
		}
		v, ok := core.HexValue(c)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
		if half {
			out[len(out)-1] |= v
		} else {
			out = append(out, v<<4)
		}
		half = !half
	}
	return nil, fmt.Errorf("unterminated hex string")
}

// readName reads a /Name, decoding #xx escapes. A malformed escape is
// kept literally.
func (p *Parser) readName() core.Name {
	p.pos++
	var out bytes.Buffer
	for p.pos < len(p.data) && core.IsRegular(p.data[p.pos]) {
		c := p.data[p.pos]
		if c == '#' && p.pos+2 < len(p.data) {
			hi, ok1 := core.HexValue(p.data[p.pos+1])
			lo, ok2 := core.HexValue(p.data[p.pos+2])
			if ok1 && ok2 {
				out.WriteByte(hi<<4 | lo)
				p.pos += 3
				continue
			}
		}
		out.WriteByte(c)
		p.pos++
	}
	return core.Name(out.String())
}

func (p *Parser) readArray() (core.Object, error) {
	p.pos++
	arr := core.Array{}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unterminated array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.readObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) readDict() (core.Object, error) {
	p.pos += 2
	dict := core.Dict{}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		if bytes.HasPrefix(p.data[p.pos:], []byte(">>")) {
			p.pos += 2
			return dict, nil
		}
		if p.data[p.pos] != '/' {
			return nil, fmt.Errorf("dictionary key is not a name")
		}
		key := p.readName()
		p.skipSpace()
		value, err := p.readObject()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = value
	}
}

// readWord reads a run of regular characters.
func (p *Parser) readWord() string {
	start := p.pos
	for p.pos < len(p.data) && core.IsRegular(p.data[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		// a stray delimiter is consumed so parsing always advances
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// skipSpace advances past whitespace and comments.
func (p *Parser) skipSpace() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		if !core.IsWhitespace(c) {
			return
		}
		p.pos++
	}
}

func startsNumber(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}
