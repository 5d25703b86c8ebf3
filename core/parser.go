package core

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves the indirect /Length of a stream
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser builds objects from the tokens of a Lexer. Tokens are read on
// demand, so nothing past the stream keyword is consumed before the raw
// stream data is.
type Parser struct {
	lexer    *Lexer
	pending  []*Token // pushed back, last out first
	resolver ReferenceResolver
}

// NewParser creates a parser reading from r
func NewParser(r io.Reader) *Parser {
	return &Parser{lexer: NewLexer(r)}
}

// SetReferenceResolver enables streams whose /Length is an indirect object
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// token returns the next token other than a comment
func (p *Parser) token() (*Token, error) {
	if n := len(p.pending); n > 0 {
		t := p.pending[n-1]
		p.pending = p.pending[:n-1]
		return t, nil
	}
	for {
		t, err := p.lexer.NextToken()
		if err != nil || t.Type != TokenComment {
			return t, err
		}
	}
}

func (p *Parser) unread(t *Token) {
	p.pending = append(p.pending, t)
}

// ParseObject reads the next direct object or reference. It returns io.EOF
// when the input is exhausted.
func (p *Parser) ParseObject() (Object, error) {
	t, err := p.token()
	if err != nil {
		return nil, err
	}
	return p.object(t)
}

func (p *Parser) object(t *Token) (Object, error) {
	switch t.Type {
	case TokenEOF:
		return nil, io.EOF
	case TokenInteger:
		return p.integer(t)
	case TokenReal:
		v, err := strconv.ParseFloat(string(t.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q at offset %d", t.Value, t.Pos)
		}
		return Real(v), nil
	case TokenString:
		return String(t.Value), nil
	case TokenHexString:
		out := make([]byte, (len(t.Value)+1)/2)
		for i, c := range t.Value {
			v, _ := HexValue(c)
			if i%2 == 0 {
				v <<= 4
			}
			out[i/2] |= v
		}
		return String(out), nil
	case TokenName:
		return Name(t.Value), nil
	case TokenArrayStart:
		return p.array()
	case TokenDictStart:
		return p.dict()
	case TokenKeyword:
		switch string(t.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
	}
	return nil, fmt.Errorf("unexpected %v", t)
}

// integer reads an integer, or a reference when followed by "gen R"
func (p *Parser) integer(t *Token) (Object, error) {
	n, err := strconv.ParseInt(string(t.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q at offset %d", t.Value, t.Pos)
	}

	gen, err := p.token()
	if err != nil {
		return nil, err
	}
	if gen.Type != TokenInteger {
		p.unread(gen)
		return Int(n), nil
	}
	r, err := p.token()
	if err != nil {
		return nil, err
	}
	if r.Type != TokenIndirectRef {
		p.unread(r)
		p.unread(gen)
		return Int(n), nil
	}
	g, err := strconv.Atoi(string(gen.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid generation %q at offset %d", gen.Value, gen.Pos)
	}
	return IndirectRef{Number: int(n), Generation: g}, nil
}

func (p *Parser) array() (Object, error) {
	arr := Array{}
	for {
		t, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated array: %w", io.ErrUnexpectedEOF)
		}
		elem, err := p.object(t)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
}

func (p *Parser) dict() (Object, error) {
	dict := Dict{}
	for {
		t, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated dictionary: %w", io.ErrUnexpectedEOF)
		case TokenName:
		default:
			return nil, fmt.Errorf("dictionary key must be a name, got %v", t)
		}
		key := string(t.Value)
		value, err := p.ParseObject()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("value of /%s: %w", key, err)
		}
		dict[key] = value
	}
}

// expect reads a keyword token and checks its spelling
func (p *Parser) expect(keyword string) error {
	t, err := p.token()
	if err != nil {
		return err
	}
	if t.Type != TokenKeyword || string(t.Value) != keyword {
		return fmt.Errorf("expected %q, got %v", keyword, t)
	}
	return nil
}

// ParseIndirectObject reads "num gen obj ... endobj", including the raw
// data of a stream object.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	var ref [2]int
	for i, what := range []string{"object number", "generation"} {
		t, err := p.token()
		if err != nil {
			return nil, err
		}
		if t.Type != TokenInteger {
			return nil, fmt.Errorf("expected %s, got %v", what, t)
		}
		if ref[i], err = strconv.Atoi(string(t.Value)); err != nil {
			return nil, fmt.Errorf("invalid %s %q", what, t.Value)
		}
	}
	if err := p.expect("obj"); err != nil {
		return nil, err
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", ref[0], ref[1], err)
	}

	t, err := p.token()
	if err != nil {
		return nil, err
	}
	if t.Type == TokenKeyword && string(t.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("object %d %d: stream after %T, not a dictionary", ref[0], ref[1], obj)
		}
		if obj, err = p.stream(dict); err != nil {
			return nil, fmt.Errorf("object %d %d: %w", ref[0], ref[1], err)
		}
	} else {
		p.unread(t)
	}

	if err := p.expect("endobj"); err != nil {
		return nil, fmt.Errorf("object %d %d: %w", ref[0], ref[1], err)
	}
	return &IndirectObject{Ref: IndirectRef{Number: ref[0], Generation: ref[1]}, Object: obj}, nil
}

// stream reads /Length bytes after the stream keyword and the endstream
// keyword that closes them.
func (p *Parser) stream(dict Dict) (*Stream, error) {
	length, err := p.streamLength(dict.Get("Length"))
	if err != nil {
		return nil, err
	}
	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("after stream keyword: %w", err)
	}
	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, err
	}
	if err := p.expect("endstream"); err != nil {
		return nil, err
	}
	return &Stream{Dict: dict, Data: data}, nil
}

func (p *Parser) streamLength(obj Object) (int, error) {
	if ref, ok := obj.(IndirectRef); ok {
		if p.resolver == nil {
			return 0, fmt.Errorf("stream length %s requires a reference resolver", ref)
		}
		resolved, err := p.resolver.ResolveReference(ref)
		if err != nil {
			return 0, fmt.Errorf("resolve stream length: %w", err)
		}
		obj = resolved
	}
	switch n := obj.(type) {
	case Int:
		if n < 0 {
			return 0, fmt.Errorf("negative stream length %d", n)
		}
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("stream dictionary missing /Length")
	}
	return 0, fmt.Errorf("invalid stream length type %T", obj)
}
