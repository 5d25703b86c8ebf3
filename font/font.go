package font

import (
	"fmt"
	"strings"

	"github.com/figharvest/figharvest/core"
)

// Resolver resolves indirect references
type Resolver func(core.IndirectRef) (core.Object, error)

// Glyph is one character code of a shown string
type Glyph struct {
	Code  uint32
	Text  string  // Unicode; empty when the code has no mapping
	Width float64 // horizontal advance in thousandths of text space
	Space bool    // single-byte code 32, which also advances by word spacing
}

// Font decodes and measures the strings shown with one font resource.
type Font struct {
	Name     string // resource name
	BaseFont string
	Subtype  string
	Vertical bool

	enc       Encoding // simple fonts
	codes     *CMap    // composite fonts: code to CID
	toUnicode *CMap

	widths  map[uint32]float64 // by code for simple fonts, by CID for composite
	metrics map[rune]float64   // standard 14 widths by Unicode
	fixed   float64            // monospaced standard width
	missing float64
}

// replacement stands in for a composite font glyph without a Unicode mapping
const replacement = "�"

// Load builds a font from its dictionary. Type0 fonts are composite; all
// other subtypes are read as simple single-byte fonts.
func Load(name string, dict core.Dict, resolve Resolver) (*Font, error) {
	subtype, _ := dict.GetName("Subtype")
	baseFont, _ := dict.GetName("BaseFont")
	f := &Font{
		Name:     name,
		BaseFont: string(baseFont),
		Subtype:  string(subtype),
		widths:   map[uint32]float64{},
	}

	var err error
	if subtype == "Type0" {
		err = f.loadComposite(dict, resolve)
	} else {
		err = f.loadSimple(dict, resolve)
	}
	if err != nil {
		return nil, fmt.Errorf("font %s (%s): %w", name, baseFont, err)
	}

	if obj := dict.Get("ToUnicode"); obj != nil {
		// a broken ToUnicode leaves the encoding in charge
		if stream, ok := resolveObject(obj, resolve).(*core.Stream); ok {
			if data, err := stream.Decode(); err == nil {
				if cm, err := ParseCMap(data); err == nil {
					f.toUnicode = cm
				}
			}
		}
	}
	return f, nil
}

// Standard returns a simple font with the built-in metrics of baseFont,
// falling back to Helvetica. It serves font resources that are missing
// or unreadable.
func Standard(name, baseFont string) *Font {
	f := &Font{
		Name:     name,
		BaseFont: baseFont,
		Subtype:  "Type1",
		enc:      WinAnsiEncoding,
		widths:   map[uint32]float64{},
		missing:  500,
	}
	var ok bool
	if f.metrics, f.fixed, ok = standardMetrics(baseFont); !ok {
		f.metrics, f.fixed, _ = standardMetrics("Helvetica")
	}
	return f
}

// Decode splits data into glyphs
func (f *Font) Decode(data []byte) []Glyph {
	if f.codes != nil {
		return f.decodeComposite(data)
	}
	glyphs := make([]Glyph, len(data))
	for i, b := range data {
		code := uint32(b)
		glyphs[i] = Glyph{
			Code:  code,
			Text:  f.simpleText(b),
			Width: f.simpleWidth(b),
			Space: b == ' ',
		}
	}
	return glyphs
}

// Text returns the Unicode text of data in NFC form
func (f *Font) Text(data []byte) string {
	var sb strings.Builder
	for _, g := range f.Decode(data) {
		sb.WriteString(g.Text)
	}
	return NormalizeUnicode(sb.String())
}

// SpaceWidth returns the advance of the space character in thousandths of
// text space.
func (f *Font) SpaceWidth() float64 {
	if f.codes == nil {
		return f.simpleWidth(' ')
	}
	return f.missing
}

func (f *Font) simpleText(b byte) string {
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.Unicode(uint32(b)); ok {
			return s
		}
	}
	if r := f.enc.Decode(b); r != 0 {
		return string(r)
	}
	return ""
}

func (f *Font) simpleWidth(b byte) float64 {
	if w, ok := f.widths[uint32(b)]; ok {
		return w
	}
	if f.fixed > 0 {
		return f.fixed
	}
	if f.metrics != nil {
		if w, ok := f.metrics[f.enc.Decode(b)]; ok {
			return w
		}
	}
	return f.missing
}

func (f *Font) decodeComposite(data []byte) []Glyph {
	var glyphs []Glyph
	for len(data) > 0 {
		code, n := f.codes.Next(data)
		data = data[n:]

		g := Glyph{Code: code, Width: f.missing, Space: n == 1 && code == ' '}
		if cid, ok := f.codes.CID(code); ok {
			if w, ok := f.widths[cid]; ok {
				g.Width = w
			}
		}
		// Unicode CMaps used as /Encoding carry the text themselves
		src := f.codes
		if f.toUnicode != nil {
			src = f.toUnicode
		}
		g.Text = replacement
		if s, ok := src.Unicode(code); ok {
			g.Text = s
		}
		glyphs = append(glyphs, g)
	}
	return glyphs
}

func resolveObject(obj core.Object, resolve Resolver) core.Object {
	if ref, ok := obj.(core.IndirectRef); ok && resolve != nil {
		resolved, err := resolve(ref)
		if err != nil {
			return nil
		}
		return resolved
	}
	return obj
}

func number(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	}
	return 0, false
}
