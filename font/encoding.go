package font

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"github.com/figharvest/figharvest/core"
)

// Encoding maps single-byte character codes to Unicode
type Encoding interface {
	Name() string
	Decode(b byte) rune
	DecodeString(data []byte) string
}

// tableEncoding is a fixed 256-entry code to rune table
type tableEncoding struct {
	name  string
	table [256]rune
}

func (e *tableEncoding) Name() string { return e.name }

func (e *tableEncoding) Decode(b byte) rune { return e.table[b] }

func (e *tableEncoding) DecodeString(data []byte) string {
	return decodeBytes(e, data)
}

func decodeBytes(enc Encoding, data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if r := enc.Decode(b); r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Standard single-byte encodings
var (
	WinAnsiEncoding       Encoding = fromCharmap("WinAnsiEncoding", charmap.Windows1252)
	MacRomanEncoding      Encoding = fromCharmap("MacRomanEncoding", charmap.Macintosh)
	PDFDocEncoding        Encoding = newPDFDocEncoding()
	StandardEncodingTable Encoding = newStandardEncoding()
)

func fromCharmap(name string, cm *charmap.Charmap) *tableEncoding {
	enc := &tableEncoding{name: name}
	for i := 0; i < 256; i++ {
		enc.table[i] = cm.DecodeByte(byte(i))
	}
	return enc
}

// newPDFDocEncoding builds PDFDocEncoding: Latin-1 with the 0x18-0x1F and
// 0x80-0xA0 ranges replaced.
func newPDFDocEncoding() *tableEncoding {
	enc := &tableEncoding{name: "PDFDocEncoding"}
	for i := 0; i < 256; i++ {
		enc.table[i] = rune(i)
	}
	overrides := map[byte]rune{
		0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
		0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
		0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
		0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
		0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
		0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
		0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
		0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
		0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
		0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0x9F: 0,
		0xA0: '€', 0xAD: 0,
	}
	for b, r := range overrides {
		enc.table[b] = r
	}
	return enc
}

// standardEncodingHigh lists the glyphs of Adobe StandardEncoding above 0x7E
var standardEncodingHigh = map[byte]string{
	0xA1: "exclamdown", 0xA2: "cent", 0xA3: "sterling", 0xA4: "fraction",
	0xA5: "yen", 0xA6: "florin", 0xA7: "section", 0xA8: "currency",
	0xA9: "quotesingle", 0xAA: "quotedblleft", 0xAB: "guillemotleft",
	0xAC: "guilsinglleft", 0xAD: "guilsinglright", 0xAE: "fi", 0xAF: "fl",
	0xB1: "endash", 0xB2: "dagger", 0xB3: "daggerdbl", 0xB4: "periodcentered",
	0xB6: "paragraph", 0xB7: "bullet", 0xB8: "quotesinglbase",
	0xB9: "quotedblbase", 0xBA: "quotedblright", 0xBB: "guillemotright",
	0xBC: "ellipsis", 0xBD: "perthousand", 0xBF: "questiondown",
	0xC1: "grave", 0xC2: "acute", 0xC3: "circumflex", 0xC4: "tilde",
	0xC5: "macron", 0xC6: "breve", 0xC7: "dotaccent", 0xC8: "dieresis",
	0xCA: "ring", 0xCB: "cedilla", 0xCD: "hungarumlaut", 0xCE: "ogonek",
	0xCF: "caron", 0xD0: "emdash", 0xE1: "AE", 0xE3: "ordfeminine",
	0xE8: "Lslash", 0xE9: "Oslash", 0xEA: "OE", 0xEB: "ordmasculine",
	0xF1: "ae", 0xF5: "dotlessi", 0xF8: "lslash", 0xF9: "oslash",
	0xFA: "oe", 0xFB: "germandbls",
}

func newStandardEncoding() *tableEncoding {
	enc := &tableEncoding{name: "StandardEncoding"}
	for i := 0x20; i <= 0x7E; i++ {
		enc.table[i] = rune(i)
	}
	enc.table[0x27] = '’'
	enc.table[0x60] = '‘'
	for b, glyph := range standardEncodingHigh {
		enc.table[b] = glyphNameToUnicode[glyph]
	}
	return enc
}

// GetEncoding returns the named base encoding. Unknown names fall back to
// WinAnsiEncoding.
func GetEncoding(name string) Encoding {
	switch name {
	case "MacRomanEncoding":
		return MacRomanEncoding
	case "PDFDocEncoding":
		return PDFDocEncoding
	case "StandardEncoding":
		return StandardEncodingTable
	default:
		return WinAnsiEncoding
	}
}

// differencesEncoding is a base encoding with a /Differences overlay
type differencesEncoding struct {
	base  Encoding
	diffs map[byte]rune
}

// withDifferences applies a font's /Differences array to base. Glyph names
// that cannot be resolved leave the base mapping in place.
func withDifferences(base Encoding, diffs core.Array) Encoding {
	enc := &differencesEncoding{base: base, diffs: make(map[byte]rune)}
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case core.Int:
			code = int(v)
		case core.Name:
			if r, ok := GlyphToRune(string(v)); ok && code >= 0 && code < 256 {
				enc.diffs[byte(code)] = r
			}
			code++
		}
	}
	return enc
}

func (e *differencesEncoding) Name() string { return e.base.Name() + "+Differences" }

func (e *differencesEncoding) Decode(b byte) rune {
	if r, ok := e.diffs[b]; ok {
		return r
	}
	return e.base.Decode(b)
}

func (e *differencesEncoding) DecodeString(data []byte) string {
	return decodeBytes(e, data)
}
// GlyphToRune resolves a glyph name, including the uniXXXX and uXXXX[XX]
// forms.
func GlyphToRune(name string) (rune, bool) {
	if r, ok := glyphNameToUnicode[name]; ok {
		return r, true
	}
	var hex string
	switch {
	case strings.HasPrefix(name, "uni") && len(name) == 7:
		hex = name[3:]
	case strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7:
		hex = name[1:]
	default:
		return 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

var utf16BE = xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)

// DecodeUTF16BE decodes big-endian UTF-16 without a byte order mark
func DecodeUTF16BE(data []byte) string {
	out, err := utf16BE.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// NormalizeUnicode returns s in NFC form
func NormalizeUnicode(s string) string {
	return norm.NFC.String(s)
}
