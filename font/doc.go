// Package font decodes the strings of PDF text-showing operators.
//
// A [Font] is loaded from a page's font resource and turns the bytes of a
// Tj or TJ string into [Glyph] values, each carrying its Unicode text and
// horizontal advance:
//
//	f, err := font.Load("F1", dict, resolver)
//	for _, g := range f.Decode(data) {
//	    fmt.Println(g.Text, g.Width)
//	}
//
// Simple fonts (Type1, TrueType, Type3) use one byte per code, mapped
// through a base encoding and an optional /Differences overlay. Type0
// fonts split codes with their /Encoding CMap and look widths up by CID.
// A ToUnicode CMap, when present, takes precedence for the text of both.
//
// Widths come from /Widths or /W. Fonts without them fall back to the
// built-in metrics of the standard 14 fonts, matched by name with common
// aliases such as Arial and TimesNewRoman.
//
// Embedded font programs are not parsed.
package font
