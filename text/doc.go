// Package text replays the text operators of PDF content streams and
// produces positioned text fragments.
//
// An [Extractor] is created for the resource dictionary the content is
// painted with. Fonts are loaded from it on first use, so glyph widths,
// encodings and ToUnicode maps come from the document:
//
//	e := text.NewExtractor(resources, reader.ResolveReference)
//	fragments, err := e.Extract(operations)
//
// Each [TextFragment] is the output of one shown string, or one string of a
// TJ array. Positions follow the text rendering matrix, including character
// and word spacing, horizontal scaling, rise and TJ adjustments. Text inside
// Form XObjects is extracted with the form's matrix and resources.
//
// A font that is missing or cannot be read is replaced by a standard font
// with built-in metrics; [Extractor.FallbackFonts] lists those cases.
//
// [DetectDirection] classifies text as left-to-right, right-to-left or
// neutral from Unicode bidirectional classes.
package text
