// Package graphicsstate tracks the geometric part of the PDF graphics
// state and records what a content stream paints.
//
// [GraphicsState] holds the CTM and the text state behind a q/Q stack. Its
// text methods implement the matrix updates of the text positioning
// operators and the glyph displacement rules, so the text package only
// decides what to show:
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Transform(m)                     // cm
//	gs.SetFont("F1", 10)                // Tf
//	gs.TranslateText(72, 700)           // Td
//	gs.AdvanceText(gs.GlyphAdvance(w, 0, false), 0)
//	origin := gs.TextOrigin()
//
// # Content Extraction
//
// [ContentExtractor] replays a page's operations against the state stack
// and records what gets painted:
//   - [Drawing]: the device-space bounds of each stroked or filled path
//   - [ImagePlacement]: each image XObject painted with Do, and each inline
//     image, with the unit square mapped through the CTM
//
// Form XObjects are expanded in place using their /Matrix and /Resources,
// up to MaxFormDepth levels. Every record carries the index of the
// operation that produced it, so callers can interleave the output with
// text fragments extracted from the same operation list.
package graphicsstate
