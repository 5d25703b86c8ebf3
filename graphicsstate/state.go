package graphicsstate

import (
	"errors"
	"math"

	"github.com/figharvest/figharvest/model"
)

// ErrStackUnderflow is returned by Restore without a matching Save
var ErrStackUnderflow = errors.New("graphics state stack underflow")

// GraphicsState is the part of the PDF graphics state that affects where
// things land on the page: the CTM and the text state.
type GraphicsState struct {
	CTM  model.Matrix
	Text TextState

	stack []savedState
}

type savedState struct {
	ctm  model.Matrix
	text TextState
}

// TextState holds the text parameters set by the T* operators, and the
// text and text line matrices, which BT resets.
type TextState struct {
	FontName          string
	FontSize          float64
	CharSpacing       float64 // Tc, unscaled text space units
	WordSpacing       float64 // Tw
	HorizontalScaling float64 // Tz, percent
	Leading           float64 // TL
	RenderingMode     int     // Tr
	Rise              float64 // Ts

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState returns the initial state of a page
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM: model.Identity(),
		Text: TextState{
			FontSize:          12,
			HorizontalScaling: 100,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Save pushes the current state (q operator)
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, savedState{ctm: gs.CTM, text: gs.Text})
}

// Restore pops the most recently saved state (Q operator)
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return ErrStackUnderflow
	}
	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]
	gs.CTM = saved.ctm
	gs.Text = saved.text
	return nil
}

// Depth returns the number of saved states
func (gs *GraphicsState) Depth() int { return len(gs.stack) }

// Transform concatenates m onto the CTM (cm operator): CTM' = m × CTM.
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetFont sets the font resource and size (Tf operator)
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// BeginText resets both text matrices (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets both text matrices (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText moves to the start of the next line offset by (tx, ty)
// from the start of the current one (Td operator).
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading is Td that also sets the leading to -ty (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.Text.Leading = -ty
	gs.TranslateText(tx, ty)
}

// NextLine moves down by the leading (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// AdvanceText moves the text matrix by (tx, ty) unscaled text space units
// after a glyph is shown. The line matrix stays put.
func (gs *GraphicsState) AdvanceText(tx, ty float64) {
	gs.Text.TextMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextMatrix)
}

// GlyphAdvance returns the horizontal displacement of a glyph with width w,
// in thousandths of text space, followed by kern, the TJ adjustment in the
// same units:
//
//	tx = ((w - kern)/1000 × Tfs + Tc + Tw) × Th
//
// Word spacing applies only when space is set.
func (gs *GraphicsState) GlyphAdvance(w, kern float64, space bool) float64 {
	ts := gs.Text
	tx := (w-kern)/1000*ts.FontSize + ts.CharSpacing
	if space {
		tx += ts.WordSpacing
	}
	return tx * ts.HorizontalScaling / 100
}

// VerticalAdvance is GlyphAdvance for vertical writing, where every glyph
// has the default vertical displacement of one em downwards. The result is
// a ty and is not scaled horizontally.
func (gs *GraphicsState) VerticalAdvance(kern float64, space bool) float64 {
	ts := gs.Text
	ty := (-1000-kern)/1000*ts.FontSize + ts.CharSpacing
	if space {
		ty += ts.WordSpacing
	}
	return ty
}

// TextRenderingMatrix maps glyph space, scaled to one unit per em, into
// device space: [Tfs×Th 0 0 Tfs 0 Trise] × Tm × CTM.
func (gs *GraphicsState) TextRenderingMatrix() model.Matrix {
	ts := gs.Text
	params := model.Matrix{ts.FontSize * ts.HorizontalScaling / 100, 0, 0, ts.FontSize, 0, ts.Rise}
	return params.Multiply(ts.TextMatrix).Multiply(gs.CTM)
}

// TextOrigin returns the device-space position of the current glyph origin
func (gs *GraphicsState) TextOrigin() model.Point {
	return gs.TextRenderingMatrix().Transform(model.Point{})
}

// EffectiveFontSize returns the rendered em height in device space
func (gs *GraphicsState) EffectiveFontSize() float64 {
	trm := gs.TextRenderingMatrix()
	return math.Hypot(trm[2], trm[3])
}
