package text

import (
	"fmt"
	"math"
	"strings"

	"github.com/figharvest/figharvest/contentstream"
	"github.com/figharvest/figharvest/core"
	"github.com/figharvest/figharvest/font"
	"github.com/figharvest/figharvest/graphicsstate"
)

// TextFragment is the text shown by one string operand, positioned in
// device space with Y growing upwards.
type TextFragment struct {
	Text      string
	X, Y      float64 // left end of the baseline
	Width     float64
	Height    float64 // rendered em height
	FontName  string  // resource name
	FontSize  float64 // same as Height
	Direction Direction
	Seq       int // index of the showing operator in the operation list
}

// Extractor replays the text operators of a content stream and collects
// positioned fragments. Fonts are loaded from the resource dictionaries on
// first use and fall back to standard metrics when they cannot be read.
type Extractor struct {
	gs      *graphicsstate.GraphicsState
	resolve font.Resolver

	resources []core.Dict // innermost scope last
	fonts     map[string]*font.Font
	depth     int
	seq       int

	fragments []TextFragment
	badFonts  []string

	// MaxFormDepth limits nested Form XObjects
	MaxFormDepth int
}

// NewExtractor creates an extractor for content painted with resources.
// resolve may be nil when nothing in the resources is indirect.
func NewExtractor(resources core.Dict, resolve font.Resolver) *Extractor {
	return &Extractor{
		gs:           graphicsstate.NewGraphicsState(),
		resolve:      resolve,
		resources:    []core.Dict{resources},
		fonts:        make(map[string]*font.Font),
		MaxFormDepth: graphicsstate.DefaultMaxFormDepth,
	}
}

// Extract processes a parsed operation list and returns the fragments in
// showing order.
func (e *Extractor) Extract(operations []contentstream.Operation) ([]TextFragment, error) {
	e.fragments = nil
	for i, op := range operations {
		e.seq = i
		if err := e.processOperation(op); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Operator, err)
		}
	}
	return e.fragments, nil
}

// ExtractFromBytes parses and processes raw content stream data
func (e *Extractor) ExtractFromBytes(data []byte) ([]TextFragment, error) {
	operations, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse content stream: %w", err)
	}
	return e.Extract(operations)
}

// GraphicsState returns the state operators are applied to. Setting its CTM
// before Extract places the output in another space.
func (e *Extractor) GraphicsState() *graphicsstate.GraphicsState { return e.gs }

// FallbackFonts lists the font resources that could not be loaded and were
// measured with standard metrics instead.
func (e *Extractor) FallbackFonts() []string { return e.badFonts }

func (e *Extractor) processOperation(op contentstream.Operation) error {
	ops := op.Operands
	switch op.Operator {
	case "q":
		e.gs.Save()
	case "Q":
		return e.gs.Restore()
	case "cm":
		if len(ops) == 6 {
			e.gs.Transform(graphicsstate.OperandsToMatrix(ops))
		}

	case "BT":
		e.gs.BeginText()
	case "Tf":
		if len(ops) == 2 {
			name, ok := ops[0].(core.Name)
			size, ok2 := graphicsstate.Number(ops[1])
			if ok && ok2 {
				e.gs.SetFont(string(name), size)
			}
		}
	case "Tc":
		setNumber(ops, &e.gs.Text.CharSpacing)
	case "Tw":
		setNumber(ops, &e.gs.Text.WordSpacing)
	case "Tz":
		setNumber(ops, &e.gs.Text.HorizontalScaling)
	case "TL":
		setNumber(ops, &e.gs.Text.Leading)
	case "Ts":
		setNumber(ops, &e.gs.Text.Rise)
	case "Tr":
		var mode float64
		if setNumber(ops, &mode) {
			e.gs.Text.RenderingMode = int(mode)
		}

	case "Tm":
		if len(ops) == 6 {
			e.gs.SetTextMatrix(graphicsstate.OperandsToMatrix(ops))
		}
	case "Td", "TD":
		if len(ops) == 2 {
			tx, _ := graphicsstate.Number(ops[0])
			ty, _ := graphicsstate.Number(ops[1])
			if op.Operator == "TD" {
				e.gs.TranslateTextSetLeading(tx, ty)
			} else {
				e.gs.TranslateText(tx, ty)
			}
		}
	case "T*":
		e.gs.NextLine()

	case "Tj":
		if len(ops) == 1 {
			e.showString(ops[0])
		}
	case "'":
		e.gs.NextLine()
		if len(ops) == 1 {
			e.showString(ops[0])
		}
	case "\"":
		if len(ops) == 3 {
			setNumber(ops[:1], &e.gs.Text.WordSpacing)
			setNumber(ops[1:2], &e.gs.Text.CharSpacing)
			e.gs.NextLine()
			e.showString(ops[2])
		}
	case "TJ":
		if len(ops) == 1 {
			if arr, ok := ops[0].(core.Array); ok {
				e.showArray(arr)
			}
		}

	case "Do":
		if len(ops) == 1 {
			if name, ok := ops[0].(core.Name); ok {
				return e.doXObject(string(name))
			}
		}
	}
	return nil
}

func (e *Extractor) showString(obj core.Object) {
	if s, ok := obj.(core.String); ok {
		e.show([]byte(s))
	}
}

// showArray handles TJ. Numbers shift the next glyph by thousandths of an
// em, against the writing direction.
func (e *Extractor) showArray(arr core.Array) {
	f := e.currentFont()
	for _, item := range arr {
		if kern, ok := graphicsstate.Number(item); ok {
			if f.Vertical {
				e.gs.AdvanceText(0, e.gs.VerticalAdvance(kern, false)-e.gs.VerticalAdvance(0, false))
			} else {
				e.gs.AdvanceText(e.gs.GlyphAdvance(0, kern, false)-e.gs.GlyphAdvance(0, 0, false), 0)
			}
			continue
		}
		e.showString(item)
	}
}

// show decodes one string, advances the text matrix glyph by glyph and
// records the fragment spanning from the first origin to the last.
func (e *Extractor) show(data []byte) {
	f := e.currentFont()
	glyphs := f.Decode(data)
	if len(glyphs) == 0 {
		return
	}

	start := e.gs.TextOrigin()
	size := e.gs.EffectiveFontSize()

	var sb strings.Builder
	for _, g := range glyphs {
		sb.WriteString(g.Text)
		if f.Vertical {
			e.gs.AdvanceText(0, e.gs.VerticalAdvance(0, g.Space))
		} else {
			e.gs.AdvanceText(e.gs.GlyphAdvance(g.Width, 0, g.Space), 0)
		}
	}
	end := e.gs.TextOrigin()

	text := font.NormalizeUnicode(sb.String())
	if text == "" {
		return
	}

	frag := TextFragment{
		Text:      text,
		X:         math.Min(start.X, end.X),
		Y:         math.Min(start.Y, end.Y),
		Width:     math.Abs(end.X - start.X),
		Height:    size,
		FontName:  e.gs.Text.FontName,
		FontSize:  size,
		Direction: DetectDirection(text),
		Seq:       e.seq,
	}
	if f.Vertical {
		// a vertical column is one em wide, centred on the origin
		frag.X = start.X - size/2
		frag.Width = size
		frag.Height = math.Max(math.Abs(end.Y-start.Y), size)
	}
	e.fragments = append(e.fragments, frag)
}

// currentFont returns the font selected by Tf, loading it on first use
func (e *Extractor) currentFont() *font.Font {
	name := e.gs.Text.FontName
	key := fmt.Sprintf("%d/%s", e.depth, name)
	entry, found := e.lookupResource("Font", name)
	if ref, ok := entry.(core.IndirectRef); ok {
		key = ref.String()
	}
	if f, ok := e.fonts[key]; ok {
		return f
	}

	f := e.loadFont(name, entry, found)
	e.fonts[key] = f
	return f
}

func (e *Extractor) loadFont(name string, entry core.Object, found bool) *font.Font {
	if found {
		if dict, ok := e.resolveObject(entry).(core.Dict); ok {
			f, err := font.Load(name, dict, e.resolve)
			if err == nil {
				return f
			}
			e.badFonts = append(e.badFonts, err.Error())
			baseFont, _ := dict.GetName("BaseFont")
			return font.Standard(name, string(baseFont))
		}
	}
	if name != "" {
		e.badFonts = append(e.badFonts, fmt.Sprintf("font %s: not in resources", name))
	}
	return font.Standard(name, "Helvetica")
}

func (e *Extractor) doXObject(name string) error {
	entry, ok := e.lookupResource("XObject", name)
	if !ok {
		return nil
	}
	form, ok := e.resolveObject(entry).(*core.Stream)
	if !ok {
		return nil
	}
	if subtype, _ := form.Dict.GetName("Subtype"); subtype != "Form" || e.depth >= e.MaxFormDepth {
		return nil
	}

	data, err := form.Decode()
	if err != nil {
		return fmt.Errorf("decode form %s: %w", name, err)
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("parse form %s: %w", name, err)
	}

	resources := e.resources[len(e.resources)-1]
	if d, ok := e.resolveObject(form.Dict.Get("Resources")).(core.Dict); ok {
		resources = d
	}

	e.gs.Save()
	if m, ok := form.Dict.GetArray("Matrix"); ok && len(m) == 6 {
		e.gs.Transform(graphicsstate.OperandsToMatrix(m))
	}
	e.resources = append(e.resources, resources)
	e.depth++
	defer func() {
		e.depth--
		e.resources = e.resources[:len(e.resources)-1]
	}()

	// nested operations keep the Seq of the outer Do
	for _, op := range ops {
		if err := e.processOperation(op); err != nil {
			return err
		}
	}
	return e.gs.Restore()
}

// lookupResource finds name in a category of the innermost resource
// dictionary and returns the entry unresolved.
func (e *Extractor) lookupResource(category, name string) (core.Object, bool) {
	resources := e.resources[len(e.resources)-1]
	if resources == nil {
		return nil, false
	}
	entries, ok := e.resolveObject(resources.Get(category)).(core.Dict)
	if !ok {
		return nil, false
	}
	entry := entries.Get(name)
	return entry, entry != nil
}

func (e *Extractor) resolveObject(obj core.Object) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj
	}
	if e.resolve == nil {
		return nil
	}
	resolved, err := e.resolve(ref)
	if err != nil {
		return nil
	}
	return resolved
}

// setNumber stores a single numeric operand into dst
func setNumber(ops []core.Object, dst *float64) bool {
	if len(ops) != 1 {
		return false
	}
	v, ok := graphicsstate.Number(ops[0])
	if ok {
		*dst = v
	}
	return ok
}
