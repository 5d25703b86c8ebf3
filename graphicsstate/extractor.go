package graphicsstate

import (
	"fmt"

	"github.com/figharvest/figharvest/contentstream"
	"github.com/figharvest/figharvest/core"
	"github.com/figharvest/figharvest/model"
)

// DefaultMaxFormDepth bounds Form XObject recursion
const DefaultMaxFormDepth = 8

// Drawing is the device-space bounding box of one painted path.
type Drawing struct {
	BBox    model.BBox
	Stroked bool
	Filled  bool
	Seq     int // index of the painting operator in the top-level operation list
}

// ImagePlacement is an image painted by a Do operator or written inline
// between BI and EI. Inline images have no Name and no Ref.
type ImagePlacement struct {
	Name   string            // resource name without the slash
	Ref    *core.IndirectRef // nil when the XObject is a direct object
	Stream *core.Stream
	BBox   model.BBox // the unit square mapped through the CTM
	Seq    int
}

// Resolver resolves indirect references
type Resolver func(core.IndirectRef) (core.Object, error)

// ContentExtractor walks a content stream and records what gets painted:
// the bounds of every stroked or filled path and every image XObject.
// Form XObjects are expanded in place with their /Matrix and /Resources.
type ContentExtractor struct {
	gs      *GraphicsState
	path    *Path
	resolve Resolver

	resources []core.Dict // innermost scope last
	depth     int
	seq       int

	drawings []Drawing
	images   []ImagePlacement

	// MaxFormDepth limits nested Form XObjects
	MaxFormDepth int
	// MinDrawingSize drops paths smaller than this in both dimensions
	MinDrawingSize float64
}

// NewContentExtractor creates an extractor for a page with the given
// resource dictionary. resolve may be nil when the content has no indirect
// references.
func NewContentExtractor(resources core.Dict, resolve Resolver) *ContentExtractor {
	return &ContentExtractor{
		gs:             NewGraphicsState(),
		path:           NewPath(),
		resolve:        resolve,
		resources:      []core.Dict{resources},
		MaxFormDepth:   DefaultMaxFormDepth,
		MinDrawingSize: 0.1,
	}
}

// Extract processes a parsed operation list. Seq values recorded on
// drawings and images are indices into this list.
func (ce *ContentExtractor) Extract(operations []contentstream.Operation) error {
	for i, op := range operations {
		ce.seq = i
		if err := ce.processOperation(op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Operator, err)
		}
	}
	return nil
}

// ExtractFromBytes parses and processes raw content stream data
func (ce *ContentExtractor) ExtractFromBytes(data []byte) error {
	operations, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("parse content stream: %w", err)
	}
	return ce.Extract(operations)
}

// Drawings returns the painted paths in paint order
func (ce *ContentExtractor) Drawings() []Drawing { return ce.drawings }

// Images returns the image placements in paint order
func (ce *ContentExtractor) Images() []ImagePlacement { return ce.images }

// GraphicsState returns the current graphics state
func (ce *ContentExtractor) GraphicsState() *GraphicsState { return ce.gs }

func (ce *ContentExtractor) processOperation(op contentstream.Operation) error {
	switch op.Operator {
	case "q":
		ce.gs.Save()
	case "Q":
		return ce.gs.Restore()
	case "cm":
		if len(op.Operands) == 6 {
			ce.gs.Transform(OperandsToMatrix(op.Operands))
		}

	// Path construction
	case "m":
		if x, y, ok := point(op.Operands, 0); ok {
			ce.path.MoveTo(x, y)
		}
	case "l":
		if x, y, ok := point(op.Operands, 0); ok {
			ce.path.LineTo(x, y)
		}
	case "c":
		if len(op.Operands) == 6 {
			x1, y1, _ := point(op.Operands, 0)
			x2, y2, _ := point(op.Operands, 2)
			x3, y3, _ := point(op.Operands, 4)
			ce.path.CurveTo(x1, y1, x2, y2, x3, y3)
		}
	case "v":
		if len(op.Operands) == 4 {
			x2, y2, _ := point(op.Operands, 0)
			x3, y3, _ := point(op.Operands, 2)
			ce.path.CurveToV(x2, y2, x3, y3)
		}
	case "y":
		if len(op.Operands) == 4 {
			x1, y1, _ := point(op.Operands, 0)
			x3, y3, _ := point(op.Operands, 2)
			ce.path.CurveToY(x1, y1, x3, y3)
		}
	case "h":
		ce.path.ClosePath()
	case "re":
		if len(op.Operands) == 4 {
			x, y, _ := point(op.Operands, 0)
			w, h, _ := point(op.Operands, 2)
			ce.path.Rectangle(x, y, w, h)
		}

	// Path painting
	case "S":
		ce.paint(true, false)
	case "s":
		ce.path.ClosePath()
		ce.paint(true, false)
	case "f", "F", "f*":
		ce.paint(false, true)
	case "B", "B*":
		ce.paint(true, true)
	case "b", "b*":
		ce.path.ClosePath()
		ce.paint(true, true)
	case "n":
		ce.path.Clear()

	case "Do":
		if len(op.Operands) == 1 {
			if name, ok := op.Operands[0].(core.Name); ok {
				return ce.doXObject(string(name))
			}
		}
	case "BI":
		if len(op.Operands) == 1 {
			if dict, ok := op.Operands[0].(core.Dict); ok {
				ce.place("", nil, &core.Stream{Dict: ce.inlineDict(dict), Data: op.Data})
			}
		}
	}
	return nil
}

// place records an image painted into the unit square of the CTM
func (ce *ContentExtractor) place(name string, ref *core.IndirectRef, stream *core.Stream) {
	unit := NewPath()
	unit.Rectangle(0, 0, 1, 1)
	bbox, _ := unit.Bounds(ce.gs.CTM)
	ce.images = append(ce.images, ImagePlacement{
		Name:   name,
		Ref:    ref,
		Stream: stream,
		BBox:   bbox,
		Seq:    ce.seq,
	})
}

var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"W":   "Width",
	"L":   "Length",
}

var inlineNames = map[string]string{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
	"AHx":  "ASCIIHexDecode",
	"A85":  "ASCII85Decode",
	"LZW":  "LZWDecode",
	"Fl":   "FlateDecode",
	"RL":   "RunLengthDecode",
	"CCF":  "CCITTFaxDecode",
	"DCT":  "DCTDecode",
}

// inlineDict expands the abbreviated keys and names of an inline image
// dictionary. A color space that is not a device space is looked up in the
// current /ColorSpace resources.
func (ce *ContentExtractor) inlineDict(abbrev core.Dict) core.Dict {
	dict := core.Dict{"Subtype": core.Name("Image")}
	for k, v := range abbrev {
		if full, ok := inlineKeys[k]; ok {
			k = full
		}
		dict[k] = expandInlineNames(v)
	}

	if name, ok := dict["ColorSpace"].(core.Name); ok {
		switch name {
		case "DeviceGray", "DeviceRGB", "DeviceCMYK", "Indexed":
		default:
			if cs, ok := ce.lookupResource("ColorSpace", string(name)); ok {
				dict["ColorSpace"] = cs
			}
		}
	}
	return dict
}

func expandInlineNames(obj core.Object) core.Object {
	switch v := obj.(type) {
	case core.Name:
		if full, ok := inlineNames[string(v)]; ok {
			return core.Name(full)
		}
	case core.Array:
		out := make(core.Array, len(v))
		for i, e := range v {
			out[i] = expandInlineNames(e)
		}
		return out
	}
	return obj
}

// paint records the current path and starts a new one
func (ce *ContentExtractor) paint(stroked, filled bool) {
	defer ce.path.Clear()

	bbox, ok := ce.path.Bounds(ce.gs.CTM)
	if !ok {
		return
	}
	if bbox.Width < ce.MinDrawingSize && bbox.Height < ce.MinDrawingSize {
		return
	}
	ce.drawings = append(ce.drawings, Drawing{
		BBox:    bbox,
		Stroked: stroked,
		Filled:  filled,
		Seq:     ce.seq,
	})
}

func (ce *ContentExtractor) doXObject(name string) error {
	entry, ok := ce.lookupResource("XObject", name)
	if !ok {
		return nil
	}

	var ref *core.IndirectRef
	if r, isRef := entry.(core.IndirectRef); isRef {
		ref = &r
	}
	obj, err := ce.resolveObject(entry)
	if err != nil {
		return fmt.Errorf("resolve XObject %s: %w", name, err)
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil
	}

	subtype, _ := stream.Dict.GetName("Subtype")
	switch string(subtype) {
	case "Image":
		ce.place(name, ref, stream)
	case "Form":
		return ce.runForm(stream)
	}
	return nil
}

// runForm expands a Form XObject. Nested operations keep the Seq of the
// outer Do so ordering stays comparable across the page.
func (ce *ContentExtractor) runForm(form *core.Stream) error {
	if ce.depth >= ce.MaxFormDepth {
		return nil
	}

	data, err := form.Decode()
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	resources := ce.resources[len(ce.resources)-1]
	if resObj := form.Dict.Get("Resources"); resObj != nil {
		if resolved, err := ce.resolveObject(resObj); err == nil {
			if d, ok := resolved.(core.Dict); ok {
				resources = d
			}
		}
	}

	ce.gs.Save()
	if arr, ok := form.Dict.GetArray("Matrix"); ok && len(arr) == 6 {
		ce.gs.Transform(OperandsToMatrix(arr))
	}
	ce.resources = append(ce.resources, resources)
	ce.depth++
	outer := ce.path
	ce.path = NewPath()

	defer func() {
		ce.path = outer
		ce.depth--
		ce.resources = ce.resources[:len(ce.resources)-1]
	}()

	for _, op := range ops {
		if err := ce.processOperation(op); err != nil {
			return err
		}
	}
	return ce.gs.Restore()
}

// lookupResource finds name in the given category of the innermost
// resource dictionary. The entry is returned unresolved.
func (ce *ContentExtractor) lookupResource(category, name string) (core.Object, bool) {
	resources := ce.resources[len(ce.resources)-1]
	if resources == nil {
		return nil, false
	}
	catObj := resources.Get(category)
	if catObj == nil {
		return nil, false
	}
	resolved, err := ce.resolveObject(catObj)
	if err != nil {
		return nil, false
	}
	entries, ok := resolved.(core.Dict)
	if !ok {
		return nil, false
	}
	entry := entries.Get(name)
	return entry, entry != nil
}

func (ce *ContentExtractor) resolveObject(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		if ce.resolve == nil {
			return nil, fmt.Errorf("unresolvable reference %s", ref)
		}
		return ce.resolve(ref)
	}
	return obj, nil
}

// Number reads a numeric operand
func Number(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// point reads two numeric operands starting at i
func point(operands []core.Object, i int) (x, y float64, ok bool) {
	if len(operands) < i+2 {
		return 0, 0, false
	}
	x, okx := Number(operands[i])
	y, oky := Number(operands[i+1])
	return x, y, okx && oky
}

// OperandsToMatrix reads the six operands of cm or Tm. Any other count
// gives the identity.
func OperandsToMatrix(operands []core.Object) model.Matrix {
	if len(operands) != 6 {
		return model.Identity()
	}

	var m model.Matrix
	for i, op := range operands {
		m[i], _ = Number(op)
	}
	return m
}
