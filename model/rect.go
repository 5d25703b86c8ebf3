package model

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in page space with the origin at the
// top-left corner of the visible page and y growing downward. This is the
// space renderers and layout tools work in; BBox keeps the PDF convention.
type Rect struct {
	X0, Y0 float64 // top-left
	X1, Y1 float64 // bottom-right
}

// NewRect returns the normalized rectangle spanning the two corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// RectFromBBox converts a bottom-up PDF box into top-down page space for a
// page of the given height.
func RectFromBBox(b BBox, pageHeight float64) Rect {
	return NewRect(b.X, pageHeight-b.Top(), b.Right(), pageHeight-b.Y)
}

// Width returns the horizontal extent
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the area, zero for degenerate rectangles
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width() * r.Height()
}

// IsEmpty reports whether the rectangle has no interior.
func (r Rect) IsEmpty() bool {
	return !(r.X0 < r.X1 && r.Y0 < r.Y1)
}

// Intersects reports whether the two rectangles share interior area.
func (r Rect) Intersects(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Intersect returns the common part of two rectangles, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X0: math.Max(r.X0, o.X0),
		Y0: math.Max(r.Y0, o.Y0),
		X1: math.Min(r.X1, o.X1),
		Y1: math.Min(r.Y1, o.Y1),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Union returns the smallest rectangle containing both. An empty operand is
// ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Expand grows the rectangle by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X0: r.X0 - margin, Y0: r.Y0 - margin, X1: r.X1 + margin, Y1: r.Y1 + margin}
}

// Clip limits the rectangle to a page of the given size.
func (r Rect) Clip(width, height float64) Rect {
	return r.Intersect(Rect{X0: 0, Y0: 0, X1: width, Y1: height})
}

// HorizontalOverlap returns the length of the shared x-extent.
func (r Rect) HorizontalOverlap(o Rect) float64 {
	return math.Max(0, math.Min(r.X1, o.X1)-math.Max(r.X0, o.X0))
}

// Scale multiplies every coordinate by f
func (r Rect) Scale(f float64) Rect {
	return Rect{X0: r.X0 * f, Y0: r.Y0 * f, X1: r.X1 * f, Y1: r.Y1 * f}
}

// Clamp moves every coordinate into a page of the given size. Unlike Clip
// it keeps degenerate rectangles such as horizontal rules.
func (r Rect) Clamp(width, height float64) Rect {
	clamp := func(v, hi float64) float64 { return math.Max(0, math.Min(v, hi)) }
	return Rect{
		X0: clamp(r.X0, width),
		Y0: clamp(r.Y0, height),
		X1: clamp(r.X1, width),
		Y1: clamp(r.Y1, height),
	}
}

// PageFrame is a page's visible area (its crop box) as it is displayed,
// after the page's /Rotate is applied. Display space has its origin at the
// bottom-left of the displayed page; page space is the same area top-down.
type PageFrame struct {
	Box    BBox // crop box in user space
	Rotate int  // clockwise, one of 0, 90, 180, 270
}

// NewPageFrame builds a frame from a [llx lly urx ury] box array and a
// clockwise rotation in degrees.
func NewPageFrame(box []float64, rotate int) (PageFrame, error) {
	if len(box) != 4 {
		return PageFrame{}, fmt.Errorf("page box has %d values, want 4", len(box))
	}
	b := NewBBoxFromPoints(Point{X: box[0], Y: box[1]}, Point{X: box[2], Y: box[3]})
	if !b.IsValid() {
		return PageFrame{}, fmt.Errorf("page box %v has no area", box)
	}
	rotate %= 360
	if rotate < 0 {
		rotate += 360
	}
	if rotate%90 != 0 {
		return PageFrame{}, fmt.Errorf("rotation %d is not a multiple of 90", rotate)
	}
	return PageFrame{Box: b, Rotate: rotate}, nil
}

func (f PageFrame) sideways() bool { return f.Rotate == 90 || f.Rotate == 270 }

// Width returns the displayed page width in points
func (f PageFrame) Width() float64 {
	if f.sideways() {
		return f.Box.Height
	}
	return f.Box.Width
}

// Height returns the displayed page height in points
func (f PageFrame) Height() float64 {
	if f.sideways() {
		return f.Box.Width
	}
	return f.Box.Height
}

// Matrix maps user space into display space. Content drawn through it
// comes out upright whatever the page rotation.
func (f PageFrame) Matrix() Matrix {
	w, h := f.Box.Width, f.Box.Height
	var rot Matrix
	switch f.Rotate {
	case 90:
		rot = Matrix{0, -1, 1, 0, 0, w}
	case 180:
		rot = Matrix{-1, 0, 0, -1, w, h}
	case 270:
		rot = Matrix{0, 1, -1, 0, h, 0}
	default:
		rot = Identity()
	}
	return Translate(-f.Box.X, -f.Box.Y).Multiply(rot)
}

// ToRect converts a display space box into top-down page space.
func (f PageFrame) ToRect(b BBox) Rect {
	return RectFromBBox(b, f.Height())
}
