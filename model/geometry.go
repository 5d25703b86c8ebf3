package model

import "math"

// Point is a position in user, device or display space
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned box in a bottom-up space: (X, Y) is its
// bottom-left corner.
type BBox struct {
	X, Y          float64
	Width, Height float64
}

// NewBBox creates a box from its bottom-left corner and size
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromPoints returns the box spanned by two opposite corners
func NewBBoxFromPoints(p1, p2 Point) BBox {
	return BoundsOf(p1, p2)
}

// BoundsOf returns the smallest box containing every point. It is the zero
// box when no point is given.
func BoundsOf(points ...Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
		lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
	}
	return BBox{X: lo.X, Y: lo.Y, Width: hi.X - lo.X, Height: hi.Y - lo.Y}
}

// Right returns the X coordinate of the right edge
func (b BBox) Right() float64 { return b.X + b.Width }

// Top returns the Y coordinate of the top edge
func (b BBox) Top() float64 { return b.Y + b.Height }

// Area returns the box area
func (b BBox) Area() float64 { return b.Width * b.Height }

// IsEmpty reports whether the box has no area
func (b BBox) IsEmpty() bool { return b.Width <= 0 || b.Height <= 0 }

// IsValid reports whether the box has positive width and height
func (b BBox) IsValid() bool { return !b.IsEmpty() }

// Intersection returns the overlap of two boxes, or the zero box when they
// are disjoint.
func (b BBox) Intersection(o BBox) BBox {
	x0, y0 := math.Max(b.X, o.X), math.Max(b.Y, o.Y)
	x1, y1 := math.Min(b.Right(), o.Right()), math.Min(b.Top(), o.Top())
	if x1 < x0 || y1 < y0 {
		return BBox{}
	}
	return BBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Matrix is a PDF transformation matrix [a b c d e f]. Points are row
// vectors, so m.Multiply(n) applies m first and then n.
type Matrix [6]float64

// Identity returns the identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation by (tx, ty)
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scaling by sx and sy
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a counterclockwise rotation by angle radians
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Transform maps p through m
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns m × o
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// IsIdentity reports whether m is exactly the identity
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}
