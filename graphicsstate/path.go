package graphicsstate

import (
	"math"

	"github.com/figharvest/figharvest/model"
)

// Path is the path under construction between the path operators and the
// painting operator that ends it. Only its extent is needed, so it keeps
// the points lines pass through and the control points of each curve.
type Path struct {
	points []model.Point
	curves [][4]model.Point // start, two control points, end

	current model.Point
	start   model.Point // of the current subpath
	started bool
}

// NewPath returns an empty path
func NewPath() *Path {
	return &Path{}
}

// MoveTo begins a subpath at (x, y) (m operator)
func (p *Path) MoveTo(x, y float64) {
	pt := model.Point{X: x, Y: y}
	p.points = append(p.points, pt)
	p.current, p.start, p.started = pt, pt, true
}

// LineTo adds a line to (x, y) (l operator). Without a current point it
// begins a subpath instead.
func (p *Path) LineTo(x, y float64) {
	if !p.started {
		p.MoveTo(x, y)
		return
	}
	p.current = model.Point{X: x, Y: y}
	p.points = append(p.points, p.current)
}

// CurveTo adds a cubic Bézier curve to (x3, y3) (c operator)
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !p.started {
		p.MoveTo(x1, y1)
	}
	end := model.Point{X: x3, Y: y3}
	p.curves = append(p.curves, [4]model.Point{p.current, {X: x1, Y: y1}, {X: x2, Y: y2}, end})
	p.current = end
}

// CurveToV adds a curve whose first control point is the current point
// (v operator). It is ignored without a current point.
func (p *Path) CurveToV(x2, y2, x3, y3 float64) {
	if p.started {
		p.CurveTo(p.current.X, p.current.Y, x2, y2, x3, y3)
	}
}

// CurveToY adds a curve whose second control point is its end point
// (y operator). It is ignored without a current point.
func (p *Path) CurveToY(x1, y1, x3, y3 float64) {
	if p.started {
		p.CurveTo(x1, y1, x3, y3, x3, y3)
	}
}

// ClosePath returns to the start of the current subpath (h operator)
func (p *Path) ClosePath() {
	if p.started {
		p.current = p.start
	}
}

// Rectangle adds a closed rectangular subpath (re operator)
func (p *Path) Rectangle(x, y, width, height float64) {
	p.MoveTo(x, y)
	p.LineTo(x+width, y)
	p.LineTo(x+width, y+height)
	p.LineTo(x, y+height)
	p.ClosePath()
}

// CurrentPoint returns the current point, if there is one
func (p *Path) CurrentPoint() (model.Point, bool) {
	return p.current, p.started
}

// Clear discards the path
func (p *Path) Clear() {
	p.points = p.points[:0]
	p.curves = p.curves[:0]
	p.started = false
}

// IsEmpty reports whether nothing has been added since the last Clear
func (p *Path) IsEmpty() bool {
	return len(p.points) == 0 && len(p.curves) == 0
}

// Bounds returns the box of the path mapped through m. Curves contribute
// their true extent, not the hull of their control points. ok is false for
// an empty path.
func (p *Path) Bounds(m model.Matrix) (bbox model.BBox, ok bool) {
	if p.IsEmpty() {
		return model.BBox{}, false
	}
	pts := make([]model.Point, 0, len(p.points)+4*len(p.curves))
	for _, pt := range p.points {
		pts = append(pts, m.Transform(pt))
	}
	for _, c := range p.curves {
		// an affine map of a Bézier curve is the curve of the mapped points
		var d [4]model.Point
		for i := range c {
			d[i] = m.Transform(c[i])
		}
		pts = append(pts, d[0], d[3])
		for _, t := range append(cubicExtrema(d[0].X, d[1].X, d[2].X, d[3].X), cubicExtrema(d[0].Y, d[1].Y, d[2].Y, d[3].Y)...) {
			pts = append(pts, model.Point{X: cubic(d[0].X, d[1].X, d[2].X, d[3].X, t), Y: cubic(d[0].Y, d[1].Y, d[2].Y, d[3].Y, t)})
		}
	}
	return model.BoundsOf(pts...), true
}

// cubic evaluates one coordinate of a Bézier curve at t
func cubic(p0, p1, p2, p3, t float64) float64 {
	mt := 1 - t
	return mt*mt*mt*p0 + 3*mt*mt*t*p1 + 3*mt*t*t*p2 + t*t*t*p3
}

// cubicExtrema returns the parameters in (0, 1) where one coordinate of a
// Bézier curve has zero derivative.
func cubicExtrema(p0, p1, p2, p3 float64) []float64 {
	a, b, c := p1-p0, p2-p1, p3-p2
	// B'(t)/3 = (a - 2b + c)t² + 2(b - a)t + a
	qa, qb, qc := a-2*b+c, 2*(b-a), a

	var roots []float64
	const eps = 1e-12
	if math.Abs(qa) < eps {
		if math.Abs(qb) > eps {
			roots = append(roots, -qc/qb)
		}
	} else if disc := qb*qb - 4*qa*qc; disc >= 0 {
		sq := math.Sqrt(disc)
		roots = append(roots, (-qb+sq)/(2*qa), (-qb-sq)/(2*qa))
	}

	out := roots[:0]
	for _, t := range roots {
		if t > 0 && t < 1 {
			out = append(out, t)
		}
	}
	return out
}
