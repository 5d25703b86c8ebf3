package model

import (
	"math"
	"testing"
)

func TestBoundsOf(t *testing.T) {
	got := BoundsOf(Point{X: 5, Y: 1}, Point{X: -2, Y: 7}, Point{X: 3, Y: 3})
	if got != (BBox{X: -2, Y: 1, Width: 7, Height: 6}) {
		t.Errorf("BoundsOf = %+v", got)
	}
	if BoundsOf() != (BBox{}) {
		t.Error("no points should give the zero box")
	}
	if b := NewBBoxFromPoints(Point{X: 10, Y: 10}, Point{X: 0, Y: 0}); b != (BBox{Width: 10, Height: 10}) {
		t.Errorf("NewBBoxFromPoints = %+v", b)
	}
}

func TestBBox(t *testing.T) {
	b := NewBBox(10, 20, 30, 40)
	if b.Right() != 40 || b.Top() != 60 || b.Area() != 1200 {
		t.Errorf("edges: right %v top %v area %v", b.Right(), b.Top(), b.Area())
	}
	if b.IsEmpty() || !b.IsValid() {
		t.Error("box with area reported empty")
	}
	if !NewBBox(0, 0, 10, 0).IsEmpty() {
		t.Error("flat box should be empty")
	}

	tests := []struct {
		other BBox
		want  BBox
	}{
		{NewBBox(30, 50, 100, 100), NewBBox(30, 50, 10, 10)},
		{NewBBox(0, 0, 100, 100), b},
		{NewBBox(100, 100, 5, 5), BBox{}},
	}
	for _, tt := range tests {
		if got := b.Intersection(tt.other); got != tt.want {
			t.Errorf("Intersection(%+v) = %+v, want %+v", tt.other, got, tt.want)
		}
	}
}

func TestMatrix(t *testing.T) {
	p := Point{X: 1, Y: 2}

	if got := Translate(10, 20).Transform(p); got != (Point{X: 11, Y: 22}) {
		t.Errorf("Translate = %+v", got)
	}
	if got := Scale(2, 3).Transform(p); got != (Point{X: 2, Y: 6}) {
		t.Errorf("Scale = %+v", got)
	}
	r := Rotate(math.Pi / 2).Transform(p)
	if math.Abs(r.X+2) > 1e-12 || math.Abs(r.Y-1) > 1e-12 {
		t.Errorf("Rotate = %+v, want (-2, 1)", r)
	}

	// scale first, then translate
	m := Scale(2, 2).Multiply(Translate(5, 0))
	if got := m.Transform(p); got != (Point{X: 7, Y: 4}) {
		t.Errorf("Multiply order: %+v", got)
	}
	if !Identity().IsIdentity() || m.IsIdentity() {
		t.Error("IsIdentity")
	}
	if Translate(3, 4).Multiply(Identity()) != Translate(3, 4) {
		t.Error("identity should be neutral")
	}
}
