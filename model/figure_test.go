package model

import (
	"errors"
	"testing"
)

func TestRect_Geometry(t *testing.T) {
	r := NewRect(300, 200, 100, 50)
	if r != (Rect{X0: 100, Y0: 50, X1: 300, Y1: 200}) {
		t.Fatalf("NewRect did not normalize: %+v", r)
	}
	if r.Width() != 200 || r.Height() != 150 || r.Area() != 30000 {
		t.Errorf("size = %vx%v area %v", r.Width(), r.Height(), r.Area())
	}

	o := Rect{X0: 250, Y0: 100, X1: 400, Y1: 300}
	if !r.Intersects(o) {
		t.Error("expected overlap")
	}
	if got := r.Intersect(o); got != (Rect{X0: 250, Y0: 100, X1: 300, Y1: 200}) {
		t.Errorf("Intersect = %+v", got)
	}
	if got := r.Union(o); got != (Rect{X0: 100, Y0: 50, X1: 400, Y1: 300}) {
		t.Errorf("Union = %+v", got)
	}
	if got := r.HorizontalOverlap(o); got != 50 {
		t.Errorf("HorizontalOverlap = %v", got)
	}
	if got := r.Intersect(Rect{X0: 500, Y0: 500, X1: 600, Y1: 600}); got != (Rect{}) {
		t.Errorf("disjoint Intersect = %+v", got)
	}
	if got := (Rect{}).Union(o); got != o {
		t.Errorf("Union with empty = %+v", got)
	}
}

func TestRect_ClipAndClamp(t *testing.T) {
	rule := Rect{X0: -10, Y0: 100, X1: 700, Y1: 100}
	if !rule.Clip(612, 792).IsEmpty() {
		t.Error("Clip should drop a zero-height rule")
	}
	if got := rule.Clamp(612, 792); got != (Rect{X0: 0, Y0: 100, X1: 612, Y1: 100}) {
		t.Errorf("Clamp = %+v", got)
	}
	if got := (Rect{X0: 10, Y0: 20, X1: 30, Y1: 40}).Scale(2); got != (Rect{X0: 20, Y0: 40, X1: 60, Y1: 80}) {
		t.Errorf("Scale = %+v", got)
	}
	if (Rect{X0: 5, Y0: 5, X1: 5, Y1: 10}).Area() != 0 {
		t.Error("degenerate rect should have zero area")
	}
}

func TestPageFrame(t *testing.T) {
	f, err := NewPageFrame([]float64{100, 100, 500, 700}, 0)
	if err != nil {
		t.Fatalf("NewPageFrame: %v", err)
	}
	if f.Width() != 400 || f.Height() != 600 {
		t.Errorf("frame size = %vx%v", f.Width(), f.Height())
	}
	// a box 10pt above the crop box bottom-left corner
	p := f.Matrix().Transform(Point{X: 110, Y: 110})
	got := f.ToRect(BBox{X: p.X, Y: p.Y, Width: 50, Height: 20})
	if got != (Rect{X0: 10, Y0: 570, X1: 60, Y1: 590}) {
		t.Errorf("ToRect = %+v", got)
	}

	if _, err := NewPageFrame([]float64{0, 0, 612}, 0); err == nil {
		t.Error("expected error for short box")
	}
	if _, err := NewPageFrame([]float64{0, 0, 0, 792}, 0); err == nil {
		t.Error("expected error for zero-width box")
	}
	if _, err := NewPageFrame([]float64{0, 0, 612, 792}, 45); err == nil {
		t.Error("expected error for a rotation that is not a right angle")
	}
}

func TestPageFrame_Rotation(t *testing.T) {
	// the bottom-left corner of a 200x100 crop box, as seen after rotation
	tests := []struct {
		rotate        int
		width, height float64
		corner        Point
	}{
		{0, 200, 100, Point{X: 0, Y: 0}},
		{90, 100, 200, Point{X: 0, Y: 200}},
		{180, 200, 100, Point{X: 200, Y: 100}},
		{-90, 100, 200, Point{X: 100, Y: 0}},
	}
	for _, tt := range tests {
		f, err := NewPageFrame([]float64{10, 20, 210, 120}, tt.rotate)
		if err != nil {
			t.Fatalf("NewPageFrame(%d): %v", tt.rotate, err)
		}
		if f.Width() != tt.width || f.Height() != tt.height {
			t.Errorf("rotate %d: size %vx%v, want %vx%v", tt.rotate, f.Width(), f.Height(), tt.width, tt.height)
		}
		if got := f.Matrix().Transform(Point{X: 10, Y: 20}); got != tt.corner {
			t.Errorf("rotate %d: corner maps to %+v, want %+v", tt.rotate, got, tt.corner)
		}
	}
}

func TestFigureRegion_Validate(t *testing.T) {
	good := FigureRegion{
		Page:   2,
		BBox:   Rect{X0: 10, Y0: 10, X1: 100, Y1: 100},
		Raster: Raster{Data: []byte{1}, Format: "png", Width: 10, Height: 10},
	}
	if err := good.Validate(3); err != nil {
		t.Fatalf("valid region: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*FigureRegion)
		want   error
	}{
		{"page zero", func(r *FigureRegion) { r.Page = 0 }, ErrPageOutOfRange},
		{"page past end", func(r *FigureRegion) { r.Page = 4 }, ErrPageOutOfRange},
		{"empty bbox", func(r *FigureRegion) { r.BBox = Rect{X0: 10, Y0: 10, X1: 10, Y1: 50} }, ErrEmptyRegion},
		{"no raster bytes", func(r *FigureRegion) { r.Raster.Data = nil }, ErrNoRaster},
		{"zero raster width", func(r *FigureRegion) { r.Raster.Width = 0 }, ErrNoRaster},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good
			tt.mutate(&r)
			if err := r.Validate(3); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFigureRegion_Label(t *testing.T) {
	if got := (FigureRegion{FigType: FigTypeTable, FigName: "2"}).Label(); got != "Table2" {
		t.Errorf("Label = %q", got)
	}
	if got := (FigureRegion{FigType: FigTypeFigure}).Label(); got != "" {
		t.Errorf("unnamed Label = %q", got)
	}
}

func TestEnumStrings(t *testing.T) {
	if ParseFigType("table") != FigTypeTable || ParseFigType("Chart") != FigTypeFigure {
		t.Error("ParseFigType mapping")
	}
	sources := map[Source]string{
		SourceLocalized:     "localized",
		SourceReconstructed: "reconstructed",
		SourceRawHeuristic:  "raw_heuristic",
		Source(9):           "unknown",
	}
	for s, want := range sources {
		if s.String() != want {
			t.Errorf("Source(%d) = %q, want %q", s, s.String(), want)
		}
	}
	text, _ := FigTypeTable.MarshalText()
	if string(text) != "Table" {
		t.Errorf("MarshalText = %q", text)
	}
}

func TestImageBlock_HasPixels(t *testing.T) {
	if (&ImageBlock{}).HasPixels() {
		t.Error("empty block should have no pixels")
	}
	if !(&ImageBlock{Encoded: []byte{0xFF}}).HasPixels() {
		t.Error("encoded bytes count as pixels")
	}
	var b PageBlock = &TextBlock{Page: 3, Order: 7}
	if b.Kind() != BlockText || b.PageNumber() != 3 || b.Seq() != 7 {
		t.Errorf("TextBlock accessors: %v %d %d", b.Kind(), b.PageNumber(), b.Seq())
	}
}
