package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/figharvest/figharvest/internal/pdftest"
	"github.com/figharvest/figharvest/model"
)

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	src := checkerboard(100, 100)

	tests := []struct {
		name  string
		clip  model.Rect
		scale float64
		w, h  int
	}{
		{"points at 72 dpi", model.Rect{X0: 10, Y0: 20, X1: 30, Y1: 60}, 1, 20, 40},
		{"scaled", model.Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}, 2, 20, 20},
		{"fractional edges round outward", model.Rect{X0: 10.5, Y0: 10.5, X1: 20.2, Y1: 20.2}, 1, 11, 11},
		{"clipped to image", model.Rect{X0: 90, Y0: 90, X1: 200, Y1: 200}, 1, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Crop(src, tt.clip, tt.scale)
			if err != nil {
				t.Fatalf("Crop: %v", err)
			}
			b := out.Bounds()
			if b.Min != (image.Point{}) || b.Dx() != tt.w || b.Dy() != tt.h {
				t.Errorf("bounds = %v, want %dx%d at origin", b, tt.w, tt.h)
			}
		})
	}
}

func TestCrop_CopiesPixels(t *testing.T) {
	src := checkerboard(10, 10)
	out, err := Crop(src, model.Rect{X0: 1, Y0: 0, X1: 3, Y1: 1}, 1)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	// (1,0) is black in the source and lands at (0,0)
	if r, _, _, _ := out.At(0, 0).RGBA(); r != 0 {
		t.Errorf("expected black at origin, got %v", out.At(0, 0))
	}
	src.Set(1, 0, color.White)
	if r, _, _, _ := out.At(0, 0).RGBA(); r != 0 {
		t.Error("crop shares memory with its source")
	}
}

func TestCrop_Empty(t *testing.T) {
	src := checkerboard(10, 10)
	for _, clip := range []model.Rect{
		{X0: 50, Y0: 50, X1: 60, Y1: 60},
		{X0: 5, Y0: 5, X1: 5, Y1: 8},
	} {
		if _, err := Crop(src, clip, 1); !errors.Is(err, ErrEmptyClip) {
			t.Errorf("clip %+v: expected ErrEmptyClip, got %v", clip, err)
		}
	}
}

func TestFitz_Render(t *testing.T) {
	b := pdftest.New()
	path := pdftest.WriteFile(t, b.Document(
		pdftest.Page{Width: 200, Height: 100, Content: pdftest.Rect(0, 0, 100, 50)},
	))

	f, err := Open(path)
	if err != nil {
		t.Skipf("MuPDF unavailable: %v", err)
	}
	defer f.Close()

	if f.PageCount() != 1 {
		t.Fatalf("PageCount = %d", f.PageCount())
	}

	img, err := f.Render(1, model.Rect{X0: 0, Y0: 50, X1: 100, Y1: 100}, 144)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("bounds = %v, want 200x100 at 144 dpi", img.Bounds())
	}
	// the filled rectangle covers the bottom-left quarter
	if r, _, _, _ := img.At(100, 50).RGBA(); r>>8 > 64 {
		t.Errorf("expected dark fill, got %v", img.At(100, 50))
	}

	if _, err := f.Render(2, model.Rect{X1: 10, Y1: 10}, 72); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("expected ErrPageOutOfRange, got %v", err)
	}
}
