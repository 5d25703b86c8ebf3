package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/figharvest/figharvest/model"
)

var (
	// ErrPageOutOfRange is returned for page numbers outside the document
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrEmptyClip is returned when the clip rectangle covers no pixels
	ErrEmptyClip = errors.New("clip rectangle is empty")
)

// DefaultDPI matches the resolution of the figure localizer's renders
const DefaultDPI = 300

// Renderer produces a raster of a page region. Pages are 1-indexed and clip
// is in top-down page space, in points.
type Renderer interface {
	Render(page int, clip model.Rect, dpi float64) (image.Image, error)
	Close() error
}

// Fitz renders with MuPDF
type Fitz struct {
	doc   *fitz.Document
	pages int

	cachedPage int
	cachedDPI  float64
	cached     image.Image
}

// Open loads the document at path
func Open(path string) (*Fitz, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s for rendering: %w", path, err)
	}
	return &Fitz{doc: doc, pages: doc.NumPage()}, nil
}

// PageCount returns the number of pages MuPDF sees
func (f *Fitz) PageCount() int { return f.pages }

// Render rasterizes the clip region of a page at dpi
func (f *Fitz) Render(page int, clip model.Rect, dpi float64) (image.Image, error) {
	if page < 1 || page > f.pages {
		return nil, fmt.Errorf("render page %d of %d: %w", page, f.pages, ErrPageOutOfRange)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	if f.cached == nil || f.cachedPage != page || f.cachedDPI != dpi {
		img, err := f.doc.ImageDPI(page-1, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		f.cached, f.cachedPage, f.cachedDPI = img, page, dpi
	}
	return Crop(f.cached, clip, dpi/72)
}

// Close releases the document and the cached page
func (f *Fitz) Close() error {
	f.cached = nil
	if f.doc == nil {
		return nil
	}
	err := f.doc.Close()
	f.doc = nil
	return err
}

// Crop copies the part of img covered by clip, where clip is in points and
// scale converts points to pixels. The result does not share memory with
// img.
func Crop(img image.Image, clip model.Rect, scale float64) (image.Image, error) {
	px := image.Rect(
		int(math.Floor(clip.X0*scale)),
		int(math.Floor(clip.Y0*scale)),
		int(math.Ceil(clip.X1*scale)),
		int(math.Ceil(clip.Y1*scale)),
	).Add(img.Bounds().Min).Intersect(img.Bounds())
	if px.Empty() {
		return nil, fmt.Errorf("clip %+v: %w", clip, ErrEmptyClip)
	}

	out := image.NewRGBA(image.Rect(0, 0, px.Dx(), px.Dy()))
	draw.Draw(out, out.Bounds(), img, px.Min, draw.Src)
	return out, nil
}
