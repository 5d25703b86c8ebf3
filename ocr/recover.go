package ocr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/render"
)

// DefaultDPI is the resolution pages are rendered at before recognition
const DefaultDPI = 200

// Recognizer turns an encoded image into text. *Client implements it.
type Recognizer interface {
	RecognizeImage(imageData []byte) (string, error)
}

// PageSizer reports the visible size of a page in points
type PageSizer interface {
	PageSize(page int) (width, height float64, err error)
}

// PageRecoverer renders whole pages and runs them through a Recognizer
type PageRecoverer struct {
	renderer   render.Renderer
	sizes      PageSizer
	recognizer Recognizer
	dpi        float64
}

// NewPageRecoverer creates a recoverer. A non-positive dpi uses DefaultDPI.
func NewPageRecoverer(renderer render.Renderer, sizes PageSizer, recognizer Recognizer, dpi float64) *PageRecoverer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PageRecoverer{renderer: renderer, sizes: sizes, recognizer: recognizer, dpi: dpi}
}

// RecoverText returns the recognized text of a page (1-indexed)
func (p *PageRecoverer) RecoverText(page int) (string, error) {
	w, h, err := p.sizes.PageSize(page)
	if err != nil {
		return "", err
	}
	img, err := p.renderer.Render(page, model.Rect{X1: w, Y1: h}, p.dpi)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", page, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page %d: %w", page, err)
	}
	text, err := p.recognizer.RecognizeImage(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %w", page, err)
	}
	return text, nil
}
