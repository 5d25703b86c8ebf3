package colorfix

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG for NormalizePNG inputs
	"image/png"
)

// Outcome is the result of normalizing one image
type Outcome int

const (
	// Unchanged means the image did not look inverted
	Unchanged Outcome = iota
	// Inverted means the image was inverted and the result validated
	Inverted
	// Rejected means the image looked inverted but the inverted result did
	// not validate; the original is kept
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Inverted:
		return "inverted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Config holds the sampling thresholds
type Config struct {
	DarkThreshold  uint8 // every channel below this is dark
	LightThreshold uint8 // every channel above this is light
	MinCorners     int   // corners that must agree, out of 4
	MaxPatch       int   // largest corner patch side in pixels
}

// DefaultConfig returns the thresholds used by the pipeline
func DefaultConfig() Config {
	return Config{
		DarkThreshold:  40,
		LightThreshold: 215,
		MinCorners:     3,
		MaxPatch:       8,
	}
}

// Normalizer inverts images that are effectively solid black
type Normalizer struct {
	cfg Config
}

// New creates a normalizer. Zero fields of cfg take their defaults.
func New(cfg Config) *Normalizer {
	def := DefaultConfig()
	if cfg.DarkThreshold == 0 {
		cfg.DarkThreshold = def.DarkThreshold
	}
	if cfg.LightThreshold == 0 {
		cfg.LightThreshold = def.LightThreshold
	}
	if cfg.MinCorners <= 0 || cfg.MinCorners > 4 {
		cfg.MinCorners = def.MinCorners
	}
	if cfg.MaxPatch <= 0 {
		cfg.MaxPatch = def.MaxPatch
	}
	return &Normalizer{cfg: cfg}
}

// Normalize returns the repaired image and what was done. For Unchanged
// and Rejected the input image is returned as is.
func (n *Normalizer) Normalize(img image.Image) (image.Image, Outcome) {
	b := img.Bounds()
	if b.Empty() {
		return img, Unchanged
	}

	dark := 0
	for _, c := range n.corners(img) {
		if c.below(n.cfg.DarkThreshold) {
			dark++
		}
	}
	if dark < n.cfg.MinCorners {
		return img, Unchanged
	}

	inverted := invert(img)
	light := 0
	for _, c := range n.corners(inverted) {
		if c.above(n.cfg.LightThreshold) {
			light++
		}
	}
	if light < n.cfg.MinCorners {
		return img, Rejected
	}
	return inverted, Inverted
}

// NormalizePNG decodes data (PNG or JPEG), normalizes it and returns PNG
// bytes. Unless the image was inverted the input bytes are returned.
func (n *Normalizer) NormalizePNG(data []byte) ([]byte, Outcome, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Unchanged, fmt.Errorf("decode image: %w", err)
	}
	fixed, outcome := n.Normalize(img)
	if outcome != Inverted {
		return data, outcome, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, fixed); err != nil {
		return nil, outcome, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), outcome, nil
}

// mean is the average color of a patch composited over white
type mean struct{ r, g, b float64 }

func (m mean) below(t uint8) bool {
	v := float64(t)
	return m.r < v && m.g < v && m.b < v
}

func (m mean) above(t uint8) bool {
	v := float64(t)
	return m.r > v && m.g > v && m.b > v
}

// patchSize is min(w,h)/20 bounded to [1, MaxPatch]
func (n *Normalizer) patchSize(b image.Rectangle) int {
	size := min(b.Dx(), b.Dy()) / 20
	return max(1, min(size, n.cfg.MaxPatch))
}

// corners samples the top-left, top-right, bottom-left and bottom-right
// patches
func (n *Normalizer) corners(img image.Image) [4]mean {
	b := img.Bounds()
	s := n.patchSize(b)
	return [4]mean{
		patchMean(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+s, b.Min.Y+s)),
		patchMean(img, image.Rect(b.Max.X-s, b.Min.Y, b.Max.X, b.Min.Y+s)),
		patchMean(img, image.Rect(b.Min.X, b.Max.Y-s, b.Min.X+s, b.Max.Y)),
		patchMean(img, image.Rect(b.Max.X-s, b.Max.Y-s, b.Max.X, b.Max.Y)),
	}
}

func patchMean(img image.Image, r image.Rectangle) mean {
	r = r.Intersect(img.Bounds())
	var m mean
	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := overWhite(img.At(x, y))
			m.r += float64(c.R)
			m.g += float64(c.G)
			m.b += float64(c.B)
			count++
		}
	}
	if count > 0 {
		m.r /= float64(count)
		m.g /= float64(count)
		m.b /= float64(count)
	}
	return m
}

// overWhite composites c over an opaque white page
func overWhite(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA() // premultiplied, 16 bit
	blend := func(v uint32) uint8 {
		return uint8((v + (0xffff - a)) >> 8)
	}
	return color.RGBA{R: blend(r), G: blend(g), B: blend(b), A: 0xff}
}

// invert returns an opaque copy of img composited over white with every
// channel inverted
func invert(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := overWhite(img.At(x, y))
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: 0xff})
		}
	}
	return out
}
