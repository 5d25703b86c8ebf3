package reconstruct

import (
	"math"

	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/scan"
)

// Config holds the tuning constants of the density scan. They are
// empirical defaults, not derived values.
type Config struct {
	StripeHeight     float64 // points per stripe
	Threshold        float64 // stripe score that counts as figure content
	TextWeight       float64 // weight of text density against drawing density
	NoiseStripes     int     // low stripes tolerated inside a figure
	NarrowRatio      float64 // figure narrower than this share of the caption is widened
	SideMargin       float64 // left and right inset of a widened figure
	EdgeMargin       float64 // padding added around the region
	CaptionClearance float64 // minimum distance between region and caption
	BandSlack        float64 // drawings may end this far below the band

	// MinLineWeight is the thickness given to hairlines and rules when
	// measuring drawing area. Zero, the default, leaves a rule with no area.
	MinLineWeight float64
}

// DefaultConfig returns the constants used by the pipeline
func DefaultConfig() Config {
	return Config{
		StripeHeight:     10,
		Threshold:        0.1,
		TextWeight:       0.5,
		NoiseStripes:     2,
		NarrowRatio:      0.6,
		SideMargin:       70,
		EdgeMargin:       5,
		CaptionClearance: 5,
		BandSlack:        20,
	}
}

// TextBox is a text block reduced to what the density scan needs
type TextBox struct {
	Rect  model.Rect
	Chars int
}

// PageGeometry is the drawable content of one page in top-down space
type PageGeometry struct {
	Width    float64
	Height   float64
	Drawings []model.Rect
	Texts    []TextBox
}

// FromPage extracts the geometry of a scanned page
func FromPage(pc *scan.PageContent) PageGeometry {
	g := PageGeometry{
		Width:    pc.Width,
		Height:   pc.Height,
		Drawings: pc.Drawings,
	}
	for _, tb := range pc.TextBlocks() {
		g.Texts = append(g.Texts, TextBox{Rect: tb.Rect, Chars: tb.CharCount})
	}
	return g
}

// Reconstructor finds figure regions above captions
type Reconstructor struct {
	config Config
}

// New creates a reconstructor. A non-positive StripeHeight and negative
// values of the other fields take their defaults.
func New(config Config) *Reconstructor {
	def := DefaultConfig()
	if config.StripeHeight <= 0 {
		config.StripeHeight = def.StripeHeight
	}
	if config.Threshold < 0 {
		config.Threshold = def.Threshold
	}
	if config.TextWeight < 0 {
		config.TextWeight = def.TextWeight
	}
	if config.NoiseStripes < 0 {
		config.NoiseStripes = def.NoiseStripes
	}
	if config.NarrowRatio < 0 {
		config.NarrowRatio = def.NarrowRatio
	}
	if config.MinLineWeight < 0 {
		config.MinLineWeight = 0
	}
	return &Reconstructor{config: config}
}

// Region returns the inferred region of the figure whose caption occupies
// caption. It reports false when nothing is drawn above the caption or the
// result has no area.
func (rc *Reconstructor) Region(page PageGeometry, caption model.Rect) (model.Rect, bool) {
	cfg := rc.config
	captionTop := caption.Y0

	var drawings []model.Rect
	for _, d := range page.Drawings {
		if d.Y1 < captionTop {
			drawings = append(drawings, d)
		}
	}
	if len(drawings) == 0 {
		return model.Rect{}, false
	}
	var texts []TextBox
	for _, t := range page.Texts {
		if t.Rect.Y1 < captionTop {
			texts = append(texts, t)
		}
	}

	// the window ends at the bottom of the drawing closest to the caption
	scanBottom := 0.0
	for _, d := range drawings {
		scanBottom = math.Max(scanBottom, d.Y1)
	}
	if scanBottom <= 0 {
		scanBottom = captionTop
	}

	scores := rc.profile(drawings, texts, scanBottom)
	bottom := -1
	for i := len(scores) - 1; i >= 0; i-- {
		if scores[i] > cfg.Threshold {
			bottom = i
			break
		}
	}

	var region model.Rect
	if bottom < 0 {
		region = union(drawings).Expand(cfg.EdgeMargin)
	} else {
		top := rc.extendUp(scores, bottom)
		bandTop := float64(top) * cfg.StripeHeight
		bandBottom := float64(bottom+1) * cfg.StripeHeight

		var inBand []model.Rect
		for _, d := range drawings {
			if d.Y0 >= bandTop && d.Y1 <= bandBottom+cfg.BandSlack {
				inBand = append(inBand, d)
			}
		}
		if len(inBand) == 0 {
			inBand = drawings
		}
		bounds := union(inBand)
		minX, maxX := bounds.X0, bounds.X1
		if maxX-minX < caption.Width()*cfg.NarrowRatio {
			minX, maxX = cfg.SideMargin, page.Width-cfg.SideMargin
		}
		region = model.Rect{
			X0: minX - cfg.EdgeMargin,
			Y0: bandTop - cfg.EdgeMargin,
			X1: maxX + cfg.EdgeMargin,
			Y1: bandBottom + cfg.EdgeMargin,
		}
	}

	region.Y1 = math.Min(region.Y1, captionTop-cfg.CaptionClearance)
	region = region.Clip(page.Width, page.Height)
	if region.IsEmpty() {
		return model.Rect{}, false
	}
	return region, true
}

// profile returns the score of every stripe between the page top and
// scanBottom
func (rc *Reconstructor) profile(drawings []model.Rect, texts []TextBox, scanBottom float64) []float64 {
	cfg := rc.config
	n := int(scanBottom/cfg.StripeHeight) + 1
	drawing := make([]float64, n)
	text := make([]float64, n)

	span := func(y0, y1 float64) (int, int) {
		first := clampIndex(int(y0/cfg.StripeHeight), n)
		last := clampIndex(int(y1/cfg.StripeHeight), n)
		return first, last
	}

	for _, d := range drawings {
		if d.Y1 > scanBottom || d.Y0 < 0 {
			continue
		}
		area := math.Max(d.Width(), cfg.MinLineWeight) * math.Max(d.Height(), cfg.MinLineWeight)
		first, last := span(d.Y0, d.Y1)
		for i := first; i <= last; i++ {
			drawing[i] += area
		}
	}
	for _, t := range texts {
		if t.Rect.Y1 > scanBottom || t.Rect.Y0 < 0 {
			continue
		}
		first, last := span(t.Rect.Y0, t.Rect.Y1)
		for i := first; i <= last; i++ {
			text[i] += float64(t.Chars)
		}
	}

	normalize(drawing)
	normalize(text)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = drawing[i] - cfg.TextWeight*text[i]
	}
	return scores
}

// extendUp walks from the bottom stripe toward the page top and returns the
// topmost stripe of the figure. The walk stops at the first run of more
// than NoiseStripes low stripes.
func (rc *Reconstructor) extendUp(scores []float64, bottom int) int {
	cfg := rc.config
	top := bottom
	for i := bottom - 1; i >= 0; i-- {
		if scores[i] > cfg.Threshold {
			top = i
			continue
		}
		if i > cfg.NoiseStripes && rc.lowRun(scores, i-cfg.NoiseStripes, i) {
			break
		}
	}
	return top
}

func (rc *Reconstructor) lowRun(scores []float64, from, to int) bool {
	for j := from; j <= to; j++ {
		if scores[j] > rc.config.Threshold {
			return false
		}
	}
	return true
}

func normalize(values []float64) {
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return
	}
	for i := range values {
		values[i] /= peak
	}
}

func union(rects []model.Rect) model.Rect {
	out := rects[0]
	for _, r := range rects[1:] {
		out.X0 = math.Min(out.X0, r.X0)
		out.Y0 = math.Min(out.Y0, r.Y0)
		out.X1 = math.Max(out.X1, r.X1)
		out.Y1 = math.Max(out.Y1, r.Y1)
	}
	return out
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}
