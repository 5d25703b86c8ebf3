// Package appendix finds the page where the references or appendix of a
// paper begin, so that figures from that page on can be dropped.
package appendix

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/figharvest/figharvest/model"
)

// DefaultMarkers start a references or appendix section. Matching is
// case-insensitive.
var DefaultMarkers = []string{
	"References", "Bibliography", "Appendix", "Appendices",
	"Literatur", "Anhang",
	"Références", "Bibliographie", "Annexe",
	"Referencias", "Bibliografía", "Apéndice",
	"参考文献", "附录", "付録",
}

// TextRecoverer produces text for pages whose text layer is empty, such as
// scanned pages.
type TextRecoverer interface {
	RecoverText(page int) (string, error)
}

// Detector finds the appendix boundary of a document
type Detector struct {
	scanFraction float64
	prefixRunes  int
	markers      []string
	recoverer    TextRecoverer
	logger       zerolog.Logger
	fold         cases.Caser
}

// Option configures a Detector
type Option func(*Detector)

// WithScanFraction sets the trailing share of pages that is searched
func WithScanFraction(f float64) Option {
	return func(d *Detector) {
		if f > 0 && f <= 1 {
			d.scanFraction = f
		}
	}
}

// WithPrefixRunes sets how much of each page's leading text is searched
func WithPrefixRunes(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.prefixRunes = n
		}
	}
}

// WithMarkers replaces the marker list
func WithMarkers(markers ...string) Option {
	return func(d *Detector) { d.markers = markers }
}

// WithRecoverer sets the fallback for pages without a text layer
func WithRecoverer(r TextRecoverer) Option {
	return func(d *Detector) { d.recoverer = r }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// New creates a detector that searches the first 500 runes of the trailing
// 30% of pages
func New(opts ...Option) *Detector {
	d := &Detector{
		scanFraction: 0.3,
		prefixRunes:  500,
		markers:      DefaultMarkers,
		logger:       zerolog.Nop(),
		fold:         cases.Fold(),
	}
	for _, opt := range opts {
		opt(d)
	}
	folded := make([]string, 0, len(d.markers))
	for _, m := range d.markers {
		if m = d.normalize(m); m != "" {
			folded = append(folded, m)
		}
	}
	d.markers = folded
	return d
}

// FirstPage returns the first page (1-indexed) searched in a document of
// total pages
func (d *Detector) FirstPage(total int) int {
	// the epsilon keeps 20*0.7 from landing just below 14
	return int(math.Floor(float64(total)*(1-d.scanFraction)+1e-9)) + 1
}

// Boundary returns the first page whose leading text contains a marker.
// pageText is called with 1-indexed page numbers. Pages whose text cannot be
// read are skipped.
func (d *Detector) Boundary(total int, pageText func(page int) (string, error)) (int, bool) {
	for page := d.FirstPage(total); page <= total; page++ {
		text, err := pageText(page)
		if err != nil {
			d.logger.Debug().Int("page", page).Err(err).Msg("page text unavailable")
			continue
		}
		if strings.TrimSpace(text) == "" && d.recoverer != nil {
			text, err = d.recoverer.RecoverText(page)
			if err != nil {
				d.logger.Debug().Int("page", page).Err(err).Msg("text recovery failed")
				continue
			}
		}
		if d.HasMarker(text) {
			d.logger.Info().Int("page", page).Msg("appendix boundary found")
			return page, true
		}
	}
	return 0, false
}

// HasMarker reports whether the leading text of a page contains a marker
func (d *Detector) HasMarker(text string) bool {
	prefix := d.normalize(leadingRunes(text, d.prefixRunes))
	for _, m := range d.markers {
		if strings.Contains(prefix, m) {
			return true
		}
	}
	return false
}

func (d *Detector) normalize(s string) string {
	return d.fold.String(norm.NFC.String(s))
}

func leadingRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Filter splits regions into those before the boundary page and those on or
// after it. A boundary below 1 keeps everything.
func Filter(regions []model.FigureRegion, boundary int) (kept, dropped []model.FigureRegion) {
	if boundary < 1 {
		return regions, nil
	}
	for _, r := range regions {
		if r.Page >= boundary {
			dropped = append(dropped, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
