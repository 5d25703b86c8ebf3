package caption

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/figharvest/figharvest/model"
)

// DefaultKeywords mark a text block as a figure or table caption.
var DefaultKeywords = []string{"figure", "fig.", "table", "图", "表", "图表"}

// Config holds the association thresholds
type Config struct {
	// MaxGap is the largest vertical distance in points between the image
	// bottom and the caption top (exclusive)
	MaxGap float64

	// MinOverlap is the smallest horizontal overlap as a fraction of the
	// image width
	MinOverlap float64

	// Keywords are matched case-insensitively after NFKC normalization
	Keywords []string
}

// DefaultConfig returns the thresholds used by the raw extraction path
func DefaultConfig() Config {
	return Config{
		MaxGap:     50,
		MinOverlap: 0.5,
		Keywords:   DefaultKeywords,
	}
}

// Match is the caption chosen for an image
type Match struct {
	Text    string  // trimmed block text
	Gap     float64 // caption top minus image bottom
	Overlap float64 // shared width over image width
	Block   *model.TextBlock
}

// Associator finds captions for images on the same page
type Associator struct {
	config   Config
	keywords []string
	fold     cases.Caser
}

// NewAssociator creates an associator. A nil keyword list uses
// DefaultKeywords.
func NewAssociator(config Config) *Associator {
	if config.Keywords == nil {
		config.Keywords = DefaultKeywords
	}
	a := &Associator{config: config, fold: cases.Fold()}
	for _, kw := range config.Keywords {
		if kw = a.normalize(kw); kw != "" {
			a.keywords = append(a.keywords, kw)
		}
	}
	return a
}

// Find returns the caption of the image at img among the page's text
// blocks. Candidates must satisfy every threshold; the smallest gap wins and
// ties go to the earlier block.
func (a *Associator) Find(img model.Rect, texts []*model.TextBlock) (Match, bool) {
	width := img.Width()
	if width <= 0 {
		return Match{}, false
	}

	var best Match
	found := false
	for _, tb := range texts {
		if tb == nil {
			continue
		}
		gap := tb.Rect.Y0 - img.Y1
		if gap < 0 || gap >= a.config.MaxGap {
			continue
		}
		overlap := img.HorizontalOverlap(tb.Rect) / width
		if overlap < a.config.MinOverlap {
			continue
		}
		text := strings.TrimSpace(tb.Text)
		if !a.HasKeyword(text) {
			continue
		}
		if !found || gap < best.Gap {
			best = Match{Text: text, Gap: gap, Overlap: overlap, Block: tb}
			found = true
		}
	}
	return best, found
}

// HasKeyword reports whether text contains a caption keyword
func (a *Associator) HasKeyword(text string) bool {
	folded := a.normalize(text)
	for _, kw := range a.keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func (a *Associator) normalize(s string) string {
	return a.fold.String(norm.NFKC.String(strings.TrimSpace(s)))
}
