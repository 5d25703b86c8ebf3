package ranking

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/figharvest/figharvest/model"
)

// MaxScore is the upper bound of every score
const MaxScore = 10.0

// Keyword is a caption term and the weight it adds
type Keyword struct {
	Word   string
	Weight float64
}

// DefaultLexicon weights caption terms by how often they mark a paper's key
// figures.
var DefaultLexicon = []Keyword{
	{"architecture", 3.0},
	{"framework", 3.0},
	{"model", 2.8},
	{"system", 2.8},
	{"pipeline", 2.8},
	{"workflow", 2.8},
	{"method", 2.5},
	{"approach", 2.5},
	{"algorithm", 2.5},
	{"mechanism", 2.5},
	{"design", 2.3},
	{"result", 2.0},
	{"comparison", 2.0},
	{"performance", 2.0},
	{"experiment", 2.0},
	{"evaluation", 2.0},
	{"metrics", 1.8},
	{"process", 1.5},
	{"step", 1.3},
	{"example", 1.2},
	{"case", 1.2},
	{"chart", 0.8},
	{"graph", 0.8},
	{"table", 0.8},
	{"figure", 0.5},
}

// Config holds the scorer's lexicon
type Config struct {
	Lexicon []Keyword
}

// DefaultConfig returns the default lexicon
func DefaultConfig() Config {
	return Config{Lexicon: DefaultLexicon}
}

// Scorer computes importance scores
type Scorer struct {
	lexicon []Keyword
}

// NewScorer creates a scorer. An empty lexicon uses DefaultLexicon.
func NewScorer(config Config) *Scorer {
	lexicon := config.Lexicon
	if len(lexicon) == 0 {
		lexicon = DefaultLexicon
	}
	lower := make([]Keyword, len(lexicon))
	for i, kw := range lexicon {
		lower[i] = Keyword{Word: strings.ToLower(kw.Word), Weight: kw.Weight}
	}
	return &Scorer{lexicon: lower}
}

// Score returns the importance of r in a document of totalPages pages, in
// [0, MaxScore].
func (s *Scorer) Score(r model.FigureRegion, totalPages int) float64 {
	area := r.Raster.Area()
	caption := strings.ToLower(strings.TrimSpace(r.Caption))

	score := sizeScore(area) + s.captionScore(caption) + positionScore(r.Page, totalPages)
	if area < 100_000 && caption == "" {
		score *= 0.5
	}
	return math.Max(0, math.Min(score, MaxScore))
}

func sizeScore(area int) float64 {
	switch {
	case area > 1_000_000:
		return 3.0
	case area > 500_000:
		return 2.5
	case area > 300_000:
		return 1.5
	case area > 100_000:
		return 0.5
	default:
		return 0.1
	}
}

func (s *Scorer) captionScore(caption string) float64 {
	if caption == "" {
		return 0
	}
	score := 0.5
	best := 0.0
	for _, kw := range s.lexicon {
		if kw.Weight > best && strings.Contains(caption, kw.Word) {
			best = kw.Weight
		}
	}
	score += best

	switch n := utf8.RuneCountInString(caption); {
	case n > 60:
		score += 1.0
	case n > 40:
		score += 0.7
	case n > 20:
		score += 0.3
	}
	return score
}

func positionScore(page, totalPages int) float64 {
	if totalPages <= 0 {
		return 0
	}
	p, total := float64(page), float64(totalPages)
	switch {
	case p <= total*0.2:
		return 1.5
	case p <= total*0.35:
		return 1.0
	case p <= total*0.6:
		return 0.5
	default:
		return 0
	}
}
