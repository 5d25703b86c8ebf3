package ranking

import (
	"math"
	"testing"

	"github.com/figharvest/figharvest/model"
)

func region(page, w, h int, caption string) model.FigureRegion {
	return model.FigureRegion{
		Page:    page,
		Caption: caption,
		BBox:    model.Rect{X0: 72, Y0: 100, X1: 500, Y1: 400},
		Raster:  model.Raster{Width: w, Height: h, Format: "png"},
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tests := []struct {
		name   string
		region model.FigureRegion
		total  int
		want   float64
	}{
		{"small uncaptioned image late in the paper", region(10, 200, 200, ""), 10, 0.05},
		{"small uncaptioned image on page one", region(1, 200, 200, ""), 10, 0.8},
		{"captioned architecture figure", region(1, 1000, 1000, "Figure 1: Overall architecture of the proposed framework and training pipeline"), 10, 8.5},
		{"best keyword only", region(10, 400, 400, "Figure 2: results table"), 10, 0.5 + 0.5 + 2.0 + 0.3},
		{"huge image mid paper", region(5, 2000, 1000, ""), 10, 3.0 + 0.5},
		{"caption over 40 runes", region(7, 600, 600, "Table 3: timings for every dataset we used"), 10, 1.5 + 0.5 + 0.8 + 0.7},
		{"35 percent band", region(7, 100, 100, "x"), 20, (0.1 + 0.5 + 1.0)},
		{"no page count", region(1, 100, 100, "x"), 0, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.region, tt.total); !approx(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	s := NewScorer(Config{Lexicon: []Keyword{{"overview", 20}}})
	if got := s.Score(region(1, 2000, 2000, "Overview"), 10); got != MaxScore {
		t.Errorf("Score() = %v, want clamp to %v", got, MaxScore)
	}
	if got := NewScorer(Config{}).Score(model.FigureRegion{}, 0); got < 0 {
		t.Errorf("Score() = %v, want >= 0", got)
	}
}

func TestScore_MonotonicInSize(t *testing.T) {
	s := NewScorer(DefaultConfig())
	captions := []string{"", "Figure 4", "Figure 4: Comparison of methods on all benchmarks"}
	for _, c := range captions {
		for page := 1; page <= 12; page++ {
			big := s.Score(region(page, 1200, 1000, c), 12)
			small := s.Score(region(page, 250, 200, c), 12)
			if big < small {
				t.Errorf("caption %q page %d: large figure %v scored below small %v", c, page, big, small)
			}
		}
	}
}

func TestSelect_KeepsDocumentOrder(t *testing.T) {
	scores := []float64{8.1, 7.6, 6.9, 6.5, 5.8, 5.2, 4.0, 3.1, 2.0}
	pages := []int{2, 3, 5, 8, 10, 12, 14, 15, 18}

	// feed them in reverse page order so input order cannot leak through
	var scored []model.ScoredImage
	for i := len(scores) - 1; i >= 0; i-- {
		scored = append(scored, model.ScoredImage{
			Region: model.FigureRegion{Page: pages[i]},
			Score:  scores[i],
			Index:  len(scored),
		})
	}

	got := Select(scored, 6)
	want := []int{2, 3, 5, 8, 10, 12}
	if len(got) != len(want) {
		t.Fatalf("selected %d images, want %d", len(got), len(want))
	}
	for i, si := range got {
		if si.Region.Page != want[i] {
			t.Errorf("position %d: page %d, want %d", i, si.Region.Page, want[i])
		}
	}
	if scored[0].Region.Page != 18 {
		t.Error("Select must not reorder its input")
	}
}

func TestSelect_Limits(t *testing.T) {
	scored := []model.ScoredImage{
		{Region: model.FigureRegion{Page: 1}, Score: 1, Index: 0},
		{Region: model.FigureRegion{Page: 2}, Score: 2, Index: 1},
	}
	if got := Select(scored, 0); len(got) != 0 {
		t.Errorf("k=0 selected %d", len(got))
	}
	if got := Select(scored, -3); len(got) != 0 {
		t.Errorf("negative k selected %d", len(got))
	}
	if got := Select(scored, 10); len(got) != 2 || got[0].Index != 0 {
		t.Errorf("k larger than input should select all in order: %+v", got)
	}
	if got := Select(nil, 3); got != nil {
		t.Errorf("empty input selected %+v", got)
	}
}

func TestSelect_TiesGoToEarlierImage(t *testing.T) {
	scored := []model.ScoredImage{
		{Region: model.FigureRegion{Page: 9}, Score: 5, Index: 0},
		{Region: model.FigureRegion{Page: 1}, Score: 5, Index: 1},
		{Region: model.FigureRegion{Page: 4}, Score: 5, Index: 2},
	}
	got := Select(scored, 2)
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 0 {
		t.Errorf("Select() = %+v, want indices 1 then 0", got)
	}
}

func TestSelect_SamePageByPosition(t *testing.T) {
	at := func(y, x float64, idx int) model.ScoredImage {
		return model.ScoredImage{
			Region: model.FigureRegion{Page: 3, BBox: model.Rect{X0: x, Y0: y, X1: x + 10, Y1: y + 10}},
			Score:  float64(idx),
			Index:  idx,
		}
	}
	got := Select([]model.ScoredImage{at(500, 50, 3), at(100, 300, 2), at(100, 50, 1)}, 3)
	if got[0].Index != 1 || got[1].Index != 2 || got[2].Index != 3 {
		t.Errorf("unexpected order %d %d %d", got[0].Index, got[1].Index, got[2].Index)
	}
}

// selection is a subset of the input, bounded by k and in document order
func TestSelect_Properties(t *testing.T) {
	var scored []model.ScoredImage
	for i := 0; i < 40; i++ {
		scored = append(scored, model.ScoredImage{
			Region: model.FigureRegion{Page: (i*7)%13 + 1, BBox: model.Rect{Y0: float64((i * 31) % 700)}},
			Score:  float64((i*17)%10) + 0.1*float64(i%3),
			Index:  i,
		})
	}
	for k := 0; k <= 45; k += 5 {
		got := Select(scored, k)
		if len(got) > k {
			t.Errorf("k=%d: selected %d", k, len(got))
		}
		seen := map[int]bool{}
		for i, si := range got {
			if si.Index < 0 || si.Index >= len(scored) || scored[si.Index].Score != si.Score || seen[si.Index] {
				t.Errorf("k=%d: %+v is not a distinct input element", k, si)
			}
			seen[si.Index] = true
			if i > 0 {
				prev := got[i-1].Region
				if prev.Page > si.Region.Page || (prev.Page == si.Region.Page && prev.BBox.Y0 > si.Region.BBox.Y0) {
					t.Errorf("k=%d: output not in document order at %d", k, i)
				}
			}
		}
	}
}

func TestRank(t *testing.T) {
	regions := []model.FigureRegion{
		region(9, 100, 100, ""),
		region(2, 1500, 1000, "Figure 1: System architecture"),
		region(5, 800, 700, "Table 1: Results"),
	}
	all, selected := NewScorer(DefaultConfig()).Rank(regions, 10, 2)
	if len(all) != 3 || all[1].Index != 1 {
		t.Fatalf("unexpected scored list %+v", all)
	}
	if len(selected) != 2 || selected[0].Region.Page != 2 || selected[1].Region.Page != 5 {
		t.Errorf("unexpected selection %+v", selected)
	}
}
