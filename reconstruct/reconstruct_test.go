package reconstruct

import (
	"testing"

	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/scan"
)

func rect(x0, y0, x1, y1 float64) model.Rect {
	return model.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// barChart is a framed chart with three bars above a caption at y=400 and
// a paragraph of body text above the chart.
func barChart() PageGeometry {
	return PageGeometry{
		Width:  612,
		Height: 792,
		Drawings: []model.Rect{
			rect(120, 200, 380, 380),
			rect(150, 300, 180, 380),
			rect(200, 250, 230, 380),
			rect(250, 320, 280, 380),
			rect(72, 700, 540, 701), // footer rule below the caption
		},
		Texts: []TextBox{
			{Rect: rect(72, 80, 540, 180), Chars: 800},
			{Rect: rect(100, 400, 400, 410), Chars: 26},
		},
	}
}

func TestRegion_BarChart(t *testing.T) {
	rc := New(DefaultConfig())
	got, ok := rc.Region(barChart(), rect(100, 400, 400, 410))
	if !ok {
		t.Fatal("expected a region")
	}
	want := rect(115, 195, 385, 395)
	if got != want {
		t.Errorf("Region() = %+v, want %+v", got, want)
	}
}

func TestRegion_WidensNarrowFigure(t *testing.T) {
	rc := New(DefaultConfig())
	got, ok := rc.Region(barChart(), rect(50, 400, 550, 410))
	if !ok {
		t.Fatal("expected a region")
	}
	want := rect(65, 195, 547, 395)
	if got != want {
		t.Errorf("Region() = %+v, want %+v", got, want)
	}
}

func TestRegion_NoiseTolerance(t *testing.T) {
	tests := []struct {
		name    string
		upper   model.Rect
		wantTop float64
	}{
		{"two stripe gap is bridged", rect(100, 250, 300, 270), 245},
		{"three stripe gap ends the figure", rect(100, 250, 300, 260), 295},
	}

	rc := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := PageGeometry{
				Width:    612,
				Height:   792,
				Drawings: []model.Rect{rect(100, 300, 300, 380), tt.upper},
			}
			got, ok := rc.Region(page, rect(100, 400, 300, 410))
			if !ok {
				t.Fatal("expected a region")
			}
			if got.Y0 != tt.wantTop {
				t.Errorf("top = %v, want %v (region %+v)", got.Y0, tt.wantTop, got)
			}
			if got.Y1 != 395 {
				t.Errorf("bottom = %v, want 395", got.Y1)
			}
		})
	}
}

func TestRegion_FallbackToDrawingUnion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TextWeight = 2
	rc := New(cfg)

	page := PageGeometry{
		Width:    612,
		Height:   792,
		Drawings: []model.Rect{rect(100, 300, 300, 319)},
		Texts:    []TextBox{{Rect: rect(100, 300, 300, 319), Chars: 50}},
	}
	got, ok := rc.Region(page, rect(100, 400, 300, 410))
	if !ok {
		t.Fatal("expected a region")
	}
	if want := rect(95, 295, 305, 324); got != want {
		t.Errorf("Region() = %+v, want %+v", got, want)
	}
}

func TestRegion_Failures(t *testing.T) {
	rc := New(DefaultConfig())

	tests := []struct {
		name    string
		page    PageGeometry
		caption model.Rect
	}{
		{
			"no drawings",
			PageGeometry{Width: 612, Height: 792, Texts: []TextBox{{Rect: rect(72, 100, 500, 200), Chars: 300}}},
			rect(100, 400, 300, 410),
		},
		{
			"drawings only below the caption",
			PageGeometry{Width: 612, Height: 792, Drawings: []model.Rect{rect(100, 420, 300, 600)}},
			rect(100, 400, 300, 410),
		},
		{
			"drawing touching the caption",
			PageGeometry{Width: 612, Height: 792, Drawings: []model.Rect{rect(100, 300, 300, 400)}},
			rect(100, 400, 300, 410),
		},
		{
			"caption at the page top",
			PageGeometry{Width: 612, Height: 792, Drawings: []model.Rect{rect(10, 0, 100, 2)}},
			rect(0, 3, 100, 13),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := rc.Region(tt.page, tt.caption); ok {
				t.Errorf("expected failure, got %+v", got)
			}
		})
	}
}

func TestRegion_StaysAboveCaptionAndOnPage(t *testing.T) {
	rc := New(DefaultConfig())
	page := barChart()
	page.Drawings = append(page.Drawings, rect(-20, 150, 700, 160))

	for y := 200.0; y < 790; y += 37 {
		caption := rect(100, y, 400, y+10)
		got, ok := rc.Region(page, caption)
		if !ok {
			continue
		}
		if got.Y1 > caption.Y0-5 {
			t.Errorf("caption at %v: region %+v reaches the caption", y, got)
		}
		if got.X0 < 0 || got.Y0 < 0 || got.X1 > page.Width || got.Y1 > page.Height || got.Area() <= 0 {
			t.Errorf("caption at %v: region %+v not a valid page region", y, got)
		}
	}
}

func TestRegion_Hairlines(t *testing.T) {
	// axes drawn as zero-width and zero-height strokes
	page := PageGeometry{
		Width:  612,
		Height: 792,
		Drawings: []model.Rect{
			rect(100, 250, 100, 380),
			rect(100, 380, 400, 380),
		},
	}
	caption := rect(100, 400, 400, 410)

	got, ok := New(DefaultConfig()).Region(page, caption)
	if !ok {
		t.Fatal("expected a region")
	}
	if want := rect(95, 245, 405, 385); got != want {
		t.Errorf("Region() = %+v, want the drawing union %+v", got, want)
	}

	cfg := DefaultConfig()
	cfg.MinLineWeight = 1
	weighted, ok := New(cfg).Region(page, caption)
	if !ok {
		t.Fatal("expected a region with weighted lines")
	}
	if weighted.X0 != 95 || weighted.X1 != 405 || weighted.Y0 != 245 {
		t.Errorf("weighted Region() = %+v", weighted)
	}
}

func TestRegion_RuledTable(t *testing.T) {
	// booktabs style rules with rows of text between them
	page := PageGeometry{
		Width:  612,
		Height: 792,
		Drawings: []model.Rect{
			rect(100, 200, 500, 200),
			rect(100, 300, 500, 300),
			rect(100, 380, 500, 380),
		},
		Texts: []TextBox{
			{Rect: rect(110, 210, 490, 290), Chars: 240},
			{Rect: rect(110, 310, 490, 370), Chars: 180},
		},
	}
	got, ok := New(DefaultConfig()).Region(page, rect(100, 400, 500, 410))
	if !ok {
		t.Fatal("expected a region")
	}
	if want := rect(95, 195, 505, 385); got != want {
		t.Errorf("Region() = %+v, want %+v", got, want)
	}
}

func TestNew_KeepsZeroSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0
	cfg.NarrowRatio = 0
	cfg.NoiseStripes = 0
	got := New(cfg).config
	if got.Threshold != 0 || got.NarrowRatio != 0 || got.NoiseStripes != 0 {
		t.Errorf("zero settings replaced: %+v", got)
	}

	neg := Config{StripeHeight: -1, Threshold: -1, NarrowRatio: -1, NoiseStripes: -1, MinLineWeight: -1}
	def := DefaultConfig()
	got = New(neg).config
	if got.StripeHeight != def.StripeHeight || got.Threshold != def.Threshold ||
		got.NarrowRatio != def.NarrowRatio || got.NoiseStripes != def.NoiseStripes || got.MinLineWeight != 0 {
		t.Errorf("negative settings not defaulted: %+v", got)
	}
}

func TestFromPage(t *testing.T) {
	pc := &scan.PageContent{
		Number:   1,
		Width:    600,
		Height:   800,
		Drawings: []model.Rect{rect(1, 2, 3, 4)},
		Blocks: []model.PageBlock{
			&model.TextBlock{Rect: rect(10, 10, 50, 20), CharCount: 7},
			&model.ImageBlock{Rect: rect(0, 0, 5, 5)},
		},
	}
	g := FromPage(pc)
	if g.Width != 600 || g.Height != 800 || len(g.Drawings) != 1 {
		t.Errorf("unexpected geometry %+v", g)
	}
	if len(g.Texts) != 1 || g.Texts[0].Chars != 7 {
		t.Errorf("texts = %+v", g.Texts)
	}
}
