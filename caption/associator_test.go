package caption

import (
	"testing"

	"github.com/figharvest/figharvest/model"
)

func textBlock(text string, x0, y0, x1, y1 float64) *model.TextBlock {
	return &model.TextBlock{Text: text, Rect: model.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

var image = model.Rect{X0: 100, Y0: 100, X1: 300, Y1: 300}

func TestAssociator_Find(t *testing.T) {
	tests := []struct {
		name  string
		texts []*model.TextBlock
		want  string
		ok    bool
	}{
		{"caption just below", []*model.TextBlock{textBlock("Figure 1: Overview", 100, 310, 300, 320)}, "Figure 1: Overview", true},
		{"touching edge", []*model.TextBlock{textBlock("Fig. 2 Results", 100, 300, 250, 310)}, "Fig. 2 Results", true},
		{"gap of exactly 50", []*model.TextBlock{textBlock("Figure 1", 100, 350, 300, 360)}, "", false},
		{"gap just under 50", []*model.TextBlock{textBlock("Figure 1", 100, 349.5, 300, 360)}, "Figure 1", true},
		{"above the image", []*model.TextBlock{textBlock("Figure 1", 100, 80, 300, 95)}, "", false},
		{"overlaps image bottom", []*model.TextBlock{textBlock("Figure 1", 100, 295, 300, 305)}, "", false},
		{"half width overlap", []*model.TextBlock{textBlock("Table 3", 200, 310, 400, 320)}, "Table 3", true},
		{"under half overlap", []*model.TextBlock{textBlock("Table 3", 201, 310, 400, 320)}, "", false},
		{"no keyword", []*model.TextBlock{textBlock("The results show", 100, 310, 300, 320)}, "", false},
		{"case insensitive", []*model.TextBlock{textBlock("FIGURE 4. Pipeline", 100, 310, 300, 320)}, "FIGURE 4. Pipeline", true},
		{"chinese figure", []*model.TextBlock{textBlock("图 3 系统架构", 100, 310, 300, 320)}, "图 3 系统架构", true},
		{"chinese table", []*model.TextBlock{textBlock("表2：实验结果", 100, 310, 300, 320)}, "表2：实验结果", true},
		{"full width letters", []*model.TextBlock{textBlock("ＦＩＧＵＲＥ 5", 100, 310, 300, 320)}, "ＦＩＧＵＲＥ 5", true},
		{"trimmed", []*model.TextBlock{textBlock("  Figure 6\n", 100, 310, 300, 320)}, "Figure 6", true},
		{"nil entries", []*model.TextBlock{nil}, "", false},
	}

	a := NewAssociator(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := a.Find(image, tt.texts)
			if ok != tt.ok || m.Text != tt.want {
				t.Errorf("Find() = %q, %v; want %q, %v", m.Text, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAssociator_ClosestWins(t *testing.T) {
	texts := []*model.TextBlock{
		textBlock("Figure 1 far", 100, 340, 300, 350),
		textBlock("Figure 1 near", 100, 305, 300, 315),
		textBlock("Figure 1 near twin", 100, 305, 300, 315),
	}
	m, ok := NewAssociator(DefaultConfig()).Find(image, texts)
	if !ok || m.Text != "Figure 1 near" {
		t.Fatalf("Find() = %q, %v", m.Text, ok)
	}
	if m.Gap != 5 || m.Overlap != 1 || m.Block != texts[1] {
		t.Errorf("unexpected match %+v", m)
	}
}

// every returned match satisfies the thresholds
func TestAssociator_MatchWithinThresholds(t *testing.T) {
	a := NewAssociator(DefaultConfig())
	var texts []*model.TextBlock
	for y := 250.0; y < 420; y += 7 {
		for x := 0.0; x < 400; x += 45 {
			texts = append(texts, textBlock("Table X", x, y, x+150, y+10))
		}
	}
	for x := 0.0; x < 400; x += 20 {
		img := model.Rect{X0: x, Y0: 50, X1: x + 120, Y1: 260 + x/10}
		m, ok := a.Find(img, texts)
		if !ok {
			continue
		}
		if m.Gap < 0 || m.Gap >= 50 {
			t.Errorf("image %+v: gap %v out of range", img, m.Gap)
		}
		if m.Overlap < 0.5 {
			t.Errorf("image %+v: overlap %v below 0.5", img, m.Overlap)
		}
	}
}

func TestAssociator_CustomConfig(t *testing.T) {
	a := NewAssociator(Config{MaxGap: 10, MinOverlap: 0.9, Keywords: []string{"Chart"}})
	texts := []*model.TextBlock{
		textBlock("chart of results", 100, 305, 300, 315),
		textBlock("Figure 1", 100, 301, 300, 311),
	}
	m, ok := a.Find(image, texts)
	if !ok || m.Text != "chart of results" {
		t.Errorf("Find() = %q, %v", m.Text, ok)
	}
	if _, ok := a.Find(model.Rect{X0: 10, Y0: 10, X1: 10, Y1: 20}, texts); ok {
		t.Error("zero width image should have no caption")
	}
}
