package appendix

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/figharvest/figharvest/model"
)

func pages(texts map[int]string) func(int) (string, error) {
	return func(page int) (string, error) {
		return texts[page], nil
	}
}

func TestBoundary_TwentyPagePaper(t *testing.T) {
	texts := map[int]string{
		5:  "References to prior work appear throughout",
		15: "5 Conclusion\nWe presented...",
		16: "Acknowledgements\nWe thank...\nReferences\n[1] A. Author",
		18: "Appendix A",
	}
	var visited []int
	read := func(page int) (string, error) {
		visited = append(visited, page)
		return texts[page], nil
	}

	got, ok := New().Boundary(20, read)
	if !ok || got != 16 {
		t.Fatalf("Boundary() = %d, %v; want 16", got, ok)
	}
	if visited[0] != 15 {
		t.Errorf("scan started at page %d, want 15", visited[0])
	}
}

func TestBoundary_FirstPage(t *testing.T) {
	d := New()
	tests := map[int]int{1: 1, 3: 3, 10: 8, 20: 15, 7: 5}
	for total, want := range tests {
		if got := d.FirstPage(total); got != want {
			t.Errorf("FirstPage(%d) = %d, want %d", total, got, want)
		}
	}
	if got := New(WithScanFraction(0.5)).FirstPage(20); got != 11 {
		t.Errorf("FirstPage with half the document = %d, want 11", got)
	}
}

func TestBoundary_MarkerBeyondPrefix(t *testing.T) {
	body := strings.Repeat("x", 500)
	texts := map[int]string{10: body + " References"}
	if got, ok := New().Boundary(10, pages(texts)); ok {
		t.Errorf("marker past the first 500 runes should be ignored, got %d", got)
	}
	if got, ok := New(WithPrefixRunes(600)).Boundary(10, pages(texts)); !ok || got != 10 {
		t.Errorf("Boundary() with a longer prefix = %d, %v", got, ok)
	}
}

func TestHasMarker(t *testing.T) {
	d := New()
	tests := []struct {
		text string
		want bool
	}{
		{"REFERENCES", true},
		{"references", true},
		{"Bibliography", true},
		{"APPENDICES", true},
		{"Anhang A", true},
		{"RÉFÉRENCES", true},
		{"Apéndice B", true},
		{"参考文献", true},
		{"付録 A", true},
		{"附录", true},
		{"Results and discussion", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := d.HasMarker(tt.text); got != tt.want {
			t.Errorf("HasMarker(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	// a multi-byte prefix is cut on rune boundaries
	cjk := strings.Repeat("图", 499) + "参考文献"
	if d.HasMarker(cjk) {
		t.Error("marker starting at rune 500 should be outside the prefix")
	}
}

type fakeRecoverer struct {
	text  map[int]string
	calls []int
}

func (f *fakeRecoverer) RecoverText(page int) (string, error) {
	f.calls = append(f.calls, page)
	if text, ok := f.text[page]; ok {
		return text, nil
	}
	return "", errors.New("no text")
}

func TestBoundary_Recoverer(t *testing.T) {
	rec := &fakeRecoverer{text: map[int]string{9: "BIBLIOGRAPHY"}}
	texts := map[int]string{8: "Conclusion", 10: "References"}

	got, ok := New(WithRecoverer(rec)).Boundary(10, pages(texts))
	if !ok || got != 9 {
		t.Fatalf("Boundary() = %d, %v; want 9", got, ok)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 9 {
		t.Errorf("recoverer calls = %v, want only the empty page", rec.calls)
	}
}

func TestBoundary_UnreadablePagesSkipped(t *testing.T) {
	read := func(page int) (string, error) {
		if page == 8 {
			return "", fmt.Errorf("page %d: broken", page)
		}
		if page == 9 {
			return "Appendix", nil
		}
		return "", nil
	}
	if got, ok := New().Boundary(10, read); !ok || got != 9 {
		t.Errorf("Boundary() = %d, %v; want 9", got, ok)
	}
	if _, ok := New().Boundary(0, read); ok {
		t.Error("empty document has no boundary")
	}
}

func TestFilter(t *testing.T) {
	var regions []model.FigureRegion
	for page := 1; page <= 20; page++ {
		regions = append(regions, model.FigureRegion{Page: page})
	}

	kept, dropped := Filter(regions, 16)
	if len(kept) != 15 || len(dropped) != 5 {
		t.Fatalf("kept %d, dropped %d", len(kept), len(dropped))
	}
	for _, r := range kept {
		if r.Page >= 16 {
			t.Errorf("page %d survived the boundary", r.Page)
		}
	}

	kept, dropped = Filter(regions, 0)
	if len(kept) != 20 || dropped != nil {
		t.Errorf("no boundary should keep everything")
	}
}
