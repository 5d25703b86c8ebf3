package localizer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/figharvest/figharvest/model"
)

// fakeRunner plays pdffigures2: it writes files into the output directory
// named on the command line.
type fakeRunner struct {
	json    string
	renders map[string]image.Image
	err     error
	block   bool
	args    []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	if f.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	if f.err != nil {
		return nil, []byte("Exception in thread main"), f.err
	}
	dir := args[4]
	for file, img := range f.renders {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, file), buf.Bytes(), 0o644); err != nil {
			return nil, nil, err
		}
	}
	if f.json != "" {
		if err := os.WriteFile(filepath.Join(dir, "paper.json"), []byte(f.json), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func jarFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdffigures2.jar")
	if err := os.WriteFile(path, []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const threeFigures = `{
  "figures": [
    {"name": "1", "figType": "Figure", "page": 0, "caption": "Figure 1: Overview.",
     "captionBoundary": {"x1": 72, "y1": 300, "x2": 540, "y2": 320},
     "regionBoundary": {"x1": 72, "y1": 80, "x2": 540, "y2": 290},
     "renderURL": "paper-Figure1-1.png", "renderDpi": 300},
    {"name": "2", "figType": "Figure", "page": 2, "caption": "Figure 2: Results.",
     "regionBoundary": {"x1": 100, "y1": 100, "x2": 300, "y2": 200},
     "renderURL": "paper-Figure2-1.png", "renderDpi": 300},
    {"name": "1", "figType": "Table", "page": 3, "caption": " Table 1: Datasets. ",
     "regionBoundary": {"x1": 80, "y1": 400, "x2": 500, "y2": 600},
     "renderURL": "paper-Table1-1.png", "renderDpi": 300},
    {"name": "4", "figType": "Figure", "page": 4, "caption": "Figure 4",
     "regionBoundary": {"x1": 80, "y1": 400, "x2": 500, "y2": 600},
     "renderURL": "paper-Figure4-1.png", "renderDpi": 300}
  ],
  "regionless-captions": [
    {"name": "3", "figType": "Figure", "page": 5, "text": "Figure 3: Ablation results",
     "boundary": {"x1": 100, "y1": 400, "x2": 400, "y2": 410}}
  ]
}`

func TestLocalize(t *testing.T) {
	runner := &fakeRunner{
		json: threeFigures,
		renders: map[string]image.Image{
			"paper-Figure1-1.png": image.NewGray(image.Rect(0, 0, 1950, 875)),
			"paper-Figure2-1.png": image.NewGray(image.Rect(0, 0, 10, 10)),
			"paper-Table1-1.png":  image.NewGray(image.Rect(0, 0, 20, 10)),
		},
	}
	jar := jarFile(t)
	l := New(Config{Jar: jar, DPI: 150}, WithRunner(runner))

	workDir := t.TempDir()
	res, err := l.Localize(context.Background(), "/papers/paper.pdf", workDir)
	if err != nil {
		t.Fatalf("Localize: %v", err)
	}

	wantArgs := []string{"java", "-jar", jar, "/papers/paper.pdf", "-m", workDir + "/", "-d", workDir + "/", "-i", "150", "-c"}
	if len(runner.args) != len(wantArgs) {
		t.Fatalf("args = %q", runner.args)
	}
	for i := range wantArgs {
		if runner.args[i] != wantArgs[i] {
			t.Errorf("arg %d = %q, want %q", i, runner.args[i], wantArgs[i])
		}
	}

	if len(res.Figures) != 3 {
		t.Fatalf("expected 3 figures, got %d", len(res.Figures))
	}
	first := res.Figures[0]
	if first.Page != 1 || first.FigType != model.FigTypeFigure || first.Name != "1" {
		t.Errorf("first figure %+v", first)
	}
	if first.Region != (model.Rect{X0: 72, Y0: 80, X1: 540, Y1: 290}) {
		t.Errorf("region = %+v", first.Region)
	}
	if first.Raster.Width != 1950 || first.Raster.Height != 875 || first.Raster.Format != "png" {
		t.Errorf("raster = %dx%d %s", first.Raster.Width, first.Raster.Height, first.Raster.Format)
	}
	table := res.Figures[2]
	if table.FigType != model.FigTypeTable || table.Caption != "Table 1: Datasets." || table.Page != 4 {
		t.Errorf("table %+v", table)
	}
	if region := table.FigureRegion(); region.Source != model.SourceLocalized || region.Label() != "Table1" {
		t.Errorf("FigureRegion() = %+v", region)
	}

	if len(res.Missing) != 1 || res.Missing[0].Name != "Figure4" || res.Missing[0].Page != 5 {
		t.Errorf("missing = %+v", res.Missing)
	}

	if len(res.Regionless) != 1 {
		t.Fatalf("expected 1 regionless caption, got %d", len(res.Regionless))
	}
	rc := res.Regionless[0]
	if rc.Page != 6 || rc.Name != "3" || rc.Text != "Figure 3: Ablation results" || rc.Boundary.Y0 != 400 {
		t.Errorf("regionless = %+v", rc)
	}
}

func TestLocalize_TempWorkDir(t *testing.T) {
	runner := &fakeRunner{json: `{"figures": []}`}
	l := New(Config{Jar: jarFile(t)}, WithRunner(runner))

	res, err := l.Localize(context.Background(), "paper.pdf", "")
	if err != nil {
		t.Fatalf("Localize: %v", err)
	}
	if len(res.Figures) != 0 || len(res.Regionless) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if _, err := os.Stat(runner.args[5]); !os.IsNotExist(err) {
		t.Errorf("temporary work dir %s should be removed", runner.args[5])
	}
	if runner.args[9] != "300" {
		t.Errorf("default dpi arg = %q", runner.args[9])
	}
}

func TestLocalize_Unavailable(t *testing.T) {
	jar := jarFile(t)
	tests := []struct {
		name   string
		config Config
		runner *fakeRunner
	}{
		{"no jar configured", Config{}, &fakeRunner{}},
		{"jar missing", Config{Jar: filepath.Join(t.TempDir(), "missing.jar")}, &fakeRunner{}},
		{"non-zero exit", Config{Jar: jar}, &fakeRunner{err: errors.New("exit status 1")}},
		{"no output", Config{Jar: jar}, &fakeRunner{}},
		{"malformed json", Config{Jar: jar}, &fakeRunner{json: `{"figures": [`}},
		{"schema violation", Config{Jar: jar}, &fakeRunner{json: `{"figures": [{"name": "1", "figType": "Chart", "page": 0, "regionBoundary": {"x1": 0, "y1": 0, "x2": 1, "y2": 1}, "renderURL": "a.png"}]}`}},
		{"missing figures key", Config{Jar: jar}, &fakeRunner{json: `{"regionless-captions": []}`}},
		{"timeout", Config{Jar: jar, Timeout: 20 * time.Millisecond}, &fakeRunner{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.config, WithRunner(tt.runner))
			_, err := l.Localize(context.Background(), "paper.pdf", t.TempDir())
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestLocalize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(Config{Jar: jarFile(t)}, WithRunner(&fakeRunner{block: true}))
	if _, err := l.Localize(ctx, "paper.pdf", t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	stdout, _, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo figures")
	if err != nil || string(stdout) != "figures\n" {
		t.Errorf("Run() = %q, %v", stdout, err)
	}
	_, stderr, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil || string(stderr) != "broken\n" {
		t.Errorf("expected failure with stderr, got %q, %v", stderr, err)
	}
}
