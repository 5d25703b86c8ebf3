package localizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png" // render files are PNG
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/figharvest/figharvest/model"
)

// ErrUnavailable means the tool could not produce usable output
var ErrUnavailable = errors.New("figure localizer unavailable")

// Config describes how to invoke pdffigures2
type Config struct {
	Java    string        // JVM binary, "java" when empty
	Jar     string        // path to the pdffigures2 assembly jar
	DPI     int           // render resolution, 300 when zero
	Timeout time.Duration // 120s when zero
}

// DefaultConfig returns the invocation defaults. Jar has no default.
func DefaultConfig() Config {
	return Config{
		Java:    "java",
		DPI:     300,
		Timeout: 120 * time.Second,
	}
}

// LocalizedFigure is a figure or table the tool found with its region
type LocalizedFigure struct {
	Page            int // 1-indexed
	FigType         model.FigType
	Name            string
	Caption         string
	CaptionBoundary model.Rect
	Region          model.Rect
	Raster          model.Raster
	RenderDPI       float64
	RenderPath      string
}

// FigureRegion converts the figure into a localized region
func (f LocalizedFigure) FigureRegion() model.FigureRegion {
	return model.FigureRegion{
		FigType: f.FigType,
		FigName: f.Name,
		Page:    f.Page,
		BBox:    f.Region,
		Caption: f.Caption,
		Source:  model.SourceLocalized,
		Raster:  f.Raster,
	}
}

// RegionlessCaption is a caption whose figure region the tool could not
// determine
type RegionlessCaption struct {
	Page     int // 1-indexed
	FigType  model.FigType
	Name     string
	Boundary model.Rect
	Text     string
}

// MissingRender is a figure dropped because its render file was unreadable
type MissingRender struct {
	Page int
	Name string
	Path string
	Err  error
}

// Result is the parsed output of one successful run
type Result struct {
	Figures    []LocalizedFigure
	Regionless []RegionlessCaption
	Missing    []MissingRender
}

// Localizer runs pdffigures2 on documents
type Localizer struct {
	config Config
	runner Runner
	logger zerolog.Logger
}

// Option configures a Localizer
type Option func(*Localizer)

// WithRunner replaces the command runner
func WithRunner(r Runner) Option {
	return func(l *Localizer) { l.runner = r }
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Localizer) { l.logger = logger }
}

// New creates a localizer. Zero config fields take their defaults.
func New(config Config, opts ...Option) *Localizer {
	def := DefaultConfig()
	if config.Java == "" {
		config.Java = def.Java
	}
	if config.DPI <= 0 {
		config.DPI = def.DPI
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	l := &Localizer{config: config, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	if l.runner == nil {
		l.runner = ExecRunner{Logger: l.logger}
	}
	return l
}

// Args returns the command line arguments for a run writing into dir
func (l *Localizer) Args(pdfPath, dir string) []string {
	prefix := strings.TrimRight(dir, string(filepath.Separator)) + string(filepath.Separator)
	return []string{
		"-jar", l.config.Jar,
		pdfPath,
		"-m", prefix,
		"-d", prefix,
		"-i", strconv.Itoa(l.config.DPI),
		"-c",
	}
}

// Localize runs the tool on pdfPath. Output and renders are written to
// workDir; when workDir is empty a temporary directory is used and removed
// afterwards. Render bytes are read into memory before returning.
func (l *Localizer) Localize(ctx context.Context, pdfPath, workDir string) (*Result, error) {
	if l.config.Jar == "" {
		return nil, fmt.Errorf("%w: no jar configured", ErrUnavailable)
	}
	if _, err := os.Stat(l.config.Jar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if workDir == "" {
		dir, err := os.MkdirTemp("", "figharvest-pdffigures2-*")
		if err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	start := time.Now()
	_, stderr, err := l.runner.Run(runCtx, l.config.Java, l.Args(pdfPath, workDir)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrUnavailable, l.config.Timeout)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrUnavailable, err, truncate(strings.TrimSpace(string(stderr)), 512))
	}
	l.logger.Debug().Dur("elapsed", time.Since(start)).Msg("pdffigures2 finished")

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	data, err := os.ReadFile(filepath.Join(workDir, stem+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	raw, err := parseOutput(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return l.convert(raw, workDir), nil
}

func (l *Localizer) convert(raw *rawOutput, workDir string) *Result {
	res := &Result{}
	for _, f := range raw.Figures {
		path := f.RenderURL
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		raster, err := readRender(path)
		if err != nil {
			l.logger.Warn().Int("page", f.Page+1).Str("fig", f.FigType+f.Name).Err(err).Msg("render missing, figure dropped")
			res.Missing = append(res.Missing, MissingRender{Page: f.Page + 1, Name: f.FigType + f.Name, Path: path, Err: err})
			continue
		}
		res.Figures = append(res.Figures, LocalizedFigure{
			Page:            f.Page + 1,
			FigType:         model.ParseFigType(f.FigType),
			Name:            f.Name,
			Caption:         strings.TrimSpace(f.Caption),
			CaptionBoundary: f.CaptionBoundary.rect(),
			Region:          f.RegionBoundary.rect(),
			Raster:          raster,
			RenderDPI:       f.RenderDPI,
			RenderPath:      path,
		})
	}
	for _, c := range raw.Regionless {
		res.Regionless = append(res.Regionless, RegionlessCaption{
			Page:     c.Page + 1,
			FigType:  model.ParseFigType(c.FigType),
			Name:     c.Name,
			Boundary: c.Boundary.rect(),
			Text:     strings.TrimSpace(c.Text),
		})
	}
	return res
}

func readRender(path string) (model.Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Raster{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Raster{}, fmt.Errorf("decode render: %w", err)
	}
	if format != "png" {
		return model.Raster{}, fmt.Errorf("render is %s, want png", format)
	}
	return model.Raster{Data: data, Format: "png", Width: cfg.Width, Height: cfg.Height}, nil
}
