package figharvest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/figharvest/figharvest/config"
	"github.com/figharvest/figharvest/ocr"
	"github.com/figharvest/figharvest/render"
)

// Extractor provides a fluent interface for configuring a run.
// Each configuration method returns a new Extractor instance, so a
// configured Extractor can be reused for several runs.
type Extractor struct {
	filename string
	options  extractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a copy of the Extractor with a deep copy of options
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename: e.filename,
		options:  e.options.clone(),
		err:      e.err,
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// WithConfig replaces every setting with cfg. Call it before the methods
// that override single settings.
//
// Example:
//
//	cfg, _ := config.Load("figharvest.yaml")
//	res, err := figharvest.Open("paper.pdf").WithConfig(cfg).MaxFigures(3).Run(ctx)
func (e *Extractor) WithConfig(cfg *config.Config) *Extractor {
	newExt := e.clone()
	if cfg == nil {
		newExt.err = fmt.Errorf("nil config")
		return newExt
	}
	if err := cfg.Validate(); err != nil {
		newExt.err = fmt.Errorf("invalid config: %w", err)
		return newExt
	}
	newExt.options.config = *cfg
	newExt.options = newExt.options.clone()
	return newExt
}

// OutputDir sets the directory figures and metadata are written to
func (e *Extractor) OutputDir(dir string) *Extractor {
	newExt := e.clone()
	newExt.options.config.OutputDir = dir
	return newExt
}

// MaxFigures sets how many figures are selected. Zero selects none.
func (e *Extractor) MaxFigures(k int) *Extractor {
	newExt := e.clone()
	if k < 0 {
		newExt.err = fmt.Errorf("max figures must not be negative: %d", k)
		return newExt
	}
	newExt.options.config.MaxFigures = k
	return newExt
}

// KeepUnselected controls whether figures outside the selection are
// written too. They are listed in the metadata either way.
func (e *Extractor) KeepUnselected(keep bool) *Extractor {
	newExt := e.clone()
	newExt.options.config.KeepUnselected = keep
	return newExt
}

// WithLogger sets the logger for the run and its components
func (e *Extractor) WithLogger(logger zerolog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = logger
	return newExt
}

// WithRenderer sets the renderer used for reconstructed regions, images
// that cannot be decoded and OCR. The caller keeps ownership of r. By
// default the run opens the document with MuPDF.
func (e *Extractor) WithRenderer(r render.Renderer) *Extractor {
	newExt := e.clone()
	newExt.options.renderer = r
	return newExt
}

// WithLocalizer replaces the pdffigures2 localizer built from the config
func (e *Extractor) WithLocalizer(l Localizer) *Extractor {
	newExt := e.clone()
	newExt.options.localizer = l
	return newExt
}

// WithRecognizer enables OCR for pages without a text layer during the
// appendix search. Builds with the ocr tag can enable Tesseract through the
// config instead.
func (e *Extractor) WithRecognizer(r ocr.Recognizer) *Extractor {
	newExt := e.clone()
	newExt.options.recognizer = r
	return newExt
}

// WithProgress sets a callback invoked after each page of the raw scan and
// after each regionless caption
func (e *Extractor) WithProgress(fn func(done, total int)) *Extractor {
	newExt := e.clone()
	newExt.options.progress = fn
	return newExt
}

// DisableLocalizer skips the external localizer and goes straight to the
// raw image scan
func (e *Extractor) DisableLocalizer() *Extractor {
	newExt := e.clone()
	newExt.options.disableLocalizer = true
	return newExt
}

// ============================================================================
// Terminal Operation
// ============================================================================

// Run extracts, filters, scores and writes the figures of the document.
//
// Run fails only for problems with the document as a whole: it cannot be
// opened, is encrypted or has no pages, or ctx was cancelled. Pages and
// figures that fail are dropped and counted in Result.Report. The output
// directory is only touched once every file is ready, so a failed Run
// leaves it as it was.
//
// Example:
//
//	res, err := figharvest.Open("paper.pdf").OutputDir("figs").Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Report.Summary())
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.filename == "" {
		return nil, fmt.Errorf("no filename specified")
	}
	if e.options.config.OutputDir == "" {
		return nil, ErrNoOutputDir
	}

	r, err := newRun(e.filename, e.options)
	if err != nil {
		return nil, err
	}
	defer r.close()

	return r.execute(ctx)
}
