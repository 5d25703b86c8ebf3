package figharvest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/figharvest/figharvest/appendix"
	"github.com/figharvest/figharvest/caption"
	"github.com/figharvest/figharvest/colorfix"
	"github.com/figharvest/figharvest/config"
	"github.com/figharvest/figharvest/localizer"
	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/ocr"
	"github.com/figharvest/figharvest/output"
	"github.com/figharvest/figharvest/ranking"
	"github.com/figharvest/figharvest/reader"
	"github.com/figharvest/figharvest/reconstruct"
	"github.com/figharvest/figharvest/render"
	"github.com/figharvest/figharvest/scan"
)

// documentNamespace scopes document ids derived from file contents
var documentNamespace = uuid.MustParse("6f1c9a52-3d0e-4b7a-9c61-2f8e5d4b7a10")

// run holds the state of one extraction. It is created by Run and dropped
// when Run returns.
type run struct {
	path    string
	cfg     config.Config
	options extractOptions
	logger  zerolog.Logger

	reader        *reader.Reader
	renderer      render.Renderer
	ownsRenderer  bool
	scanner       *scan.Scanner
	localizer     Localizer
	associator    *caption.Associator
	normalizer    *colorfix.Normalizer
	reconstructor *reconstruct.Reconstructor
	ocrClient     *ocr.Client

	total  int
	seen   *scan.SeenSet
	pages  map[int]*scan.PageContent
	blocks []Block
	report *Report
}

// newRun opens the document and builds the components of a run
func newRun(path string, opts extractOptions) (*run, error) {
	rd, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	if rd.IsEncrypted() {
		rd.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrEncrypted)
	}
	total, err := rd.PageCount()
	if err != nil {
		rd.Close()
		return nil, fmt.Errorf("count pages: %w", err)
	}
	if total == 0 {
		rd.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	cfg := opts.config
	logger := opts.logger.With().Str("pdf", filepath.Base(path)).Logger()
	r := &run{
		path:          path,
		cfg:           cfg,
		options:       opts,
		logger:        logger,
		reader:        rd,
		scanner:       scan.New(rd, scan.WithLogger(logger), scan.WithBlockConfig(cfg.BlockConfig())),
		associator:    caption.NewAssociator(cfg.CaptionConfig()),
		normalizer:    colorfix.New(cfg.ColorFixConfig()),
		reconstructor: reconstruct.New(cfg.ReconstructConfig()),
		total:         total,
		seen:          scan.NewSeenSet(),
		pages:         make(map[int]*scan.PageContent),
		report:        newReport(),
	}

	r.renderer = opts.renderer
	if r.renderer == nil {
		fz, err := render.Open(path)
		if err != nil {
			// decodable images and localized figures need no renderer
			logger.Warn().Err(err).Msg("renderer unavailable")
			r.report.warn(0, "render", err)
		} else {
			r.renderer, r.ownsRenderer = fz, true
		}
	}

	switch {
	case opts.disableLocalizer:
	case opts.localizer != nil:
		r.localizer = opts.localizer
	case cfg.Localizer.Enabled:
		r.localizer = localizer.New(cfg.LocalizerConfig(), localizer.WithLogger(logger))
	}

	return r, nil
}

func (r *run) close() {
	if r.ownsRenderer && r.renderer != nil {
		r.renderer.Close()
	}
	if r.ocrClient != nil {
		r.ocrClient.Close()
	}
	r.reader.Close()
}

// execute runs every stage in order
func (r *run) execute(ctx context.Context) (*Result, error) {
	r.seen.Reset()

	docID, err := documentID(r.path)
	if err != nil {
		return nil, err
	}

	boundary := r.appendixBoundary()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions, strategy, err := r.extract(ctx)
	if err != nil {
		return nil, err
	}

	kept, dropped := appendix.Filter(regions, boundary)
	for range dropped {
		r.report.drop(DropAppendix)
	}
	if len(dropped) > 0 {
		r.logger.Info().Int("count", len(dropped)).Int("boundary", boundary).Msg("dropped appendix figures")
	}

	var valid []model.FigureRegion
	for _, region := range kept {
		if err := region.Validate(r.total); err != nil {
			r.report.drop(DropInvalidRegion)
			r.report.warn(region.Page, "validate", err)
			continue
		}
		valid = append(valid, region)
	}
	orderByPosition(valid)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scorer := ranking.NewScorer(ranking.DefaultConfig())
	all, selected := scorer.Rank(valid, r.total, r.cfg.MaxFigures)
	chosen := make(map[int]bool, len(selected))
	for _, s := range selected {
		chosen[s.Index] = true
	}

	writer := output.NewWriter(r.cfg.OutputDir,
		output.KeepUnselected(r.cfg.KeepUnselected),
		output.WithLogger(r.logger))
	info := r.reader.Info()
	manifest, err := writer.Write(output.Run{
		DocumentID:   docID,
		PDF:          filepath.Base(r.path),
		PDFVersion:   info.Version.String(),
		Title:        info.Title,
		Producer:     info.Producer,
		TotalPages:   r.total,
		AppendixPage: boundary,
		Strategy:     strategy,
		Dropped:      r.report.DroppedByName(),
	}, all, func(s model.ScoredImage) bool { return chosen[s.Index] })
	if err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	res := &Result{
		DocumentID:   docID,
		Title:        info.Title,
		PDFPath:      r.path,
		TotalPages:   r.total,
		AppendixPage: boundary,
		Strategy:     strategy,
		MetadataPath: manifest.MetadataPath,
		Report:       r.report,
	}
	written := make(map[string]bool, len(manifest.Written))
	for _, name := range manifest.Written {
		written[name] = true
	}
	byObject := make(map[string]string)
	for _, s := range all {
		fig := r.figure(s, chosen[s.Index], written[s.Region.Filename])
		res.Figures = append(res.Figures, fig)
		if fig.Selected {
			res.Selected = append(res.Selected, fig)
		}
		if s.Region.ObjectID != "" && fig.Filename != "" {
			byObject[s.Region.ObjectID] = fig.Filename
		}
	}
	res.Blocks = r.readingSequence(byObject)

	r.logger.Info().
		Str("strategy", strategy).
		Int("figures", len(res.Figures)).
		Int("selected", len(res.Selected)).
		Str("dropped", r.report.Summary()).
		Msg("extraction finished")
	return res, nil
}

func (r *run) figure(s model.ScoredImage, selected, written bool) Figure {
	reg := s.Region
	fig := Figure{
		Page:     reg.Page,
		FigType:  reg.FigType,
		FigName:  reg.FigName,
		Caption:  reg.Caption,
		BBox:     reg.BBox,
		Source:   reg.Source,
		Width:    reg.Raster.Width,
		Height:   reg.Raster.Height,
		Score:    s.Score,
		Selected: selected,
	}
	if written {
		fig.Filename = reg.Filename
		fig.Path = filepath.Join(r.cfg.OutputDir, reg.Filename)
	}
	return fig
}

// readingSequence keeps text blocks and the image blocks whose figure was
// written
func (r *run) readingSequence(byObject map[string]string) []Block {
	var out []Block
	for _, b := range r.blocks {
		if b.Kind == model.BlockImage {
			name, ok := byObject[b.objectID]
			if !ok {
				continue
			}
			b.Filename = name
		}
		out = append(out, b)
	}
	return out
}

// appendixBoundary returns the first appendix page, or 0
func (r *run) appendixBoundary() int {
	opts := []appendix.Option{
		appendix.WithScanFraction(r.cfg.Appendix.ScanFraction),
		appendix.WithPrefixRunes(r.cfg.Appendix.PrefixRunes),
		appendix.WithLogger(r.logger),
	}
	if len(r.cfg.Appendix.Markers) > 0 {
		opts = append(opts, appendix.WithMarkers(r.cfg.Appendix.Markers...))
	}
	if rec := r.recoverer(); rec != nil {
		opts = append(opts, appendix.WithRecoverer(rec))
	}

	page, ok := appendix.New(opts...).Boundary(r.total, r.scanner.FullText)
	if !ok {
		return 0
	}
	return page
}

// recoverer returns the OCR text recoverer, or nil when OCR is off or
// nothing can render pages
func (r *run) recoverer() appendix.TextRecoverer {
	if r.renderer == nil {
		return nil
	}
	recognizer := r.options.recognizer
	if recognizer == nil && r.cfg.OCR.Enabled && ocr.Enabled {
		client, err := ocr.New(r.cfg.OCR.Languages...)
		if err != nil {
			r.logger.Warn().Err(err).Msg("OCR unavailable")
			r.report.warn(0, "ocr", err)
			return nil
		}
		r.ocrClient = client
		recognizer = client
	}
	if recognizer == nil {
		return nil
	}
	return ocr.NewPageRecoverer(r.renderer, r.scanner, recognizer, r.cfg.OCR.DPI)
}

// page returns the scanned content of a page, scanning it once per run
func (r *run) page(n int) (*scan.PageContent, error) {
	if pc, ok := r.pages[n]; ok {
		return pc, nil
	}
	pc, err := r.scanner.Page(n)
	if err != nil {
		return nil, err
	}
	r.pages[n] = pc
	return pc, nil
}

func (r *run) progress(done, total int) {
	if r.options.progress != nil {
		r.options.progress(done, total)
	}
}

// orderByPosition sorts regions by page, top edge and left edge, and
// numbers them in that order
func orderByPosition(regions []model.FigureRegion) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.BBox.X0 < b.BBox.X0
	})
	for i := range regions {
		regions[i].Order = i
	}
}

// documentID derives a stable id from the file contents, so repeated runs
// over the same document write identical metadata
func documentID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return uuid.NewSHA1(documentNamespace, h.Sum(nil)).String(), nil
}
