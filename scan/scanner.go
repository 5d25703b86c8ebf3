package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/figharvest/figharvest/core"
	"github.com/figharvest/figharvest/graphicsstate"
	"github.com/figharvest/figharvest/layout"
	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/reader"
)

// PageContent is everything the scanner knows about one page. Blocks are
// in content-stream order; Drawings are the bounds of painted paths.
type PageContent struct {
	Number   int // 1-indexed
	Width    float64
	Height   float64
	Blocks   []model.PageBlock
	Drawings []model.Rect
	Text     string // block text in reading order
}

// TextBlocks returns the text blocks of the page in emission order
func (pc *PageContent) TextBlocks() []*model.TextBlock {
	var out []*model.TextBlock
	for _, b := range pc.Blocks {
		if tb, ok := b.(*model.TextBlock); ok {
			out = append(out, tb)
		}
	}
	return out
}

// ImageBlocks returns the image blocks of the page in emission order
func (pc *PageContent) ImageBlocks() []*model.ImageBlock {
	var out []*model.ImageBlock
	for _, b := range pc.Blocks {
		if ib, ok := b.(*model.ImageBlock); ok {
			out = append(out, ib)
		}
	}
	return out
}

// PageError is a page that could not be scanned
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }

// Scanner walks the pages of an open document
type Scanner struct {
	r        *reader.Reader
	detector *layout.BlockDetector
	logger   zerolog.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger used for page-level diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithBlockConfig overrides the text block grouping parameters
func WithBlockConfig(cfg layout.BlockConfig) Option {
	return func(s *Scanner) { s.detector = layout.NewBlockDetectorWithConfig(cfg) }
}

// New creates a scanner over r
func New(r *reader.Reader, opts ...Option) *Scanner {
	s := &Scanner{
		r:        r,
		detector: layout.NewBlockDetector(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageCount returns the number of pages in the document
func (s *Scanner) PageCount() (int, error) {
	return s.r.PageCount()
}

// Page scans a single page (1-indexed).
func (s *Scanner) Page(pageNum int) (*PageContent, error) {
	page, err := s.r.GetPage(pageNum - 1)
	if err != nil {
		return nil, fmt.Errorf("get page %d: %w", pageNum, err)
	}

	content, err := s.r.ExtractPageContent(page)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", pageNum, err)
	}
	frame := content.Frame
	for _, msg := range content.FallbackFonts {
		s.logger.Debug().Int("page", pageNum).Str("font", msg).Msg("using standard metrics")
	}

	pc := &PageContent{
		Number: pageNum,
		Width:  frame.Width(),
		Height: frame.Height(),
	}

	blocks := s.detector.Detect(content.Fragments, frame.Width(), frame.Height())
	pc.Text = blocks.GetText()
	for _, b := range blocks.Blocks {
		rect := frame.ToRect(b.BBox).Clip(pc.Width, pc.Height)
		if rect.IsEmpty() {
			continue
		}
		lines := b.LineTexts()
		pc.Blocks = append(pc.Blocks, &model.TextBlock{
			Page:      pageNum,
			Rect:      rect,
			Text:      b.GetText(),
			Lines:     lines,
			CharCount: b.CharCount(),
			Order:     b.Seq,
		})
	}

	for k, placement := range content.Images {
		rect := frame.ToRect(placement.BBox).Clip(pc.Width, pc.Height)
		if rect.IsEmpty() {
			continue
		}
		block, ok := s.imageBlock(pageNum, k, rect, placement)
		if !ok {
			continue
		}
		pc.Blocks = append(pc.Blocks, block)
	}

	sort.SliceStable(pc.Blocks, func(i, j int) bool {
		return pc.Blocks[i].Seq() < pc.Blocks[j].Seq()
	})

	for _, d := range content.Drawings {
		rect := frame.ToRect(d.BBox)
		if rect.X1 < 0 || rect.Y1 < 0 || rect.X0 > pc.Width || rect.Y0 > pc.Height {
			continue
		}
		pc.Drawings = append(pc.Drawings, rect.Clamp(pc.Width, pc.Height))
	}

	return pc, nil
}

// imageBlock loads the pixels of an image placement. The block is dropped
// when neither decoded pixels nor encoded bytes can be retrieved.
func (s *Scanner) imageBlock(pageNum, k int, rect model.Rect, p graphicsstate.ImagePlacement) (*model.ImageBlock, bool) {
	block := &model.ImageBlock{
		Page:     pageNum,
		Rect:     rect,
		ObjectID: objectID(pageNum, k, p.Ref),
		Order:    p.Seq,
	}

	img, err := s.r.LoadImage(p.Name, p.Ref, p.Stream)
	if err != nil {
		// the samples may still be usable by an external decoder
		if data, derr := p.Stream.Decode(); derr == nil && len(data) > 0 {
			block.Encoded = data
			s.logger.Debug().Int("page", pageNum).Str("object", block.ObjectID).Err(err).
				Msg("image kept undecoded")
			return block, true
		}
		s.logger.Debug().Int("page", pageNum).Str("object", block.ObjectID).Err(err).
			Msg("image has no retrievable pixels")
		return nil, false
	}

	block.Width, block.Height = img.Width, img.Height
	block.Filter = img.Filter
	pixels, err := img.Image()
	switch {
	case err == nil:
		block.Pixels = pixels
	case errors.Is(err, reader.ErrUnsupportedEncoding):
		s.logger.Debug().Int("page", pageNum).Str("object", block.ObjectID).Err(err).
			Msg("image encoding not decodable in-process")
	default:
		s.logger.Debug().Int("page", pageNum).Str("object", block.ObjectID).Err(err).
			Msg("image decode failed")
	}
	if img.Filter == "DCTDecode" || img.Filter == "JPXDecode" || block.Pixels == nil {
		block.Encoded = img.Data
	}
	return block, block.HasPixels()
}

// objectID names an image by its object number, or by page and emission
// order when it is not an indirect object.
func objectID(pageNum, k int, ref *core.IndirectRef) string {
	if ref != nil {
		return fmt.Sprintf("obj%d", ref.Number)
	}
	return fmt.Sprintf("p%d_i%d", pageNum, k)
}

// Each scans every page in order and calls fn with its content. A page
// that fails to scan is recorded and skipped. Each stops early when ctx is
// cancelled or fn returns an error.
func (s *Scanner) Each(ctx context.Context, fn func(*PageContent) error) ([]PageError, error) {
	total, err := s.r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	var skipped []PageError
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}
		pc, err := s.Page(n)
		if err != nil {
			s.logger.Warn().Int("page", n).Err(err).Msg("skipping page")
			skipped = append(skipped, PageError{Page: n, Err: err})
			continue
		}
		if err := fn(pc); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// FullText returns the text of a page (1-indexed) in reading order. It
// skips image and drawing extraction.
func (s *Scanner) FullText(pageNum int) (string, error) {
	page, err := s.r.GetPage(pageNum - 1)
	if err != nil {
		return "", fmt.Errorf("get page %d: %w", pageNum, err)
	}
	fragments, frame, err := s.r.ExtractTextFragments(page)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", pageNum, err)
	}
	return s.detector.Detect(fragments, frame.Width(), frame.Height()).GetText(), nil
}

// PageSize returns the visible size of a page (1-indexed) in points
func (s *Scanner) PageSize(pageNum int) (float64, float64, error) {
	page, err := s.r.GetPage(pageNum - 1)
	if err != nil {
		return 0, 0, fmt.Errorf("get page %d: %w", pageNum, err)
	}
	frame, err := s.r.PageFrame(page)
	if err != nil {
		return 0, 0, fmt.Errorf("page %d: %w", pageNum, err)
	}
	return frame.Width(), frame.Height(), nil
}
