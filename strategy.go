package figharvest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // embedded JPEG streams
	"image/png"

	"github.com/figharvest/figharvest/caption"
	"github.com/figharvest/figharvest/colorfix"
	"github.com/figharvest/figharvest/localizer"
	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/reconstruct"
	"github.com/figharvest/figharvest/scan"
)

// strategy is one way of finding the figure regions of a document
type strategy struct {
	name    string
	extract func(ctx context.Context, r *run) ([]model.FigureRegion, error)
}

// strategies are tried in order until one does not report
// ErrStrategySkipped
var strategies = []strategy{
	{name: "localized", extract: extractLocalized},
	{name: "raw", extract: extractRaw},
}

// extract returns the regions of the first strategy that runs, and its name
func (r *run) extract(ctx context.Context) ([]model.FigureRegion, string, error) {
	for _, s := range strategies {
		regions, err := s.extract(ctx, r)
		if errors.Is(err, ErrStrategySkipped) {
			r.logger.Info().Str("strategy", s.name).Err(err).Msg("strategy skipped")
			continue
		}
		if err != nil {
			return nil, "", err
		}
		r.logger.Info().Str("strategy", s.name).Int("regions", len(regions)).Msg("regions extracted")
		return regions, s.name, nil
	}
	return nil, "", fmt.Errorf("no extraction strategy ran")
}

// extractLocalized takes the figures found by the localizer and
// reconstructs the regions of the captions it found no figure for
func extractLocalized(ctx context.Context, r *run) ([]model.FigureRegion, error) {
	if r.localizer == nil {
		return nil, fmt.Errorf("%w: localizer disabled", ErrStrategySkipped)
	}

	res, err := r.localizer.Localize(ctx, r.path, r.cfg.Localizer.WorkDir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn().Err(err).Msg("localizer failed, falling back to raw scan")
		r.report.warn(0, "localize", err)
		return nil, fmt.Errorf("%w: %v", ErrStrategySkipped, err)
	}

	for _, m := range res.Missing {
		r.report.drop(DropMissingRender)
		r.report.warn(m.Page, "localize", fmt.Errorf("render of %s: %w", m.Name, m.Err))
	}

	regions := make([]model.FigureRegion, 0, len(res.Figures)+len(res.Regionless))
	for _, f := range res.Figures {
		regions = append(regions, f.FigureRegion())
	}

	for i, c := range res.Regionless {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		region, err := r.reconstruct(c)
		r.progress(i+1, len(res.Regionless))
		if err != nil {
			r.logger.Warn().Int("page", c.Page).Str("fig", c.FigType.String()+c.Name).Err(err).
				Msg("regionless caption dropped")
			continue
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// reconstruct infers and renders the region above a regionless caption.
// The drop is counted before an error is returned.
func (r *run) reconstruct(c localizer.RegionlessCaption) (model.FigureRegion, error) {
	pc, err := r.page(c.Page)
	if err != nil {
		r.report.drop(DropReconstructionFailed)
		r.report.warn(c.Page, "reconstruct", err)
		return model.FigureRegion{}, err
	}

	rect, ok := r.reconstructor.Region(reconstruct.FromPage(pc), c.Boundary)
	if !ok {
		r.report.drop(DropReconstructionFailed)
		return model.FigureRegion{}, fmt.Errorf("no drawing content above caption")
	}

	if r.renderer == nil {
		r.report.drop(DropRenderFailed)
		return model.FigureRegion{}, fmt.Errorf("no renderer")
	}
	img, err := r.renderer.Render(c.Page, rect, r.cfg.RenderDPI)
	if err != nil {
		r.report.drop(DropRenderFailed)
		r.report.warn(c.Page, "render", err)
		return model.FigureRegion{}, err
	}
	raster, err := encodeRaster(img)
	if err != nil {
		r.report.drop(DropRenderFailed)
		return model.FigureRegion{}, err
	}

	return model.FigureRegion{
		FigType: c.FigType,
		FigName: c.Name,
		Page:    c.Page,
		BBox:    rect,
		Caption: c.Text,
		Source:  model.SourceReconstructed,
		Raster:  raster,
	}, nil
}

// extractRaw scans every page for embedded images and the captions below
// them
func extractRaw(ctx context.Context, r *run) ([]model.FigureRegion, error) {
	var regions []model.FigureRegion

	skipped, err := r.scanner.Each(ctx, func(pc *scan.PageContent) error {
		texts := pc.TextBlocks()
		for _, blk := range pc.Blocks {
			switch b := blk.(type) {
			case *model.TextBlock:
				r.blocks = append(r.blocks, Block{Kind: model.BlockText, Page: b.Page, BBox: b.Rect, Text: b.Text})

			case *model.ImageBlock:
				region, ok := r.rawRegion(b, texts)
				if !ok {
					continue
				}
				regions = append(regions, region)
				r.blocks = append(r.blocks, Block{
					Kind:     model.BlockImage,
					Page:     b.Page,
					BBox:     b.Rect,
					Caption:  region.Caption,
					objectID: b.ObjectID,
				})
			}
		}
		r.progress(pc.Number, r.total)
		return nil
	})
	for _, pe := range skipped {
		r.report.drop(DropPageError)
		r.report.warn(pe.Page, "scan", pe.Err)
	}
	if err != nil {
		return nil, err
	}
	return regions, nil
}

// rawRegion turns an image block into a region with its caption
func (r *run) rawRegion(b *model.ImageBlock, texts []*model.TextBlock) (model.FigureRegion, bool) {
	if !r.seen.Add(b.ObjectID) {
		r.report.drop(DropDuplicateObject)
		return model.FigureRegion{}, false
	}

	img, source, err := r.pixels(b)
	if err != nil {
		r.report.drop(DropNoPixels)
		r.logger.Debug().Int("page", b.Page).Str("object", b.ObjectID).Err(err).Msg("image dropped")
		return model.FigureRegion{}, false
	}

	img, outcome := r.normalizer.Normalize(img)
	if outcome == colorfix.Inverted {
		r.report.Inverted++
		r.logger.Debug().Int("page", b.Page).Str("object", b.ObjectID).Msg("inverted dark image")
	}

	raster, err := encodeRaster(img)
	if err != nil {
		r.report.drop(DropNoPixels)
		return model.FigureRegion{}, false
	}

	region := model.FigureRegion{
		Page:     b.Page,
		BBox:     b.Rect,
		Source:   model.SourceRawHeuristic,
		Raster:   raster,
		ObjectID: b.ObjectID,
	}
	if m, ok := r.associator.Find(b.Rect, texts); ok {
		region.Caption = m.Text
		if typ, name, ok := caption.Parse(m.Text); ok {
			region.FigType, region.FigName = typ, name
		}
	}
	r.logger.Debug().Int("page", b.Page).Str("object", b.ObjectID).Str("pixels", source).Msg("image extracted")
	return region, true
}

// pixelSource is one way of getting the pixels of an image block
type pixelSource struct {
	name  string
	pixel func(r *run, b *model.ImageBlock) (image.Image, error)
}

var errNoPixels = errors.New("no pixels")

// pixelSources are tried in order until one yields an image
var pixelSources = []pixelSource{
	{name: "decoded", pixel: func(_ *run, b *model.ImageBlock) (image.Image, error) {
		if b.Pixels == nil {
			return nil, errNoPixels
		}
		return b.Pixels, nil
	}},
	{name: "embedded", pixel: func(_ *run, b *model.ImageBlock) (image.Image, error) {
		if len(b.Encoded) == 0 {
			return nil, errNoPixels
		}
		img, _, err := image.Decode(bytes.NewReader(b.Encoded))
		return img, err
	}},
	{name: "rendered", pixel: func(r *run, b *model.ImageBlock) (image.Image, error) {
		if r.renderer == nil {
			return nil, errNoPixels
		}
		return r.renderer.Render(b.Page, b.Rect, r.cfg.RenderDPI)
	}},
}

// pixels returns the image of b from the first source that has it
func (r *run) pixels(b *model.ImageBlock) (image.Image, string, error) {
	var errs []error
	for _, src := range pixelSources {
		img, err := src.pixel(r, b)
		if err == nil && img != nil && !img.Bounds().Empty() {
			return img, src.name, nil
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
		}
	}
	if len(errs) == 0 {
		return nil, "", errNoPixels
	}
	return nil, "", errors.Join(errs...)
}

// encodeRaster encodes img as PNG
func encodeRaster(img image.Image) (model.Raster, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return model.Raster{}, fmt.Errorf("encode png: %w", err)
	}
	b := img.Bounds()
	return model.Raster{Data: buf.Bytes(), Format: "png", Width: b.Dx(), Height: b.Dy()}, nil
}
