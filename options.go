package figharvest

import (
	"github.com/rs/zerolog"

	"github.com/figharvest/figharvest/config"
	"github.com/figharvest/figharvest/ocr"
	"github.com/figharvest/figharvest/render"
)

// extractOptions holds the configuration of an Extractor
type extractOptions struct {
	config config.Config

	logger           zerolog.Logger
	renderer         render.Renderer // not owned by the run when set
	localizer        Localizer
	recognizer       ocr.Recognizer
	progress         func(done, total int)
	disableLocalizer bool
}

// defaultOptions returns options built on cfg
func defaultOptions(cfg *config.Config) extractOptions {
	return extractOptions{
		config: *cfg,
		logger: zerolog.Nop(),
	}
}

// clone creates a deep copy of extractOptions
func (o extractOptions) clone() extractOptions {
	n := o
	n.config.Caption.Keywords = append([]string(nil), o.config.Caption.Keywords...)
	n.config.Appendix.Markers = append([]string(nil), o.config.Appendix.Markers...)
	n.config.OCR.Languages = append([]string(nil), o.config.OCR.Languages...)
	return n
}
