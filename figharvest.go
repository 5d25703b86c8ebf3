// Package figharvest extracts figures and tables from PDF documents.
//
// A run locates figure regions, renders or decodes them to PNG, drops the
// ones that belong to the references or appendix, scores the rest and
// writes them to an output directory together with a metadata file.
//
// Basic usage:
//
//	res, err := figharvest.Open("paper.pdf").
//	    OutputDir("out/figures").
//	    Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, fig := range res.Selected {
//	    fmt.Println(fig.Filename, fig.Caption)
//	}
//
// Regions come from the first extraction strategy that succeeds: the
// pdffigures2 localizer (with density based reconstruction for captions it
// found no region for), then a raw scan of the embedded images and their
// captions.
package figharvest

import (
	"context"

	"github.com/figharvest/figharvest/config"
	"github.com/figharvest/figharvest/localizer"
	"github.com/figharvest/figharvest/model"
)

// Localizer finds figure regions with an external layout tool.
// *localizer.Localizer implements it.
type Localizer interface {
	Localize(ctx context.Context, pdfPath, workDir string) (*localizer.Result, error)
}

// Open returns an Extractor for the PDF at filename, configured with
// config.Default(). Nothing is read until Run.
//
// Example:
//
//	res, err := figharvest.Open("paper.pdf").OutputDir("figs").MaxFigures(4).Run(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(config.Default()),
	}
}

// Figure is one extracted figure or table
type Figure struct {
	Filename string // empty when the figure was not written
	Path     string
	Page     int
	FigType  model.FigType
	FigName  string
	Caption  string
	BBox     model.Rect
	Source   model.Source
	Width    int
	Height   int
	Score    float64
	Selected bool
}

// Block is an entry of the document's reading sequence. Text blocks carry
// their text; image blocks name the figure file written for them.
type Block struct {
	Kind     model.BlockKind
	Page     int
	BBox     model.Rect
	Text     string
	Filename string
	Caption  string

	objectID string
}

// Result is the outcome of a run
type Result struct {
	DocumentID   string
	Title        string // from the document information dictionary
	PDFPath      string
	TotalPages   int
	AppendixPage int // 0 when no appendix was found
	Strategy     string
	Figures      []Figure // every figure kept after filtering, in document order
	Selected     []Figure // the top scoring figures, in document order
	Blocks       []Block  // reading sequence, filled by the raw strategy
	MetadataPath string
	Report       *Report
}
