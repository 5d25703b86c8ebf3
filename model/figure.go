package model

import (
	"errors"
	"fmt"
)

// FigType is the kind of figure a region holds
type FigType int

const (
	FigTypeFigure FigType = iota
	FigTypeTable
)

func (t FigType) String() string {
	if t == FigTypeTable {
		return "Table"
	}
	return "Figure"
}

// MarshalText implements encoding.TextMarshaler.
func (t FigType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseFigType maps the labels used by layout tools ("Figure", "Table") to a
// FigType. Unknown labels are figures.
func ParseFigType(s string) FigType {
	switch s {
	case "Table", "table", "TABLE":
		return FigTypeTable
	default:
		return FigTypeFigure
	}
}

// Source records which component produced a region's bounding box.
type Source int

const (
	SourceLocalized Source = iota
	SourceReconstructed
	SourceRawHeuristic
)

func (s Source) String() string {
	switch s {
	case SourceLocalized:
		return "localized"
	case SourceReconstructed:
		return "reconstructed"
	case SourceRawHeuristic:
		return "raw_heuristic"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Raster is an encoded image together with its pixel dimensions.
type Raster struct {
	Data   []byte
	Format string // always "png" for emitted figures
	Width  int
	Height int
}

// Area returns the pixel count
func (r Raster) Area() int { return r.Width * r.Height }

// FigureRegion is a figure or table located on a page.
type FigureRegion struct {
	FigType  FigType
	FigName  string // label from the caption, may be empty
	Page     int    // 1-indexed
	BBox     Rect
	Caption  string
	Source   Source
	Raster   Raster
	ObjectID string // raster object id for raw heuristic regions
	Filename string // assigned by the output writer
	Order    int    // encounter index within the run
}

// Errors returned by Validate
var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrEmptyRegion    = errors.New("region has no area")
	ErrNoRaster       = errors.New("region has no raster")
)

// Validate checks the invariants every emitted region must satisfy.
func (r FigureRegion) Validate(totalPages int) error {
	if r.Page < 1 || r.Page > totalPages {
		return fmt.Errorf("page %d of %d: %w", r.Page, totalPages, ErrPageOutOfRange)
	}
	if r.BBox.Area() <= 0 {
		return fmt.Errorf("page %d bbox %+v: %w", r.Page, r.BBox, ErrEmptyRegion)
	}
	if len(r.Raster.Data) == 0 || r.Raster.Width <= 0 || r.Raster.Height <= 0 {
		return fmt.Errorf("page %d: %w", r.Page, ErrNoRaster)
	}
	return nil
}

// Label returns the "Figure3" style name used for localized output files,
// or an empty string when the region carries no name.
func (r FigureRegion) Label() string {
	if r.FigName == "" {
		return ""
	}
	return r.FigType.String() + r.FigName
}

// ScoredImage pairs a region with its importance score.
type ScoredImage struct {
	Region FigureRegion
	Score  float64
	Index  int // encounter order, breaks score ties
}
