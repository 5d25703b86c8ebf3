package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"github.com/figharvest/figharvest/model"
)

// MetadataFile is the name of the metadata file in the output directory
const MetadataFile = "extraction_metadata.json"

// ErrNoDir is returned when the writer has no output directory
var ErrNoDir = errors.New("output directory not set")

// BBox is a bounding box in top-down page points
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Item describes one figure in the metadata file
type Item struct {
	Filename string  `json:"filename"`
	Page     int     `json:"page"`
	Caption  string  `json:"caption"`
	BBox     BBox    `json:"bbox"`
	Source   string  `json:"source"`
	FigType  string  `json:"fig_type"`
	FigName  string  `json:"fig_name"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
	Score    float64 `json:"score"`
	Selected bool    `json:"selected"`
	Written  bool    `json:"written"`
}

// Sources counts figures per provenance
type Sources struct {
	Localized     int `json:"localized"`
	Reconstructed int `json:"reconstructed"`
	RawHeuristic  int `json:"raw_heuristic"`
}

// Metadata is the content of extraction_metadata.json
type Metadata struct {
	DocumentID   string         `json:"document_id"`
	PDF          string         `json:"pdf"`
	PDFVersion   string         `json:"pdf_version,omitempty"`
	Title        string         `json:"title,omitempty"`
	Producer     string         `json:"producer,omitempty"`
	TotalPages   int            `json:"total_pages"`
	AppendixPage int            `json:"appendix_page,omitempty"`
	Strategy     string         `json:"strategy"`
	Total        int            `json:"total"`
	Figures      int            `json:"figures"`
	Tables       int            `json:"tables"`
	Sources      Sources        `json:"sources"`
	Dropped      map[string]int `json:"dropped,omitempty"`
	Selected     []string       `json:"selected"`
	Items        []Item         `json:"items"`
}

// Run describes the document the figures came from
type Run struct {
	DocumentID   string
	PDF          string
	PDFVersion   string
	Title        string
	Producer     string
	TotalPages   int
	AppendixPage int
	Strategy     string
	Dropped      map[string]int
}

// Manifest is what a Write call put on disk
type Manifest struct {
	Dir          string
	MetadataPath string
	Metadata     Metadata
	Written      []string // file names of the PNGs, in item order
}

// Writer writes figures into one directory
type Writer struct {
	dir            string
	keepUnselected bool
	logger         zerolog.Logger
}

// Option configures a Writer
type Option func(*Writer)

// KeepUnselected makes the writer emit PNGs for figures that were scored
// but not selected. They are always listed in the metadata.
func KeepUnselected(keep bool) Option {
	return func(w *Writer) { w.keepUnselected = keep }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a writer for dir. The directory is created on Write.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Assign gives every figure a unique file name. Figures are named in the
// order given, so the same input always yields the same names.
func Assign(figures []model.ScoredImage) {
	n := newNamer()
	for i := range figures {
		figures[i].Region.Filename = n.next(BaseName(figures[i].Region))
	}
}

// Write names the figures, writes their PNGs and the metadata file.
// figures holds every scored figure in output order; selected reports
// whether a figure made the top-K cut.
//
// Files are staged in a sibling directory and moved into place once all of
// them are written, so a failed Write leaves the output directory as it was.
func (w *Writer) Write(run Run, figures []model.ScoredImage, selected func(model.ScoredImage) bool) (*Manifest, error) {
	if w.dir == "" {
		return nil, ErrNoDir
	}
	parent := filepath.Dir(w.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	stage, err := os.MkdirTemp(parent, "."+filepath.Base(w.dir)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(stage)

	Assign(figures)

	meta := Metadata{
		DocumentID:   run.DocumentID,
		PDF:          run.PDF,
		PDFVersion:   run.PDFVersion,
		Title:        run.Title,
		Producer:     run.Producer,
		TotalPages:   run.TotalPages,
		AppendixPage: run.AppendixPage,
		Strategy:     run.Strategy,
		Total:        len(figures),
		Dropped:      run.Dropped,
		Selected:     []string{},
		Items:        make([]Item, 0, len(figures)),
	}
	manifest := &Manifest{Dir: w.dir}

	for _, f := range figures {
		r := f.Region
		isSelected := selected != nil && selected(f)
		write := isSelected || w.keepUnselected

		if write {
			path := filepath.Join(stage, r.Filename)
			if err := os.WriteFile(path, r.Raster.Data, 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", r.Filename, err)
			}
			manifest.Written = append(manifest.Written, r.Filename)
		}

		if r.FigType == model.FigTypeTable {
			meta.Tables++
		} else {
			meta.Figures++
		}
		switch r.Source {
		case model.SourceLocalized:
			meta.Sources.Localized++
		case model.SourceReconstructed:
			meta.Sources.Reconstructed++
		case model.SourceRawHeuristic:
			meta.Sources.RawHeuristic++
		}
		if isSelected {
			meta.Selected = append(meta.Selected, r.Filename)
		}

		meta.Items = append(meta.Items, Item{
			Filename: r.Filename,
			Page:     r.Page,
			Caption:  r.Caption,
			BBox:     BBox{X1: r.BBox.X0, Y1: r.BBox.Y0, X2: r.BBox.X1, Y2: r.BBox.Y1},
			Source:   r.Source.String(),
			FigType:  r.FigType.String(),
			FigName:  r.FigName,
			Width:    r.Raster.Width,
			Height:   r.Raster.Height,
			Format:   r.Raster.Format,
			Score:    f.Score,
			Selected: isSelected,
			Written:  write,
		})
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stage, MetadataFile), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	if err := w.publish(stage, append(slices.Clone(manifest.Written), MetadataFile)); err != nil {
		return nil, err
	}
	for _, name := range manifest.Written {
		w.logger.Debug().Str("fig", name).Msg("figure written")
	}
	manifest.MetadataPath = filepath.Join(w.dir, MetadataFile)
	manifest.Metadata = meta

	w.logger.Info().
		Str("dir", w.dir).
		Int("figures", meta.Figures).
		Int("tables", meta.Tables).
		Int("written", len(manifest.Written)).
		Msg("extraction output written")
	return manifest, nil
}

// publish moves the staged files into the output directory. A missing
// directory is replaced by the staging directory in one rename; otherwise
// files move one by one with the metadata last.
func (w *Writer) publish(stage string, names []string) error {
	if _, err := os.Lstat(w.dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.Chmod(stage, 0o755); err != nil {
			return fmt.Errorf("publish output: %w", err)
		}
		if err := os.Rename(stage, w.dir); err != nil {
			return fmt.Errorf("publish output: %w", err)
		}
		return nil
	}
	for _, name := range names {
		if err := os.Rename(filepath.Join(stage, name), filepath.Join(w.dir, name)); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
	}
	return nil
}

// ReadMetadata loads a metadata file written by Write
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}
