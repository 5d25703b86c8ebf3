package figharvest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned by Run
var (
	// ErrNoOutputDir is returned when no output directory was configured
	ErrNoOutputDir = errors.New("output directory not set")
	// ErrEncrypted is returned for documents with an /Encrypt dictionary
	ErrEncrypted = errors.New("encrypted documents are not supported")
	// ErrNoPages is returned for documents without pages
	ErrNoPages = errors.New("document has no pages")
	// ErrStrategySkipped is returned by an extraction strategy that could not
	// run, so the next one is tried
	ErrStrategySkipped = errors.New("strategy skipped")
)

// DropReason says why a page or figure did not make it into the output
type DropReason string

const (
	DropPageError            DropReason = "page_error"
	DropMissingRender        DropReason = "missing_render"
	DropReconstructionFailed DropReason = "reconstruction_failed"
	DropRenderFailed         DropReason = "render_failed"
	DropNoPixels             DropReason = "no_pixels"
	DropDuplicateObject      DropReason = "duplicate_object"
	DropInvalidRegion        DropReason = "invalid_region"
	DropAppendix             DropReason = "appendix"
)

// Warning is a non-fatal problem met during a run. Page is 0 when the
// warning concerns the whole document.
type Warning struct {
	Page  int
	Stage string
	Err   error
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s: page %d: %v", w.Stage, w.Page, w.Err)
	}
	return fmt.Sprintf("%s: %v", w.Stage, w.Err)
}

// FormatWarnings joins warnings into a multi-line string
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// Report counts what a run dropped and collects its warnings
type Report struct {
	Dropped  map[DropReason]int
	Warnings []Warning
	Inverted int // rasters repaired by color inversion
}

func newReport() *Report {
	return &Report{Dropped: make(map[DropReason]int)}
}

func (r *Report) drop(reason DropReason) {
	r.Dropped[reason]++
}

func (r *Report) warn(page int, stage string, err error) {
	r.Warnings = append(r.Warnings, Warning{Page: page, Stage: stage, Err: err})
}

// TotalDropped returns the number of dropped pages and figures
func (r *Report) TotalDropped() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// DroppedByName returns the drop counts keyed by reason name
func (r *Report) DroppedByName() map[string]int {
	if len(r.Dropped) == 0 {
		return nil
	}
	out := make(map[string]int, len(r.Dropped))
	for reason, n := range r.Dropped {
		out[string(reason)] = n
	}
	return out
}

// Summary formats the drop counts, e.g. "dropped 3 (appendix: 2, no_pixels: 1)"
func (r *Report) Summary() string {
	total := r.TotalDropped()
	if total == 0 {
		return "dropped 0"
	}
	reasons := make([]string, 0, len(r.Dropped))
	for reason, n := range r.Dropped {
		if n > 0 {
			reasons = append(reasons, string(reason))
		}
	}
	sort.Strings(reasons)
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s: %d", reason, r.Dropped[DropReason(reason)])
	}
	return fmt.Sprintf("dropped %d (%s)", total, strings.Join(parts, ", "))
}
