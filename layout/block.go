package layout

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/text"
)

// Block is a run of lines that sit close together and share a horizontal
// extent, such as a paragraph or a caption.
type Block struct {
	BBox      model.BBox // display space, bottom-up
	Fragments []text.TextFragment
	Lines     [][]text.TextFragment // top to bottom, each in reading order
	Index     int                   // position in reading order

	// Seq is the smallest content-stream sequence number of any fragment,
	// which places the block among the page's images.
	Seq int
}

// BlockLayout is the detected block structure of a page
type BlockLayout struct {
	Blocks     []Block
	PageWidth  float64
	PageHeight float64
	Config     BlockConfig
}

// BlockConfig tunes block detection. Tolerances are relative to the
// height of the fragments involved.
type BlockConfig struct {
	// LineTolerance is how far apart two baselines may be and still form
	// one line (default 0.5)
	LineTolerance float64

	// ParagraphGap is the vertical gap between lines that starts a new
	// block (default 1.5)
	ParagraphGap float64

	// MinWidth and MinHeight drop slivers, in points
	MinWidth  float64
	MinHeight float64

	// MergeOverlaps joins blocks whose boxes overlap by more than 30% of
	// the smaller one
	MergeOverlaps bool
}

// DefaultBlockConfig returns the configuration used by the scanner
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		LineTolerance: 0.5,
		ParagraphGap:  1.5,
		MinWidth:      1,
		MinHeight:     1,
		MergeOverlaps: true,
	}
}

// readingOrderTolerance is how close two block tops must be, in points, for
// the blocks to be ordered left to right instead
const readingOrderTolerance = 10

// BlockDetector groups text fragments into blocks
type BlockDetector struct {
	config BlockConfig
}

func NewBlockDetector() *BlockDetector {
	return NewBlockDetectorWithConfig(DefaultBlockConfig())
}

func NewBlockDetectorWithConfig(config BlockConfig) *BlockDetector {
	return &BlockDetector{config: config}
}

// line is one row of fragments with its geometry worked out once
type line struct {
	frags  []text.TextFragment
	box    model.BBox
	height float64 // mean fragment height
}

func newLine(frags []text.TextFragment) line {
	frags = slices.Clone(frags)
	slices.SortStableFunc(frags, func(a, b text.TextFragment) int { return cmp.Compare(a.X, b.X) })
	if lineDirection(frags) == text.RTL {
		slices.Reverse(frags)
	}
	var h float64
	for _, f := range frags {
		h += f.Height
	}
	return line{frags: frags, box: bounds(frags), height: h / float64(len(frags))}
}

// Detect groups fragments into blocks in reading order. Fragments without
// visible text are ignored.
func (d *BlockDetector) Detect(fragments []text.TextFragment, pageWidth, pageHeight float64) *BlockLayout {
	out := &BlockLayout{PageWidth: pageWidth, PageHeight: pageHeight, Config: d.config}

	var visible []text.TextFragment
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) != "" {
			visible = append(visible, f)
		}
	}
	if len(visible) == 0 {
		return out
	}

	blocks := d.paragraphs(d.lines(visible))
	if d.config.MergeOverlaps {
		blocks = mergeOverlaps(blocks)
	}
	slices.SortStableFunc(blocks, func(a, b Block) int {
		if math.Abs(a.BBox.Top()-b.BBox.Top()) > readingOrderTolerance {
			return cmp.Compare(b.BBox.Top(), a.BBox.Top())
		}
		return cmp.Compare(a.BBox.X, b.BBox.X)
	})

	for _, b := range blocks {
		if b.BBox.Width < d.config.MinWidth || b.BBox.Height < d.config.MinHeight {
			continue
		}
		b.Index = len(out.Blocks)
		out.Blocks = append(out.Blocks, b)
	}
	return out
}

// lines splits fragments into rows, top to bottom, by baseline
func (d *BlockDetector) lines(frags []text.TextFragment) []line {
	sameRow := func(a, b text.TextFragment) bool {
		return math.Abs(a.Y-b.Y) <= (a.Height+b.Height)/2*d.config.LineTolerance
	}
	sorted := slices.Clone(frags)
	slices.SortStableFunc(sorted, func(a, b text.TextFragment) int {
		if !sameRow(a, b) {
			return cmp.Compare(b.Y, a.Y)
		}
		return cmp.Compare(a.X, b.X)
	})

	var rows []line
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sameRow(sorted[i-1], sorted[i]) {
			continue
		}
		rows = append(rows, newLine(sorted[start:i]))
		start = i
	}
	return rows
}

// paragraphs joins consecutive rows into blocks. A row starts a new block
// when the gap above it is too large or it shares no horizontal extent
// with the row before.
func (d *BlockDetector) paragraphs(rows []line) []Block {
	joins := func(above, below line) bool {
		gap := above.box.Y - below.box.Top()
		if gap > (above.height+below.height)/2*d.config.ParagraphGap {
			return false
		}
		return above.box.X < below.box.Right() && below.box.X < above.box.Right()
	}

	var blocks []Block
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && joins(rows[i-1], rows[i]) {
			continue
		}
		group := make([][]text.TextFragment, 0, i-start)
		for _, r := range rows[start:i] {
			group = append(group, r.frags)
		}
		blocks = append(blocks, makeBlock(group))
		start = i
	}
	return blocks
}

func makeBlock(lines [][]text.TextFragment) Block {
	b := Block{Lines: lines}
	for _, l := range lines {
		b.Fragments = append(b.Fragments, l...)
	}
	b.BBox = bounds(b.Fragments)
	b.Seq = slices.MinFunc(b.Fragments, func(x, y text.TextFragment) int { return cmp.Compare(x.Seq, y.Seq) }).Seq
	return b
}

// mergeOverlaps folds each block into the first earlier block it overlaps
// substantially, keeping the merged lines top to bottom.
func mergeOverlaps(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	absorbed := make([]bool, len(blocks))
	for i, b := range blocks {
		if absorbed[i] {
			continue
		}
		for j := i + 1; j < len(blocks); j++ {
			if absorbed[j] || !overlapping(b.BBox, blocks[j].BBox) {
				continue
			}
			lines := append(append(make([][]text.TextFragment, 0, len(b.Lines)+len(blocks[j].Lines)), b.Lines...), blocks[j].Lines...)
			slices.SortStableFunc(lines, func(x, y []text.TextFragment) int {
				return cmp.Compare(bounds(y).Top(), bounds(x).Top())
			})
			b = makeBlock(lines)
			absorbed[j] = true
		}
		out = append(out, b)
	}
	return out
}

func overlapping(a, b model.BBox) bool {
	smaller := math.Min(a.Area(), b.Area())
	return smaller > 0 && a.Intersection(b).Area() > 0.3*smaller
}

func bounds(frags []text.TextFragment) model.BBox {
	points := make([]model.Point, 0, 2*len(frags))
	for _, f := range frags {
		points = append(points, model.Point{X: f.X, Y: f.Y}, model.Point{X: f.X + f.Width, Y: f.Y + f.Height})
	}
	return model.BoundsOf(points...)
}

// lineDirection returns the direction most fragments of a line are written
// in. Neutral fragments do not vote.
func lineDirection(frags []text.TextFragment) text.Direction {
	var votes int
	for _, f := range frags {
		switch f.Direction {
		case text.LTR:
			votes--
		case text.RTL:
			votes++
		}
	}
	if votes > 0 {
		return text.RTL
	}
	return text.LTR
}

// GetText returns the page text block by block, separated by blank lines
func (l *BlockLayout) GetText() string {
	if l == nil {
		return ""
	}
	var texts []string
	for _, b := range l.Blocks {
		if t := b.GetText(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n")
}

// LineTexts returns the text of each line. Fragments further apart than a
// tenth of their height are joined with a space.
func (b Block) LineTexts() []string {
	out := make([]string, len(b.Lines))
	for i, row := range b.Lines {
		var sb strings.Builder
		for j, f := range row {
			if j > 0 {
				// right-to-left rows run with decreasing X
				prev := row[j-1]
				if max(f.X-(prev.X+prev.Width), prev.X-(f.X+f.Width)) > f.Height*0.1 {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(f.Text)
		}
		out[i] = sb.String()
	}
	return out
}

// GetText returns the block text with one line per row
func (b Block) GetText() string {
	return strings.Join(b.LineTexts(), "\n")
}

// CharCount returns the number of non-space characters
func (b Block) CharCount() int {
	n := 0
	for _, f := range b.Fragments {
		for _, r := range f.Text {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}
