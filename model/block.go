package model

import "image"

// BlockKind distinguishes the two kinds of page block
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockImage
)

func (k BlockKind) String() string {
	switch k {
	case BlockText:
		return "text"
	case BlockImage:
		return "image"
	default:
		return "unknown"
	}
}

// PageBlock is one text or raster region of a page. The only
// implementations are *TextBlock and *ImageBlock; consumers type-switch on
// the concrete value.
type PageBlock interface {
	Kind() BlockKind
	PageNumber() int
	Bounds() Rect
	Seq() int
	isPageBlock()
}

// TextBlock is a group of text lines that belong together on a page.
type TextBlock struct {
	Page      int // 1-indexed
	Rect      Rect
	Text      string
	Lines     []string
	CharCount int
	Order     int // content-stream position of the first fragment
}

func (b *TextBlock) Kind() BlockKind { return BlockText }
func (b *TextBlock) PageNumber() int { return b.Page }
func (b *TextBlock) Bounds() Rect    { return b.Rect }
func (b *TextBlock) Seq() int        { return b.Order }
func (*TextBlock) isPageBlock()      {}

// ImageBlock is a raster image placed on a page.
//
// Pixels holds the decoded image when the engine understands the encoding.
// Encoded holds the filtered stream bytes when the image is still in a codec
// format (JPEG, JPEG 2000) or the engine could not convert its samples. At
// least one of them is set.
type ImageBlock struct {
	Page     int
	Rect     Rect
	ObjectID string
	Width    int // intrinsic pixel size
	Height   int
	Pixels   image.Image
	Encoded  []byte
	Filter   string
	Order    int
}

func (b *ImageBlock) Kind() BlockKind { return BlockImage }
func (b *ImageBlock) PageNumber() int { return b.Page }
func (b *ImageBlock) Bounds() Rect    { return b.Rect }
func (b *ImageBlock) Seq() int        { return b.Order }
func (*ImageBlock) isPageBlock()      {}

// HasPixels reports whether any pixel data could be retrieved.
func (b *ImageBlock) HasPixels() bool {
	return b.Pixels != nil || len(b.Encoded) > 0
}
