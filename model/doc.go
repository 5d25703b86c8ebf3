// Package model defines the geometry and figure types shared by the
// extraction packages.
//
// # Geometry
//
// Two coordinate conventions are used:
//
//   - [BBox] is display space, origin bottom-left with y growing up. The
//     content stream interpreters produce it by starting from
//     [PageFrame.Matrix], which moves the crop box to the origin and
//     applies the page rotation.
//   - [Rect] is top-down page space, origin at the top-left of the page as
//     displayed. Everything downstream of the scanner works in it.
//
// [PageFrame] converts between the two for one page. [Matrix] and [Point]
// support the transformations applied while interpreting content streams.
//
// # Page blocks
//
// A scanned page is a sequence of [PageBlock] values, either [TextBlock] or
// [ImageBlock], in content-stream order.
//
// # Figures
//
// A [FigureRegion] is a located figure or table with its rendered [Raster].
// Every region carries a [Source] naming the component that produced its
// box, and [FigureRegion.Validate] checks the invariants every emitted
// region satisfies:
//
//	if err := region.Validate(totalPages); err != nil {
//	    // drop it
//	}
//
// [ScoredImage] pairs a region with its importance score for selection.
package model
