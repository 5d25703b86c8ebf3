// Package caption pairs raster images with the caption text printed below
// them and parses figure labels out of caption text.
//
// An Associator looks for a text block that starts at or below the image's
// bottom edge, within a small vertical gap, overlapping at least half of the
// image's width and containing a figure or table keyword. The closest such
// block wins:
//
//	a := caption.NewAssociator(caption.DefaultConfig())
//	if m, ok := a.Find(img.Rect, page.TextBlocks()); ok {
//		typ, name, _ := caption.Parse(m.Text)
//		...
//	}
package caption
