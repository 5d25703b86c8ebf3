// Package scan walks the pages of a PDF and emits, per page, the text and
// image blocks in the order the content stream paints them, together with
// the bounds of every painted path.
//
//	s := scan.New(r, scan.WithLogger(logger))
//	skipped, err := s.Each(ctx, func(pc *scan.PageContent) error {
//	    for _, b := range pc.Blocks {
//	        switch b := b.(type) {
//	        case *model.TextBlock:
//	            ...
//	        case *model.ImageBlock:
//	            ...
//	        }
//	    }
//	    return nil
//	})
//
// Rectangles are in top-down page space relative to the crop box. Pages
// that fail to parse are skipped and reported by Each.
package scan
