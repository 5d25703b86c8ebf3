// Package layout groups positioned text fragments into text blocks.
//
// A [BlockDetector] first groups fragments into lines by baseline, then
// lines into blocks separated by vertical gaps or horizontal misalignment:
//
//	detector := layout.NewBlockDetector()
//	blocks := detector.Detect(fragments, pageWidth, pageHeight)
//	for _, b := range blocks.Blocks {
//	    fmt.Println(b.Seq, b.GetText())
//	}
//
// Each [Block] records the smallest content-stream sequence number of its
// fragments so callers can interleave text blocks with images in paint
// order.
package layout
