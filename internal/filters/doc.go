// Package filters decodes the data of PDF streams.
//
// [Decode] dispatches on the filter name, accepting the abbreviations of
// inline images:
//
//	data, err := filters.Decode("FlateDecode", raw, filters.Params{"Predictor": 12, "Columns": 4})
//
// FlateDecode and LZWDecode undo TIFF predictor 2 and the PNG predictors
// 10 to 15. ASCIIHexDecode, ASCII85Decode, RunLengthDecode and
// CCITTFaxDecode are also available. DCTDecode and JPXDecode data is
// returned unchanged for the image decoder; other filters, JBIG2Decode
// among them, fail with [ErrUnsupported].
package filters
