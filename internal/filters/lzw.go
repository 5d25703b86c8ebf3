package filters

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
	tifflzw "golang.org/x/image/tiff/lzw"
)

// LZWDecode decompresses LZW data and undoes any predictor.
//
// The default /EarlyChange 1 widens codes one entry early, as TIFF does,
// and goes through the TIFF decoder. /EarlyChange 0 is the GIF-style
// stream compress/lzw reads.
func LZWDecode(data []byte, p Params) ([]byte, error) {
	var rc io.ReadCloser
	if p.Int("EarlyChange", 1) == 0 {
		rc = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		rc = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("lzw: %w", err)
	}
	return unpredict(out, p)
}

// RunLengthDecode expands PackBits style data. A length byte n below 128
// copies n+1 literal bytes, above 128 repeats the next byte 257-n times,
// and 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				return nil, fmt.Errorf("run-length literal overruns data at offset %d", i-1)
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run-length repeat missing byte at offset %d", i-1)
			}
			out = append(out, bytes.Repeat(data[i:i+1], 257-n)...)
			i++
		}
	}
	return out, nil
}

// CCITTFaxDecode expands Group 3 or Group 4 fax data to one bit per pixel,
// 1 meaning white unless /BlackIs1 is set. /K below zero selects Group 4.
func CCITTFaxDecode(data []byte, p Params) ([]byte, error) {
	format := ccitt.Group3
	if p.Int("K", 0) < 0 {
		format = ccitt.Group4
	}
	rows := p.Int("Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, format,
		p.Int("Columns", 1728), rows, &ccitt.Options{Invert: p.Bool("BlackIs1", false)})
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ccitt: %w", err)
	}
	return out, nil
}
