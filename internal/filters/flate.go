package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// FlateDecode inflates zlib data and undoes any predictor. A stream cut
// short after some output still yields what was inflated.
func FlateDecode(data []byte, p Params) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flate: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("flate: %w", err)
	}
	return unpredict(out, p)
}

// unpredict reverses /Predictor 2 (TIFF) or 10 to 15 (PNG, per-row tag)
func unpredict(data []byte, p Params) ([]byte, error) {
	switch pred := p.Int("Predictor", 1); {
	case pred == 1:
		return data, nil
	case pred == 2:
		return unpredictTIFF(data, p)
	case pred >= 10 && pred <= 15:
		return unpredictPNG(data, p)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", pred)
	}
}

// sampleLayout returns bytes per pixel, rounded up to one, and bytes per row
func sampleLayout(p Params) (bpp, stride int) {
	colors := p.Int("Colors", 1)
	bpc := p.Int("BitsPerComponent", 8)
	columns := p.Int("Columns", 1)
	return max(1, colors*bpc/8), (columns*colors*bpc + 7) / 8
}

func unpredictTIFF(data []byte, p Params) ([]byte, error) {
	if bpc := p.Int("BitsPerComponent", 8); bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor with %d bits per component", bpc)
	}
	bpp, stride := sampleLayout(p)
	if stride == 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("TIFF predictor: %d bytes is not whole rows of %d", len(data), stride)
	}
	out := bytes.Clone(data)
	for row := 0; row < len(out); row += stride {
		line := out[row : row+stride]
		for i := bpp; i < len(line); i++ {
			line[i] += line[i-bpp]
		}
	}
	return out, nil
}

func unpredictPNG(data []byte, p Params) ([]byte, error) {
	bpp, stride := sampleLayout(p)
	if len(data)%(stride+1) != 0 {
		return nil, fmt.Errorf("PNG predictor: %d bytes is not whole rows of %d", len(data), stride+1)
	}

	out := make([]byte, 0, len(data)/(stride+1)*stride)
	prev := make([]byte, stride)
	for len(data) > 0 {
		tag := data[0]
		start := len(out)
		out = append(out, data[1:stride+1]...)
		line := out[start:]
		data = data[stride+1:]

		for i := range line {
			var left, upLeft byte
			if i >= bpp {
				left, upLeft = line[i-bpp], prev[i-bpp]
			}
			up := prev[i]
			switch tag {
			case 0:
			case 1:
				line[i] += left
			case 2:
				line[i] += up
			case 3:
				line[i] += byte((int(left) + int(up)) / 2)
			case 4:
				line[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("PNG predictor: unknown row tag %d", tag)
			}
		}
		prev = line
	}
	return out, nil
}

// paeth picks the neighbour closest to left + up - upLeft
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
