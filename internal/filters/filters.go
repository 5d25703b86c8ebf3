package filters

import "fmt"

// Params holds /DecodeParms entries as plain Go values: int, float64, bool
// or string.
type Params map[string]any

// Int returns the integer parameter key, or def when it is absent or not a
// number.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns the boolean parameter key, or def
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// ErrUnsupported is wrapped by Decode for filters it cannot apply
var ErrUnsupported = fmt.Errorf("unsupported filter")

type decoder func(data []byte, p Params) ([]byte, error)

var decoders = map[string]decoder{
	"FlateDecode":     FlateDecode,
	"LZWDecode":       LZWDecode,
	"ASCIIHexDecode":  func(d []byte, _ Params) ([]byte, error) { return ASCIIHexDecode(d) },
	"ASCII85Decode":   func(d []byte, _ Params) ([]byte, error) { return ASCII85Decode(d) },
	"RunLengthDecode": func(d []byte, _ Params) ([]byte, error) { return RunLengthDecode(d) },
	"CCITTFaxDecode":  CCITTFaxDecode,
	// image codecs stay encoded for the image decoder
	"DCTDecode": passThrough,
	"JPXDecode": passThrough,
}

// abbreviations used by inline images
var abbreviations = map[string]string{
	"Fl": "FlateDecode", "LZW": "LZWDecode", "AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode", "RL": "RunLengthDecode", "CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

func passThrough(data []byte, _ Params) ([]byte, error) { return data, nil }

// Decode applies the filter called name. Abbreviated inline image names
// are accepted.
func Decode(name string, data []byte, p Params) ([]byte, error) {
	if full, ok := abbreviations[name]; ok {
		name = full
	}
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return dec(data, p)
}
