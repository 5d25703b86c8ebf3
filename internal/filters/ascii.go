package filters

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

// ASCIIHexDecode decodes hex digit pairs up to the > marker. White space
// is ignored and an odd final digit is padded with zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	if end := bytes.IndexByte(data, '>'); end >= 0 {
		data = data[:end]
	}
	digits := make([]byte, 0, len(data)+1)
	for _, c := range data {
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("ASCIIHex: %w", err)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 data up to the ~> marker, with an optional
// leading <~.
func ASCII85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimLeftFunc(data, func(r rune) bool { return r < 0x80 && isSpace(byte(r)) })
	data = bytes.TrimPrefix(data, []byte("<~"))
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	out, err := io.ReadAll(ascii85.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("ASCII85: %w", err)
	}
	return out, nil
}
