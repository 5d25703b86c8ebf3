package reader

import (
	"bytes"
	"strings"

	"github.com/figharvest/figharvest/core"
	"github.com/figharvest/figharvest/font"
)

// DocumentInfo is the part of the /Info dictionary worth reporting
type DocumentInfo struct {
	Title    string
	Producer string
	Version  PDFVersion
}

// Info reads the document information dictionary. A missing or damaged
// dictionary gives empty fields.
func (r *Reader) Info() DocumentInfo {
	info := DocumentInfo{Version: r.Version()}
	dict, err := r.GetInfo()
	if err != nil || dict == nil {
		return info
	}
	info.Title = r.textString(dict.Get("Title"))
	info.Producer = r.textString(dict.Get("Producer"))
	return info
}

func (r *Reader) textString(obj core.Object) string {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return ""
	}
	s, ok := resolved.(core.String)
	if !ok {
		return ""
	}
	return DecodeTextString([]byte(s))
}

var utf16BOM = []byte{0xFE, 0xFF}

// DecodeTextString decodes a PDF text string: UTF-16BE after a byte order
// mark, PDFDocEncoding otherwise.
func DecodeTextString(data []byte) string {
	var out string
	if bytes.HasPrefix(data, utf16BOM) {
		out = font.DecodeUTF16BE(data[len(utf16BOM):])
	} else {
		out = font.PDFDocEncoding.DecodeString(data)
	}
	return font.NormalizeUnicode(strings.TrimSpace(strings.TrimRight(out, "\x00")))
}
