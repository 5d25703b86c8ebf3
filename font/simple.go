package font

import (
	"fmt"

	"github.com/figharvest/figharvest/core"
)

// loadSimple reads the encoding and widths of a single-byte font: Type1,
// MMType1, TrueType or Type3.
func (f *Font) loadSimple(dict core.Dict, resolve Resolver) error {
	f.metrics, f.fixed, _ = standardMetrics(f.BaseFont)

	// TrueType fonts without an encoding are usually WinAnsi in practice
	base := StandardEncodingTable
	if f.Subtype == "TrueType" {
		base = WinAnsiEncoding
	}
	f.enc = base

	switch enc := resolveObject(dict.Get("Encoding"), resolve).(type) {
	case core.Name:
		f.enc = GetEncoding(string(enc))
	case core.Dict:
		if name, ok := enc.GetName("BaseEncoding"); ok {
			f.enc = GetEncoding(string(name))
		}
		if diffs, ok := resolveObject(enc.Get("Differences"), resolve).(core.Array); ok {
			f.enc = withDifferences(f.enc, diffs)
		}
	case nil:
	default:
		return fmt.Errorf("invalid /Encoding %T", enc)
	}

	// Type3 glyph widths are in glyph space
	scale := 1.0
	if f.Subtype == "Type3" {
		if m, ok := resolveObject(dict.Get("FontMatrix"), resolve).(core.Array); ok && len(m) == 6 {
			if a, ok := number(m[0]); ok && a != 0 {
				scale = a * 1000
			}
		}
	}

	f.missing = 500
	if desc, ok := resolveObject(dict.Get("FontDescriptor"), resolve).(core.Dict); ok {
		if w, ok := number(desc.Get("MissingWidth")); ok && w > 0 {
			f.missing = w
		}
	}

	widths, ok := resolveObject(dict.Get("Widths"), resolve).(core.Array)
	if !ok {
		return nil
	}
	first, _ := dict.GetInt("FirstChar")
	for i, obj := range widths {
		w, ok := number(resolveObject(obj, resolve))
		if !ok {
			return fmt.Errorf("invalid width at index %d: %T", i, obj)
		}
		code := int(first) + i
		if code < 0 || code > 255 {
			break
		}
		f.widths[uint32(code)] = w * scale
	}
	return nil
}
