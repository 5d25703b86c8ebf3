package font

import (
	"fmt"

	"github.com/figharvest/figharvest/core"
)

// defaultCIDWidth applies when a CIDFont has no /DW
const defaultCIDWidth = 1000

// loadComposite reads the code to CID mapping of a Type0 font and the CID
// widths of its descendant CIDFont.
func (f *Font) loadComposite(dict core.Dict, resolve Resolver) error {
	switch enc := resolveObject(dict.Get("Encoding"), resolve).(type) {
	case core.Name:
		f.codes = PredefinedCMap(string(enc))
	case *core.Stream:
		data, err := enc.Decode()
		if err != nil {
			return fmt.Errorf("decode encoding cmap: %w", err)
		}
		if f.codes, err = ParseCMap(data); err != nil {
			return err
		}
	default:
		f.codes = PredefinedCMap("Identity-H")
	}
	f.Vertical = f.codes.Vertical

	f.missing = defaultCIDWidth
	descendants, ok := resolveObject(dict.Get("DescendantFonts"), resolve).(core.Array)
	if !ok || len(descendants) == 0 {
		return nil
	}
	cidFont, ok := resolveObject(descendants[0], resolve).(core.Dict)
	if !ok {
		return fmt.Errorf("descendant font is %T", descendants[0])
	}
	if dw, ok := number(resolveObject(cidFont.Get("DW"), resolve)); ok {
		f.missing = dw
	}
	if w, ok := resolveObject(cidFont.Get("W"), resolve).(core.Array); ok {
		f.parseCIDWidths(w, resolve)
	}
	return nil
}

// parseCIDWidths reads a /W array. Its entries are either
// "c [w1 w2 ...]", giving widths for consecutive CIDs from c, or
// "cfirst clast w", giving one width to a CID range.
func (f *Font) parseCIDWidths(w core.Array, resolve Resolver) {
	for i := 0; i < len(w); {
		first, ok := number(w[i])
		if !ok || i+1 >= len(w) {
			return
		}
		if list, ok := resolveObject(w[i+1], resolve).(core.Array); ok {
			for j, obj := range list {
				if width, ok := number(obj); ok {
					f.widths[uint32(first)+uint32(j)] = width
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			return
		}
		last, ok1 := number(w[i+1])
		width, ok2 := number(w[i+2])
		if !ok1 || !ok2 || last < first || last-first >= maxRangeExpansion {
			return
		}
		for cid := uint32(first); cid <= uint32(last); cid++ {
			f.widths[cid] = width
		}
		i += 3
	}
}
