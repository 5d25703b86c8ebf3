package font

import (
	"fmt"
	"strings"

	"github.com/figharvest/figharvest/contentstream"
	"github.com/figharvest/figharvest/core"
)

// CMap maps character codes to Unicode text (a ToUnicode CMap) or to CIDs
// (a composite font's /Encoding). Codes are big-endian byte sequences of
// one to four bytes; their length is fixed by the codespace ranges.
type CMap struct {
	Name     string
	Vertical bool

	spaces    []codespace
	unicode   map[uint32]string
	bfRanges  []bfRange
	cids      map[uint32]uint32
	cidRanges []cidRange

	identity bool // code is the CID
	ucs      bool // code is a UTF-16 unit
}

type codespace struct {
	lo, hi uint32
	n      int
}

type bfRange struct {
	lo, hi uint32
	base   []uint16 // destination of lo; later codes increment the last unit
	each   []string // explicit destinations, one per code
}

type cidRange struct {
	lo, hi uint32
	cid    uint32
}

// maxRangeExpansion bounds the size of a bfrange destination array
const maxRangeExpansion = 1 << 16

// ParseCMap reads a CMap program. Only the mapping sections are
// interpreted; other PostScript is ignored.
func ParseCMap(data []byte) (*CMap, error) {
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return nil, fmt.Errorf("cmap: %w", err)
	}

	cm := &CMap{unicode: map[uint32]string{}, cids: map[uint32]uint32{}}
	for _, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "endcodespacerange":
			for i := 0; i+1 < len(args); i += 2 {
				lo, n, ok1 := codeOf(args[i])
				hi, _, ok2 := codeOf(args[i+1])
				if ok1 && ok2 {
					cm.spaces = append(cm.spaces, codespace{lo: lo, hi: hi, n: n})
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(args); i += 2 {
				code, _, ok := codeOf(args[i])
				if !ok {
					continue
				}
				if s, ok := destination(args[i+1]); ok {
					cm.unicode[code] = s
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(args); i += 3 {
				cm.addBfRange(args[i], args[i+1], args[i+2])
			}
		case "endcidchar":
			for i := 0; i+1 < len(args); i += 2 {
				code, _, ok := codeOf(args[i])
				cid, isInt := args[i+1].(core.Int)
				if ok && isInt && cid >= 0 {
					cm.cids[code] = uint32(cid)
				}
			}
		case "endcidrange":
			for i := 0; i+2 < len(args); i += 3 {
				lo, _, ok1 := codeOf(args[i])
				hi, _, ok2 := codeOf(args[i+1])
				cid, isInt := args[i+2].(core.Int)
				if ok1 && ok2 && isInt && lo <= hi && cid >= 0 {
					cm.cidRanges = append(cm.cidRanges, cidRange{lo: lo, hi: hi, cid: uint32(cid)})
				}
			}
		case "def":
			if len(args) == 2 {
				key, _ := args[0].(core.Name)
				switch key {
				case "CMapName":
					if name, ok := args[1].(core.Name); ok {
						cm.Name = string(name)
					}
				case "WMode":
					if mode, ok := args[1].(core.Int); ok {
						cm.Vertical = mode == 1
					}
				}
			}
		case "usecmap":
			if len(args) == 1 {
				if name, ok := args[0].(core.Name); ok {
					cm.inherit(PredefinedCMap(string(name)))
				}
			}
		}
	}
	return cm, nil
}

func (cm *CMap) addBfRange(loObj, hiObj, dst core.Object) {
	lo, _, ok1 := codeOf(loObj)
	hi, _, ok2 := codeOf(hiObj)
	if !ok1 || !ok2 || lo > hi || hi-lo >= maxRangeExpansion {
		return
	}
	switch v := dst.(type) {
	case core.String:
		units := utf16Units([]byte(v))
		if len(units) == 0 {
			return
		}
		cm.bfRanges = append(cm.bfRanges, bfRange{lo: lo, hi: hi, base: units})
	case core.Array:
		r := bfRange{lo: lo, hi: hi, each: make([]string, 0, len(v))}
		for _, item := range v {
			s, _ := destination(item)
			r.each = append(r.each, s)
		}
		cm.bfRanges = append(cm.bfRanges, r)
	}
}

// inherit takes over the codespace and CID mapping of a predefined parent
func (cm *CMap) inherit(parent *CMap) {
	if parent == nil {
		return
	}
	if len(cm.spaces) == 0 {
		cm.spaces = parent.spaces
	}
	cm.identity = cm.identity || parent.identity
	cm.ucs = cm.ucs || parent.ucs
	cm.Vertical = cm.Vertical || parent.Vertical
}

// PredefinedCMap returns the built-in CMap of that name. Identity-H and
// Identity-V map two-byte codes to equal CIDs. The Unicode CMaps (names
// containing UCS2 or UTF16) decode two-byte codes as text. Other names
// yield a two-byte CMap without mappings; nil is returned for an empty
// name.
func PredefinedCMap(name string) *CMap {
	if name == "" {
		return nil
	}
	cm := &CMap{
		Name:     name,
		Vertical: strings.HasSuffix(name, "-V"),
		spaces:   []codespace{{lo: 0, hi: 0xFFFF, n: 2}},
	}
	switch {
	case strings.HasPrefix(name, "Identity-"):
		cm.identity = true
	case strings.Contains(name, "UCS2") || strings.Contains(name, "UTF16"):
		cm.ucs = true
	}
	return cm
}

// Next splits the first code off data and returns it with its length in
// bytes. Without a matching codespace a single byte is consumed.
func (cm *CMap) Next(data []byte) (code uint32, n int) {
	if len(data) == 0 {
		return 0, 0
	}
	for size := 1; size <= 4 && size <= len(data); size++ {
		c := bigEndian(data[:size])
		for _, sp := range cm.spaces {
			if sp.n == size && c >= sp.lo && c <= sp.hi {
				return c, size
			}
		}
	}
	if len(cm.spaces) > 0 && cm.spaces[0].n <= len(data) {
		size := cm.spaces[0].n
		return bigEndian(data[:size]), size
	}
	return uint32(data[0]), 1
}

// Unicode returns the text mapped to code
func (cm *CMap) Unicode(code uint32) (string, bool) {
	if s, ok := cm.unicode[code]; ok {
		return s, true
	}
	for _, r := range cm.bfRanges {
		if code < r.lo || code > r.hi {
			continue
		}
		off := code - r.lo
		if r.each != nil {
			if int(off) < len(r.each) && r.each[off] != "" {
				return r.each[off], true
			}
			return "", false
		}
		units := append([]uint16(nil), r.base...)
		units[len(units)-1] += uint16(off)
		return utf16String(units), true
	}
	if cm.ucs {
		return utf16String([]uint16{uint16(code)}), true
	}
	return "", false
}

// CID returns the CID of code
func (cm *CMap) CID(code uint32) (uint32, bool) {
	if cid, ok := cm.cids[code]; ok {
		return cid, true
	}
	for _, r := range cm.cidRanges {
		if code >= r.lo && code <= r.hi {
			return r.cid + code - r.lo, true
		}
	}
	if cm.identity {
		return code, true
	}
	return 0, false
}

// codeOf reads a hex string source code
func codeOf(obj core.Object) (code uint32, n int, ok bool) {
	s, isStr := obj.(core.String)
	if !isStr || len(s) == 0 || len(s) > 4 {
		return 0, 0, false
	}
	return bigEndian([]byte(s)), len(s), true
}

// destination decodes a bfchar destination: UTF-16BE bytes or a glyph name
func destination(obj core.Object) (string, bool) {
	switch v := obj.(type) {
	case core.String:
		units := utf16Units([]byte(v))
		if len(units) == 0 {
			return "", false
		}
		return utf16String(units), true
	case core.Name:
		if r, ok := GlyphToRune(string(v)); ok {
			return string(r), true
		}
	}
	return "", false
}

func bigEndian(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func utf16Units(b []byte) []uint16 {
	if len(b) == 1 {
		return []uint16{uint16(b[0])}
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

func utf16String(units []uint16) string {
	b := make([]byte, 0, len(units)*2)
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return DecodeUTF16BE(b)
}
