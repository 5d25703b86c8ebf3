package core

import (
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
)

// XRefEntryType is the first field of an xref stream row
type XRefEntryType int

const (
	XRefEntryFree XRefEntryType = iota
	XRefEntryUncompressed
	XRefEntryCompressed
)

func (t XRefEntryType) String() string {
	switch t {
	case XRefEntryFree:
		return "free"
	case XRefEntryUncompressed:
		return "uncompressed"
	case XRefEntryCompressed:
		return "compressed"
	}
	return "XRefEntryType(" + strconv.Itoa(int(t)) + ")"
}

// XRefEntry locates one object. For a compressed entry Offset is the number
// of the object stream holding it and Generation its index there.
type XRefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
	Type       XRefEntryType
}

// XRefTable is one cross-reference section with its trailer
type XRefTable struct {
	Entries  map[int]*XRefEntry
	Trailer  Dict
	IsStream bool // read from a cross-reference stream
}

// NewXRefTable creates an empty table
func NewXRefTable() *XRefTable {
	return &XRefTable{Entries: map[int]*XRefEntry{}, Trailer: Dict{}}
}

func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	e, ok := x.Entries[objNum]
	return e, ok
}

func (x *XRefTable) Set(objNum int, entry *XRefEntry) { x.Entries[objNum] = entry }

// Size returns the number of entries, which may be less than /Size
func (x *XRefTable) Size() int { return len(x.Entries) }

// MergeXRefTables overlays sections oldest first, so entries of later
// updates win. The merged trailer is the last one.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, t := range tables {
		maps.Copy(merged.Entries, t.Entries)
		merged.Trailer = t.Trailer
		merged.IsStream = t.IsStream
	}
	return merged
}

// XRefParser reads cross-reference sections from a seekable file
type XRefParser struct {
	r io.ReadSeeker
}

func NewXRefParser(r io.ReadSeeker) *XRefParser {
	return &XRefParser{r: r}
}

// tailSize is how far from the end of the file startxref is looked for
const tailSize = 1024

var startXRef = regexp.MustCompile(`startxref\s+(\d+)`)

// FindXRef returns the offset named by the last startxref keyword
func (x *XRefParser) FindXRef() (int64, error) {
	size, err := x.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}
	from := max(size-tailSize, 0)
	if _, err := x.r.Seek(from, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to trailer area: %w", err)
	}
	tail := make([]byte, size-from)
	if _, err := io.ReadFull(x.r, tail); err != nil {
		return 0, fmt.Errorf("read trailer area: %w", err)
	}

	matches := startXRef.FindAllSubmatch(tail, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	return strconv.ParseInt(string(matches[len(matches)-1][1]), 10, 64)
}

// ParseXRef reads the section at offset, either an "xref" table with its
// trailer or a cross-reference stream.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if _, err := x.r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to xref at %d: %w", offset, err)
	}
	p := NewParser(x.r)
	t, err := p.token()
	if err != nil {
		return nil, err
	}
	switch {
	case t.Type == TokenKeyword && string(t.Value) == "xref":
		return p.xrefTable()
	case t.Type == TokenInteger:
		p.unread(t)
		return p.xrefStream()
	}
	return nil, fmt.Errorf("no xref table or xref stream at offset %d", offset)
}

// xrefTable reads subsections after the xref keyword up to the trailer
func (p *Parser) xrefTable() (*XRefTable, error) {
	table := NewXRefTable()
	for {
		t, err := p.token()
		if err != nil {
			return nil, err
		}
		if t.Type == TokenKeyword && string(t.Value) == "trailer" {
			break
		}
		if t.Type != TokenInteger {
			return nil, fmt.Errorf("xref subsection: unexpected %v", t)
		}
		first, _ := strconv.Atoi(string(t.Value))
		count, err := p.intToken("subsection count")
		if err != nil {
			return nil, err
		}
		for i, iN := 0, count; i < iN; i++ {
			entry, err := p.xrefEntry()
			if err != nil {
				return nil, fmt.Errorf("xref entry %d: %w", first+i, err)
			}
			table.Set(first+i, entry)
		}
	}

	trailer, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	dict, ok := trailer.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is %T, not a dictionary", trailer)
	}
	table.Trailer = dict
	return table, nil
}

// xrefEntry reads "offset generation n|f"
func (p *Parser) xrefEntry() (*XRefEntry, error) {
	offset, err := p.intToken("offset")
	if err != nil {
		return nil, err
	}
	gen, err := p.intToken("generation")
	if err != nil {
		return nil, err
	}
	t, err := p.token()
	if err != nil {
		return nil, err
	}
	entry := &XRefEntry{Offset: int64(offset), Generation: gen}
	switch string(t.Value) {
	case "n":
		entry.InUse, entry.Type = true, XRefEntryUncompressed
	case "f":
		entry.Type = XRefEntryFree
	default:
		return nil, fmt.Errorf("expected n or f, got %v", t)
	}
	return entry, nil
}

func (p *Parser) intToken(what string) (int, error) {
	t, err := p.token()
	if err != nil {
		return 0, err
	}
	if t.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s, got %v", what, t)
	}
	return strconv.Atoi(string(t.Value))
}

// streamOnlyKeys describe the xref stream itself and stay out of the
// trailer it doubles as
var streamOnlyKeys = map[string]bool{
	"Type": true, "W": true, "Index": true, "Filter": true, "DecodeParms": true, "Length": true,
}

// xrefStream reads a cross-reference stream object
func (p *Parser) xrefStream() (*XRefTable, error) {
	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}
	stream, ok := ind.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref object %d is %T, not a stream", ind.Ref.Number, ind.Object)
	}
	dict := stream.Dict
	if typ, _ := dict.GetName("Type"); typ != "XRef" {
		return nil, fmt.Errorf("xref stream has /Type %v", dict.Get("Type"))
	}

	size, ok := dict.GetInt("Size")
	if !ok {
		return nil, fmt.Errorf("xref stream missing /Size")
	}
	w, err := intArray(dict, "W")
	if err != nil {
		return nil, err
	}
	if len(w) != 3 || w[0] < 0 || w[1] < 0 || w[2] < 0 {
		return nil, fmt.Errorf("xref stream /W %v, want three widths", w)
	}
	index := []int{0, int(size)}
	if dict.Has("Index") {
		if index, err = intArray(dict, "Index"); err != nil {
			return nil, err
		}
		if len(index)%2 != 0 {
			return nil, fmt.Errorf("xref stream /Index has odd length %d", len(index))
		}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode xref stream: %w", err)
	}

	table := NewXRefTable()
	table.IsStream = true
	row := w[0] + w[1] + w[2]
	for i := 0; i < len(index); i += 2 {
		for num := index[i]; num < index[i]+index[i+1]; num++ {
			if len(data) < row {
				return nil, fmt.Errorf("xref stream entry %d: truncated row", num)
			}
			table.Set(num, streamEntry(data[:row], w))
			data = data[row:]
		}
	}

	for k, v := range dict {
		if !streamOnlyKeys[k] {
			table.Trailer[k] = v
		}
	}
	return table, nil
}

// streamEntry decodes one binary row. A missing type field means type 1;
// unknown types reference the null object.
func streamEntry(row []byte, w []int) *XRefEntry {
	field := func(b []byte) int64 {
		var v int64
		for _, c := range b {
			v = v<<8 | int64(c)
		}
		return v
	}
	typ := XRefEntryUncompressed
	if w[0] > 0 {
		typ = XRefEntryType(field(row[:w[0]]))
	}
	return &XRefEntry{
		Offset:     field(row[w[0] : w[0]+w[1]]),
		Generation: int(field(row[w[0]+w[1]:])),
		InUse:      typ == XRefEntryUncompressed || typ == XRefEntryCompressed,
		Type:       typ,
	}
}

func intArray(dict Dict, key string) ([]int, error) {
	arr, ok := dict.GetArray(key)
	if !ok {
		return nil, fmt.Errorf("missing or invalid /%s", key)
	}
	out := make([]int, len(arr))
	for i, v := range arr {
		n, ok := v.(Int)
		if !ok {
			return nil, fmt.Errorf("/%s[%d] is %v, not an integer", key, i, v)
		}
		out[i] = int(n)
	}
	return out, nil
}

// ParseAllXRefs follows the /Prev chain from the newest section and returns
// every section oldest first. The /XRefStm stream of a hybrid file is read
// as an older section than the table that names it.
func (x *XRefParser) ParseAllXRefs() ([]*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var chain []*XRefTable
	seen := map[int64]bool{}
	for {
		if seen[offset] {
			return nil, fmt.Errorf("xref /Prev chain loops at offset %d", offset)
		}
		seen[offset] = true

		table, err := x.ParseXRef(offset)
		if err != nil {
			return nil, fmt.Errorf("xref at %d: %w", offset, err)
		}
		chain = append(chain, table)

		if stm, ok := table.Trailer.GetInt("XRefStm"); ok && !table.IsStream && !seen[int64(stm)] {
			seen[int64(stm)] = true
			hidden, err := x.ParseXRef(int64(stm))
			if err != nil {
				return nil, fmt.Errorf("xref stream at %d: %w", stm, err)
			}
			hidden.Trailer = table.Trailer
			chain = append(chain, hidden)
		}

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	// oldest first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
