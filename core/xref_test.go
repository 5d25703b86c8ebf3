package core

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestXRef_FindXRef(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int64
		wantErr    bool
	}{
		{"simple", "content\nstartxref\n1234\n%%EOF", 1234, false},
		{"extra whitespace", "content\nstartxref\n  5678  \n%%EOF\n", 5678, false},
		{"no startxref", "content\n%%EOF", 0, true},
		{"invalid offset", "content\nstartxref\nabc\n%%EOF", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, err := NewXRefParser(strings.NewReader(tt.input)).FindXRef()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got error: %v", tt.wantErr, err)
			}
			if offset != tt.wantOffset {
				t.Errorf("expected offset %d, got %d", tt.wantOffset, offset)
			}
		})
	}
}

func TestXRef_Table(t *testing.T) {
	input := `xref
0 3
0000000000 65535 f
0000000017 00000 n
0000000081 00000 n
10 1
0000000331 00002 n
trailer
<< /Size 11 /Root 1 0 R >>
startxref
0
%%EOF`

	table, err := NewXRefParser(strings.NewReader(input)).ParseXRef(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.IsStream {
		t.Error("expected a classic table")
	}
	if table.Size() != 4 {
		t.Errorf("expected 4 entries, got %d", table.Size())
	}

	tests := []struct {
		objNum     int
		wantOffset int64
		wantGen    int
		wantInUse  bool
	}{
		{0, 0, 65535, false},
		{1, 17, 0, true},
		{2, 81, 0, true},
		{10, 331, 2, true},
	}
	for _, tt := range tests {
		entry, ok := table.Get(tt.objNum)
		if !ok {
			t.Fatalf("expected entry %d to exist", tt.objNum)
		}
		if entry.Offset != tt.wantOffset || entry.Generation != tt.wantGen || entry.InUse != tt.wantInUse {
			t.Errorf("entry %d = %+v", tt.objNum, entry)
		}
	}

	if root, ok := table.Trailer.GetIndirectRef("Root"); !ok || root.Number != 1 {
		t.Errorf("expected Root=1 0 R, got %v", table.Trailer.Get("Root"))
	}
}

func TestXRef_Stream(t *testing.T) {
	// rows are type(1) field2(2) field3(1)
	rows := []byte{
		0, 0x00, 0x00, 0xFF, // 0 free
		1, 0x01, 0x2C, 0x00, // 1 at offset 300
		2, 0x00, 0x05, 0x03, // 2 in object stream 5, index 3
	}
	data := zlibCompress(rows)

	var buf bytes.Buffer
	buf.WriteString("7 0 obj\n<< /Type /XRef /Size 3 /W [1 2 1] /Root 1 0 R /Filter /FlateDecode /Length ")
	buf.WriteString(strconv.Itoa(len(data)))
	buf.WriteString(" >>\nstream\n")
	buf.Write(data)
	buf.WriteString("\nendstream\nendobj\n")

	table, err := NewXRefParser(bytes.NewReader(buf.Bytes())).ParseXRef(0)
	if err != nil {
		t.Fatalf("ParseXRef: %v", err)
	}
	if !table.IsStream {
		t.Error("expected an xref stream")
	}

	free, _ := table.Get(0)
	if free.InUse || free.Type != XRefEntryFree {
		t.Errorf("entry 0 = %+v", free)
	}
	plain, _ := table.Get(1)
	if !plain.InUse || plain.Offset != 300 || plain.Type != XRefEntryUncompressed {
		t.Errorf("entry 1 = %+v", plain)
	}
	packed, _ := table.Get(2)
	if packed.Type != XRefEntryCompressed || packed.Offset != 5 || packed.Generation != 3 {
		t.Errorf("entry 2 = %+v", packed)
	}

	if _, ok := table.Trailer.GetIndirectRef("Root"); !ok {
		t.Error("stream dictionary should double as the trailer")
	}
	if table.Trailer.Has("W") || table.Trailer.Has("Filter") {
		t.Errorf("stream-only keys leaked into the trailer: %v", table.Trailer)
	}
	if XRefEntryCompressed.String() != "compressed" {
		t.Errorf("String() = %q", XRefEntryCompressed.String())
	}
}

func TestXRef_StreamErrors(t *testing.T) {
	tests := []struct {
		name string
		dict string
	}{
		{"wrong type", "/Type /ObjStm /Size 1 /W [1 1 1]"},
		{"missing W", "/Type /XRef /Size 1"},
		{"short W", "/Type /XRef /Size 1 /W [1 1]"},
		{"odd Index", "/Type /XRef /Size 1 /W [1 1 1] /Index [0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "1 0 obj\n<< " + tt.dict + " /Length 3 >>\nstream\n\x01\x00\x00\nendstream\nendobj\n"
			if _, err := NewXRefParser(strings.NewReader(input)).ParseXRef(0); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewXRefParser(strings.NewReader("garbage")).ParseXRef(0); err == nil {
		t.Error("expected error for missing xref")
	}
}

func TestMergeXRefTables(t *testing.T) {
	older := NewXRefTable()
	older.Set(1, &XRefEntry{Offset: 10, InUse: true})
	older.Set(2, &XRefEntry{Offset: 20, InUse: true})
	older.Trailer = Dict{"Size": Int(3)}

	newer := NewXRefTable()
	newer.Set(2, &XRefEntry{Offset: 200, InUse: true})
	newer.Trailer = Dict{"Size": Int(3), "Prev": Int(0)}

	merged := MergeXRefTables(older, newer)
	if e, _ := merged.Get(1); e.Offset != 10 {
		t.Errorf("entry 1 offset = %d", e.Offset)
	}
	if e, _ := merged.Get(2); e.Offset != 200 {
		t.Errorf("later update should win, got offset %d", e.Offset)
	}
	if !merged.Trailer.Has("Prev") {
		t.Error("expected the newest trailer")
	}
	if MergeXRefTables().Size() != 0 {
		t.Error("merging nothing should give an empty table")
	}
}

func TestObjectStream(t *testing.T) {
	header := "5 0 6 20 7 34 "
	body := "<< /Type /Catalog >><< /Count 1 >>[ 1 2 3 ]"
	stream := &Stream{
		Dict: Dict{
			"Type":   Name("ObjStm"),
			"N":      Int(3),
			"First":  Int(len(header)),
			"Filter": Name("FlateDecode"),
		},
		Data: zlibCompress([]byte(header + body)),
	}

	os, err := NewObjectStream(stream)
	if err != nil {
		t.Fatalf("NewObjectStream: %v", err)
	}
	if os.N() != 3 || os.First() != len(header) {
		t.Errorf("N=%d First=%d", os.N(), os.First())
	}

	obj, num, err := os.GetObjectByIndex(0)
	if err != nil || num != 5 {
		t.Fatalf("GetObjectByIndex(0) = %v, %d, %v", obj, num, err)
	}
	if d, ok := obj.(Dict); !ok || d.Get("Type") != Name("Catalog") {
		t.Errorf("object 5 = %v", obj)
	}

	obj, index, err := os.GetObjectByNumber(7)
	if err != nil || index != 2 {
		t.Fatalf("GetObjectByNumber(7) = %v, %d, %v", obj, index, err)
	}
	if arr, ok := obj.(Array); !ok || len(arr) != 3 {
		t.Errorf("object 7 = %v", obj)
	}

	if _, _, err := os.GetObjectByNumber(99); err == nil {
		t.Error("expected error for missing object")
	}
	if _, _, err := os.GetObjectByIndex(3); err == nil {
		t.Error("expected error for index out of range")
	}
}

func TestObjectStreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream *Stream
	}{
		{"nil", nil},
		{"wrong type", &Stream{Dict: Dict{"Type": Name("XRef"), "N": Int(1), "First": Int(0)}}},
		{"missing N", &Stream{Dict: Dict{"Type": Name("ObjStm"), "First": Int(0)}}},
		{"negative N", &Stream{Dict: Dict{"Type": Name("ObjStm"), "N": Int(-1), "First": Int(0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewObjectStream(tt.stream); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseAllXRefs_Chain(t *testing.T) {
	older := "xref\n0 2\n0000000000 65535 f \n0000000010 00000 n \ntrailer\n<< /Size 2 >>\n"
	newer := "xref\n1 1\n0000000099 00000 n \ntrailer\n<< /Size 2 /Prev 0 >>\nstartxref\n" +
		strconv.Itoa(len(older)) + "\n%%EOF\n"

	tables, err := NewXRefParser(strings.NewReader(older + newer)).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("got %d sections, want 2", len(tables))
	}
	if tables[0].Trailer.Has("Prev") {
		t.Error("sections should be ordered oldest first")
	}
	if e, _ := MergeXRefTables(tables...).Get(1); e.Offset != 99 {
		t.Errorf("entry 1 offset = %d, want the updated 99", e.Offset)
	}
}

func TestParseAllXRefs_Loop(t *testing.T) {
	input := "xref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 1 /Prev 0 >>\nstartxref\n0\n%%EOF"
	if _, err := NewXRefParser(strings.NewReader(input)).ParseAllXRefs(); err == nil {
		t.Error("expected error for a /Prev chain that loops")
	}
}

func TestParseAllXRefs_Hybrid(t *testing.T) {
	rows := []byte{2, 0x00, 0x09, 0x00} // object 3 in object stream 9
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "5 0 obj\n<< /Type /XRef /Size 4 /Index [3 1] /W [1 2 1] /Length %d >>\nstream\n", len(rows))
	buf.Write(rows)
	buf.WriteString("\nendstream\nendobj\n")
	tableAt := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 2\n0000000000 65535 f \n0000000010 00000 n \ntrailer\n<< /Size 4 /Root 1 0 R /XRefStm 0 >>\nstartxref\n%d\n%%%%EOF\n", tableAt)

	tables, err := NewXRefParser(bytes.NewReader(buf.Bytes())).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs: %v", err)
	}
	merged := MergeXRefTables(tables...)
	if e, ok := merged.Get(3); !ok || e.Type != XRefEntryCompressed || e.Offset != 9 {
		t.Errorf("entry 3 = %+v, want it from the xref stream", e)
	}
	if e, ok := merged.Get(1); !ok || e.Offset != 10 {
		t.Errorf("entry 1 = %+v", e)
	}
	if _, ok := merged.Trailer.GetIndirectRef("Root"); !ok {
		t.Error("the table's trailer should win")
	}
}
