package contentstream

import (
	"bytes"
	"reflect"
	"sync"
	"testing"

	"github.com/figharvest/figharvest/core"
)

func parse(t *testing.T, src string) []Operation {
	t.Helper()
	ops, err := NewParser([]byte(src)).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return ops
}

func operators(ops []Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Operator
	}
	return out
}

func TestParse_Operators(t *testing.T) {
	ops := parse(t, "q 1 0 0 1 50 700 cm BT /F1 12 Tf (Hi) Tj T* (a) ' 1 2 (b) \" ET Q 0 0 d0 f* W* n")
	want := []string{"q", "cm", "BT", "Tf", "Tj", "T*", "'", "\"", "ET", "Q", "d0", "f*", "W*", "n"}
	got := operators(ops)
	if len(got) != len(want) {
		t.Fatalf("operators = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op %d = %q, want %q", i, got[i], want[i])
		}
	}

	if n := len(ops[1].Operands); n != 6 {
		t.Errorf("cm operands = %d, want 6", n)
	}
	if ops[0].Operands != nil {
		t.Errorf("q should have no operands, got %v", ops[0].Operands)
	}
	if len(ops[7].Operands) != 3 {
		t.Errorf("\" operands = %v", ops[7].Operands)
	}
}

func TestParse_Operands(t *testing.T) {
	ops := parse(t, `-3 +4 .5 -.25 12. true false null /A#20B (x\(y\)\n\101) <48 65 6c6C 6> [1 (two) /three [4]] << /K /V /N 2 >> op`)
	if len(ops) != 1 {
		t.Fatalf("expected one operation, got %d", len(ops))
	}
	got := ops[0].Operands
	want := []core.Object{
		core.Int(-3), core.Int(4), core.Real(0.5), core.Real(-0.25), core.Real(12),
		core.Bool(true), core.Bool(false), core.Null{},
		core.Name("A B"),
		core.String("x(y)\nA"),
		core.String("Hell`"),
	}
	if len(got) != len(want)+2 {
		t.Fatalf("operands = %d, want %d: %v", len(got), len(want)+2, got)
	}
	for i, w := range want {
		if g := got[i]; g.String() != w.String() || reflect.TypeOf(g) != reflect.TypeOf(w) {
			t.Errorf("operand %d = %v (%T), want %v (%T)", i, g, g, w, w)
		}
	}

	arr, ok := got[len(want)].(core.Array)
	if !ok || len(arr) != 4 {
		t.Fatalf("array operand = %v", got[len(want)])
	}
	if inner, ok := arr[3].(core.Array); !ok || len(inner) != 1 {
		t.Errorf("nested array = %v", arr[3])
	}

	dict, ok := got[len(want)+1].(core.Dict)
	if !ok {
		t.Fatalf("dict operand = %T", got[len(want)+1])
	}
	if v, _ := dict.GetName("K"); v != "V" {
		t.Errorf("dict /K = %v", v)
	}
	if n, _ := dict.GetInt("N"); n != 2 {
		t.Errorf("dict /N = %v", n)
	}
}

func TestParse_StringEscapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(a(b)c) Tj`, "a(b)c"},
		{`(tab\tend) Tj`, "tab\tend"},
		{"(line\\\ncontinued) Tj", "linecontinued"},
		{"(cr\\\r\nlf) Tj", "crlf"},
		{`(\0053) Tj`, "\x053"},
		{`(\q) Tj`, "q"},
		{`<> Tj`, ""},
	}
	for _, tt := range tests {
		ops := parse(t, tt.src)
		if len(ops) != 1 || len(ops[0].Operands) != 1 {
			t.Fatalf("%q: unexpected ops %+v", tt.src, ops)
		}
		if got := string(ops[0].Operands[0].(core.String)); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParse_Comments(t *testing.T) {
	ops := parse(t, "% header\n1 w % set width\r0 0 m 10 10 l S")
	got := operators(ops)
	if len(got) != 4 || got[0] != "w" || got[3] != "S" {
		t.Errorf("operators = %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		"(unterminated Tj",
		"<4G> Tj",
		"[1 2",
		"<< /K 1",
		"<< 1 2 >> op",
		"[1 Tj] TJ",
		"BI /W 1 /H 1 ID \x00\x00",
		"BI /W 1 (x) Tj",
	} {
		if _, err := NewParser([]byte(src)).Parse(); err == nil {
			t.Errorf("Parse(%q): expected error", src)
		}
	}
}

func TestParse_InlineImage(t *testing.T) {
	samples := []byte{0x00, 'E', 'I', 0xff, '\n', 0x10}
	var src bytes.Buffer
	src.WriteString("q 20 0 0 10 100 200 cm BI /W 3 /H 2 /CS /G /BPC 8 /F [/AHx] ID ")
	src.Write(samples)
	src.WriteString("\nEI Q /Im1 Do")

	ops, err := NewParser(src.Bytes()).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := operators(ops)
	want := []string{"q", "cm", "BI", "Q", "Do"}
	if len(got) != len(want) {
		t.Fatalf("operators = %q, want %q", got, want)
	}

	bi := ops[2]
	if !bytes.Equal(bi.Data, samples) {
		t.Errorf("inline data = %q, want %q", bi.Data, samples)
	}
	dict, ok := bi.Operands[0].(core.Dict)
	if !ok {
		t.Fatalf("BI operand = %T", bi.Operands[0])
	}
	if w, _ := dict.GetInt("W"); w != 3 {
		t.Errorf("/W = %d", w)
	}
	if cs, _ := dict.GetName("CS"); cs != "G" {
		t.Errorf("/CS = %q", cs)
	}
	if len(ops[4].Operands) != 1 {
		t.Errorf("operands leaked into Do: %v", ops[4].Operands)
	}
}

func TestParse_InlineImageWithLength(t *testing.T) {
	// an explicit length lets the samples contain " EI "
	samples := []byte(" EI x")
	src := append([]byte("BI /W 5 /H 1 /L 5 ID "), samples...)
	src = append(src, []byte(" EI 1 w")...)

	ops, err := NewParser(src).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ops) != 2 || ops[1].Operator != "w" {
		t.Fatalf("operators = %q", operators(ops))
	}
	if !bytes.Equal(ops[0].Data, samples) {
		t.Errorf("inline data = %q, want %q", ops[0].Data, samples)
	}
}

func TestParse_InlineImageAtEnd(t *testing.T) {
	ops := parse(t, "BI /W 1 /H 1 ID \x7f EI")
	if len(ops) != 1 || !bytes.Equal(ops[0].Data, []byte{0x7f}) {
		t.Errorf("unexpected ops %+v", ops)
	}
}

func TestParse_ConcurrentParsers(t *testing.T) {
	streams := []string{
		"1 2 3 4 5 6 cm",
		"/F1 12 Tf",
		"0 0 100 100 re f",
	}
	counts := []int{6, 2, 4}

	var wg sync.WaitGroup
	errs := make(chan string, 300)
	for i := 0; i < 100; i++ {
		for j := range streams {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				ops, err := NewParser([]byte(streams[j])).Parse()
				if err != nil {
					errs <- err.Error()
					return
				}
				if len(ops[0].Operands) != counts[j] {
					errs <- streams[j]
				}
			}(j)
		}
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent parse mismatch: %s", e)
	}
}

func TestParse_LeftoverOperandsDropped(t *testing.T) {
	ops := parse(t, "q 1 2 3")
	if len(ops) != 1 || ops[0].Operator != "q" {
		t.Errorf("unexpected ops %+v", ops)
	}
}
