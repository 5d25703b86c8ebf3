package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"
)

func compress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"simple", "48656C6C6F>", []byte("Hello"), false},
		{"lowercase with whitespace", "48 65\n6c 6c\t6f>", []byte("Hello"), false},
		{"odd digit count", "123>", []byte{0x12, 0x30}, false},
		{"no marker", "4142", []byte("AB"), false},
		{"data after marker ignored", "41>42", []byte("A"), false},
		{"empty", ">", nil, false},
		{"invalid digit", "4G>", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCIIHexDecode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"partial group", "87cURDZ~>", []byte("Hello"), false},
		{"several groups", "87cURD]i,\"Ebo7~>", []byte("Hello World"), false},
		{"whitespace", "87cU\nRDZ ~>", []byte("Hello"), false},
		{"zero group", "z~>", []byte{0, 0, 0, 0}, false},
		{"invalid character", "87c{~>", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCII85Decode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlateDecode(t *testing.T) {
	original := []byte("q 200 0 0 200 100 400 cm /Im1 Do Q")

	got, err := FlateDecode(compress(original), nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("got %q", got)
	}

	if _, err := FlateDecode([]byte("not zlib"), nil); err == nil {
		t.Error("expected error for corrupt data")
	}
}

func TestFlateDecodePredictors(t *testing.T) {
	params := func(predictor, columns, colors int) Params {
		return Params{"Predictor": predictor, "Columns": columns, "Colors": colors, "BitsPerComponent": 8}
	}

	tests := []struct {
		name   string
		params Params
		raw    []byte
		want   []byte
	}{
		{"png none", params(10, 3, 1), []byte{0, 10, 20, 30}, []byte{10, 20, 30}},
		{"png sub", params(11, 3, 1), []byte{1, 10, 5, 5}, []byte{10, 15, 20}},
		{
			"png up",
			params(12, 2, 1),
			[]byte{0, 10, 20, 2, 1, 2},
			[]byte{10, 20, 11, 22},
		},
		{
			// average of left and up, rounded down
			"png average",
			params(13, 2, 1),
			[]byte{0, 10, 20, 3, 5, 5},
			[]byte{10, 20, 10, 20},
		},
		{
			"png paeth",
			params(14, 2, 1),
			[]byte{0, 10, 20, 4, 1, 1},
			[]byte{10, 20, 11, 21},
		},
		{"tiff", params(2, 3, 1), []byte{10, 5, 5, 1, 1, 1}, []byte{10, 15, 20, 1, 2, 3}},
		{"identity", params(1, 3, 1), []byte{1, 2, 3}, []byte{1, 2, 3}},
		{
			// two-byte samples predict from the sample two bytes back
			"png sub 16-bit",
			Params{"Predictor": 11, "Columns": 2, "BitsPerComponent": 16},
			[]byte{1, 1, 2, 1, 1},
			[]byte{1, 2, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlateDecode(compress(tt.raw), tt.params)
			if err != nil {
				t.Fatalf("FlateDecode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlateDecodePredictorErrors(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		raw    []byte
	}{
		{"unsupported predictor", Params{"Predictor": 7}, []byte{1}},
		{"ragged rows", Params{"Predictor": 12, "Columns": 3}, []byte{0, 1, 2}},
		{"16-bit tiff", Params{"Predictor": 2, "Columns": 1, "BitsPerComponent": 16}, []byte{0, 1}},
		{"unknown row tag", Params{"Predictor": 12, "Columns": 2}, []byte{9, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlateDecode(compress(tt.raw), tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunLengthDecode(t *testing.T) {
	// literal "AB", run of three 'C', end of data
	got, err := RunLengthDecode([]byte{1, 'A', 'B', 254, 'C', 128, 'X'})
	if err != nil {
		t.Fatalf("RunLengthDecode failed: %v", err)
	}
	if string(got) != "ABCCC" {
		t.Errorf("got %q", got)
	}

	if _, err := RunLengthDecode([]byte{5, 'A'}); err == nil {
		t.Error("expected error for truncated literal")
	}
	if _, err := RunLengthDecode([]byte{250}); err == nil {
		t.Error("expected error for repeat without a byte")
	}
}

func TestParams(t *testing.T) {
	p := Params{"Columns": 100, "K": int64(-1), "Scale": 2.0, "BlackIs1": true, "Name": "x"}
	if p.Int("Columns", 1) != 100 || p.Int("K", 0) != -1 || p.Int("Scale", 0) != 2 {
		t.Errorf("Int lookups = %d %d %d", p.Int("Columns", 1), p.Int("K", 0), p.Int("Scale", 0))
	}
	if p.Int("Name", 7) != 7 || p.Int("Missing", 3) != 3 {
		t.Error("non-numeric and missing keys should give the default")
	}
	if !p.Bool("BlackIs1", false) || p.Bool("Columns", true) != true {
		t.Error("Bool lookups")
	}
	var nilParams Params
	if nilParams.Int("Predictor", 1) != 1 {
		t.Error("nil params should give defaults")
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode("AHx", []byte("4142>"), nil)
	if err != nil || string(got) != "AB" {
		t.Errorf("Decode(AHx) = %q, %v", got, err)
	}
	jpeg := []byte{0xFF, 0xD8, 0xFF}
	if got, _ := Decode("DCTDecode", jpeg, nil); !bytes.Equal(got, jpeg) {
		t.Error("DCT data should pass through")
	}
	if _, err := Decode("JBIG2Decode", nil, nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("JBIG2 err = %v, want ErrUnsupported", err)
	}
}
