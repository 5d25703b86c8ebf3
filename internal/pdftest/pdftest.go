// Package pdftest builds small, valid PDF files in memory for tests.
//
// Object offsets in the cross-reference table are computed while writing,
// so generated documents open with the engine's strict xref parser.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Builder accumulates numbered objects. Object numbers start at 1.
type Builder struct {
	objects [][]byte
	trailer []string
}

// New returns an empty builder
func New() *Builder {
	return &Builder{}
}

// Add appends an object with the given body (everything between
// "N 0 obj" and "endobj") and returns its number.
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, []byte(body))
	return len(b.objects)
}

// AddStream appends a stream object. dict holds the dictionary entries
// without the surrounding << >>; /Length is added.
func (b *Builder) AddStream(dict string, data []byte) int {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	b.objects = append(b.objects, buf.Bytes())
	return len(b.objects)
}

// Reserve allocates an object number to be filled in with Set
func (b *Builder) Reserve() int {
	return b.Add("null")
}

// Set replaces the body of an existing object
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = []byte(body)
}

// TrailerEntry adds a raw entry such as "/Encrypt 9 0 R" to the trailer
func (b *Builder) TrailerEntry(entry string) {
	b.trailer = append(b.trailer, entry)
}

// Bytes serializes the document with the given catalog object as /Root
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(body)
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	extra := ""
	if len(b.trailer) > 0 {
		extra = " " + strings.Join(b.trailer, " ")
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, root, extra, xref)
	return buf.Bytes()
}

// Page describes one page of a generated document
type Page struct {
	Width, Height float64 // default 612x792
	Content       string
	XObjects      map[string]int // resource name to object number
	CropBox       []float64
	Rotate        int
	ContentFilter string // declared on the content stream without encoding it
}

// Document adds a page tree for pages, with Helvetica registered as /F1,
// and returns the serialized file.
func (b *Builder) Document(pages ...Page) []byte {
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	pagesNum := b.Reserve()

	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		w, h := p.Width, p.Height
		if w == 0 {
			w = 612
		}
		if h == 0 {
			h = 792
		}
		contentDict := ""
		if p.ContentFilter != "" {
			contentDict = "/Filter /" + p.ContentFilter
		}
		content := b.AddStream(contentDict, []byte(p.Content))

		var xobj strings.Builder
		if len(p.XObjects) > 0 {
			names := make([]string, 0, len(p.XObjects))
			for name := range p.XObjects {
				names = append(names, name)
			}
			sort.Strings(names)
			xobj.WriteString(" /XObject <<")
			for _, name := range names {
				fmt.Fprintf(&xobj, " /%s %d 0 R", name, p.XObjects[name])
			}
			xobj.WriteString(" >>")
		}

		var attrs strings.Builder
		if len(p.CropBox) == 4 {
			fmt.Fprintf(&attrs, " /CropBox [%s]", formatNumbers(p.CropBox))
		}
		if p.Rotate != 0 {
			fmt.Fprintf(&attrs, " /Rotate %d", p.Rotate)
		}

		page := b.Add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s]%s /Resources << /Font << /F1 %d 0 R >>%s >> /Contents %d 0 R >>",
			pagesNum, num(w), num(h), attrs.String(), font, xobj.String(), content))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	b.Set(pagesNum, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	catalog := b.Add(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesNum))
	return b.Bytes(catalog)
}

// Image adds an uncompressed image XObject and returns its number
func (b *Builder) Image(width, height int, colorSpace string, bpc int, data []byte) int {
	return b.AddStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent %d",
		width, height, colorSpace, bpc), data)
}

// Text returns content-stream operators that show s at (x, y) in PDF user
// space with /F1.
func Text(x, y, size float64, s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return fmt.Sprintf("BT /F1 %s Tf %s %s Td (%s) Tj ET\n", num(size), num(x), num(y), r.Replace(s))
}

// Rect returns operators that fill a rectangle given in PDF user space
func Rect(x, y, w, h float64) string {
	return fmt.Sprintf("%s %s %s %s re f\n", num(x), num(y), num(w), num(h))
}

// Line returns operators that stroke a line
func Line(x0, y0, x1, y1 float64) string {
	return fmt.Sprintf("%s %s m %s %s l S\n", num(x0), num(y0), num(x1), num(y1))
}

// Draw returns operators that paint image XObject name over the given
// rectangle.
func Draw(name string, x, y, w, h float64) string {
	return fmt.Sprintf("q %s 0 0 %s %s %s cm /%s Do Q\n", num(w), num(h), num(x), num(y), name)
}

// WriteFile writes data into a temporary directory owned by t
func WriteFile(t testing.TB, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test PDF: %v", err)
	}
	return path
}

func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

func formatNumbers(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = num(v)
	}
	return strings.Join(parts, " ")
}
