// Package contentstream tokenizes PDF content streams into operations.
//
// A content stream is a postfix program: operands are pushed until an
// operator consumes them.
//
//	ops, err := contentstream.NewParser(data).Parse()
//	for _, op := range ops {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Operators are returned verbatim and are interpreted elsewhere: text
// operators by package text, path and XObject operators by package
// graphicsstate.
//
// # Inline images
//
// The BI ... ID ... EI sequence is returned as a single "BI" operation. Its
// only operand is the image dictionary exactly as written, with
// abbreviated keys such as /W and /CS, and its Data field holds the sample
// bytes. The end of the samples is taken from /L (or /Length) when present
// and otherwise from the first whitespace-delimited EI.
package contentstream
