// Package reader opens PDF files and resolves their objects and pages.
//
// It sits on top of the core package, which knows the file syntax:
//
//	r, err := reader.Open("paper.pdf")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	n, _ := r.PageCount()
//	page, _ := r.GetPage(0)
//	content, _ := r.ExtractPageContent(page)
//
// Incrementally updated files are read by merging every cross-reference
// section, newest entries winning. Objects are cached once loaded,
// including the object streams compressed objects live in.
//
// # Document Information
//
// [Reader.Info] reports the title, producer and version. Text strings are
// decoded from UTF-16BE when they carry a byte order mark and from
// PDFDocEncoding otherwise. The version is the header version unless the
// catalog's /Version names a newer one.
//
// # Page Content
//
// ExtractPageContent parses a page's content streams once and returns its
// text fragments, painted paths and image placements, all keyed by the
// index of the operator that produced them. ExtractTextFragments returns
// the text alone.
package reader
