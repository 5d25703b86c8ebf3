// Package pages walks the page tree of a PDF document.
//
// A [PageTree] flattens the /Pages hierarchy into document order the first
// time it is asked for a page:
//
//	tree := pages.NewPageTree(root, resolver)
//	n, _ := tree.Count()
//	page, _ := tree.GetPage(0)
//
// Each [Page] resolves the inheritable attributes (/Resources, /MediaBox,
// /CropBox, /Rotate) by looking at the page first and then at its
// ancestors, nearest first. Cycles in /Kids are reported as
// [ErrPageTreeCycle] instead of recursing forever.
//
// The package resolves indirect references through [ObjectResolver], so it
// does not depend on how objects are read from the file.
package pages
