// Package reconstruct infers the region of a figure or table from its
// caption when a layout tool found the caption but not the region.
//
// The page area above the caption is cut into horizontal stripes. Each
// stripe gets a drawing density (area of vector paths touching it) and a
// text density (characters of text blocks touching it); both are normalized
// by their maxima and combined as
//
//	score = drawing - TextWeight * text
//
// Scanning upward from the caption, the first stripe scoring above the
// threshold is the figure's bottom edge. The region grows upward through
// high-scoring stripes, tolerating short low-scoring runs, and its horizontal
// extent comes from the drawings inside the resulting band.
package reconstruct
