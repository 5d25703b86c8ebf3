// Package colorfix repairs rasters that come out of a PDF as solid black
// because of a color space or alpha mismatch (CMYK read as RGB, an inverted
// alpha channel used as luminance).
//
// The check is deliberately conservative: an image is inverted only when at
// least three of its four corners are dark, and the inversion is kept only
// when at least three corners are light afterwards.
package colorfix
