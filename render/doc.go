// Package render rasterizes page regions. [Fitz] renders whole pages with
// MuPDF through go-fitz and crops them to the requested rectangle; the most
// recently rendered page is cached so several regions of one page cost a
// single rasterization.
package render
