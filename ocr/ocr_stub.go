//go:build !ocr

// Package ocr recovers text from pages that have no text layer, such as
// scanned appendices, by rendering them and running Tesseract.
//
// This is the stub used when the "ocr" build tag is not set: New returns
// ErrOCRNotEnabled. To enable OCR, rebuild with the "ocr" build tag:
//
//	go build -tags ocr
package ocr

import "errors"

// Enabled reports whether OCR support is compiled in
const Enabled = false

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client is a stub OCR client that returns errors for all operations.
type Client struct{}

// New returns an error indicating OCR support is not enabled.
func New(langs ...string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op for the stub client.
// It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// RecognizeImage returns an error indicating OCR support is not enabled.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
