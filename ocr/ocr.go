//go:build ocr

// Package ocr recovers text from pages that have no text layer, such as
// scanned appendices, by rendering them and running Tesseract.
//
// This build wraps Tesseract via gosseract. It requires Tesseract to be
// installed on the system. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether OCR support is compiled in
const Enabled = true

// Client wraps Tesseract for OCR operations.
// The client should be closed when no longer needed to release resources.
type Client struct {
	client *gosseract.Client
}

// New creates a client recognizing the given languages ("eng" when none).
func New(langs ...string) (*Client, error) {
	client := gosseract.NewClient()
	if len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set language %v: %w", langs, err)
		}
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// RecognizeImage performs OCR on encoded image data (PNG, JPEG, TIFF).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}
