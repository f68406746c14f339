// Package ocr reads grid-cell coordinates off claim screenshots. The
// text is conventionally printed in the top-left corner of the image, so
// a small crop plus an upscale is enough for Tesseract.
package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer turns an encoded image into text. The production
// implementation wraps Tesseract; tests substitute a fake.
type Recognizer interface {
	Text(png []byte) (string, error)
}

// Engine is the Tesseract-backed Recognizer.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates a Tesseract client tuned for coordinate text: a
// single uniform text block, digits-and-separators whitelist, dictionary
// correction off so "12, -34" is not corrected into a word.
func NewEngine(language, whitelist string) (*Engine, error) {
	client := gosseract.NewClient()

	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}

	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Text recognizes the text in an encoded image.
func (e *Engine) Text(png []byte) (string, error) {
	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
