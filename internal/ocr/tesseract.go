//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"

	"github.com/Lllllllleong/scantranscribe/internal/pdf"
)

// Tesseract recognizes text with the Tesseract engine. It is safe for
// concurrent use: every call gets its own gosseract client.
type Tesseract struct {
	clientFactory func() *gosseract.Client
	opts          options
}

// New creates a Tesseract recognizer.
func New(opts ...Option) (*Tesseract, error) {
	return &Tesseract{clientFactory: gosseract.NewClient, opts: newOptions(opts)}, nil
}

// Close releases engine resources. Clients are per call, so there is nothing
// held between calls.
func (t *Tesseract) Close() error { return nil }

// Recognize returns the raw text Tesseract finds in img.
func (t *Tesseract) Recognize(ctx context.Context, img *pdf.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrRecognition, pageNumber(img), err)
	}
	if img.Released() {
		return "", fmt.Errorf("%w: page %d: empty image", ErrRecognition, pageNumber(img))
	}
	data, err := img.Encode()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognition, err)
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.opts.languages...); err != nil {
		return "", fmt.Errorf("%w: set languages: %w", ErrRecognition, err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(t.opts.psm)); err != nil {
		return "", fmt.Errorf("%w: set page segmentation mode: %w", ErrRecognition, err)
	}
	if img.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(img.DPI)); err != nil {
			return "", fmt.Errorf("%w: set dpi: %w", ErrRecognition, err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: page %d: set image: %w", ErrRecognition, pageNumber(img), err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrRecognition, pageNumber(img), err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrRecognition, pageNumber(img), err)
	}
	return text, nil
}
