//go:build !ocr

package ocr

import (
	"context"

	"github.com/Lllllllleong/scantranscribe/internal/pdf"
)

// Tesseract is the stub used when the "ocr" build tag is not set.
type Tesseract struct{}

// New returns ErrOCRNotEnabled.
func New(opts ...Option) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op. It is safe to call on a nil Tesseract.
func (t *Tesseract) Close() error { return nil }

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(ctx context.Context, img *pdf.Image) (string, error) {
	return "", ErrOCRNotEnabled
}
