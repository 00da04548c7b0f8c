package ocr

import (
	"context"
	"errors"

	"github.com/Lllllllleong/scantranscribe/internal/pdf"
)

var (
	// ErrRecognition is returned when the engine cannot recognize an image.
	ErrRecognition = errors.New("recognition failed")

	// ErrOCRNotEnabled is returned when the binary was built without the
	// "ocr" build tag.
	ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")
)

// Recognizer turns a page image into text. A blank page yields an empty
// string, not an error. Implementations do not retry.
type Recognizer interface {
	Recognize(ctx context.Context, img *pdf.Image) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img *pdf.Image) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img *pdf.Image) (string, error) {
	return f(ctx, img)
}

// PageSegMode mirrors Tesseract's page segmentation modes.
type PageSegMode int

const (
	PSMAuto         PageSegMode = 3
	PSMSingleColumn PageSegMode = 4
	PSMSingleBlock  PageSegMode = 6
	PSMSparseText   PageSegMode = 11
)

type options struct {
	languages []string
	psm       PageSegMode
}

// Option configures the Tesseract engine.
type Option func(*options)

// WithLanguages sets the recognition languages, e.g. "eng", "deu".
func WithLanguages(langs ...string) Option {
	return func(o *options) {
		if len(langs) > 0 {
			o.languages = langs
		}
	}
}

// WithPageSegMode sets the page segmentation mode.
func WithPageSegMode(mode PageSegMode) Option {
	return func(o *options) { o.psm = mode }
}

func newOptions(opts []Option) options {
	o := options{languages: []string{"eng"}, psm: PSMAuto}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func pageNumber(img *pdf.Image) int {
	if img == nil {
		return 0
	}
	return img.Page + 1
}
