//go:build mupdf

package pdf

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

type mupdfEngine struct {
	doc *fitz.Document
}

func openMuPDF(path string) (pageEngine, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &mupdfEngine{doc: doc}, nil
}

func (e *mupdfEngine) Render(page, dpi int) (image.Image, error) {
	img, err := e.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (e *mupdfEngine) Close() error {
	return e.doc.Close()
}
