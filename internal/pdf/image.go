package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/tiff"
)

// DefaultDPI is the resolution pages are rasterized at unless overridden.
const DefaultDPI = 300

// Format is the encoding a page is handed to the OCR engine in.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "png":
		return FormatPNG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// Image is one rendered page. It belongs to the caller that requested the
// render and must be dropped with Release once recognized.
type Image struct {
	Page   int
	DPI    int
	Format Format
	Width  int
	Height int

	// Pixels is the rendered bitmap. Encode replaces it with Data.
	Pixels image.Image
	// Data holds the page encoded as Format.
	Data []byte
}

// FromBitmap wraps a rendered bitmap.
func FromBitmap(page, dpi int, format Format, pix image.Image) *Image {
	b := pix.Bounds()
	return &Image{
		Page:   page,
		DPI:    dpi,
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: pix,
	}
}

// NewImage wraps already encoded image bytes, reading the pixel dimensions
// from the image header. It fails if data is not a decodable PNG or TIFF.
func NewImage(page, dpi int, format Format, data []byte) (*Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode page %d image header: %w", page+1, err)
	}
	return &Image{
		Page:   page,
		DPI:    dpi,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}

// Encode returns the page encoded as its Format. The first call encodes the
// bitmap and drops it, so only one copy of the page is held.
func (img *Image) Encode() ([]byte, error) {
	if img.Data != nil {
		return img.Data, nil
	}
	if img.Pixels == nil {
		return nil, fmt.Errorf("page %d: image released", img.Page+1)
	}

	var buf bytes.Buffer
	var err error
	switch img.Format {
	case FormatTIFF:
		err = tiff.Encode(&buf, img.Pixels, nil)
	default:
		err = (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(&buf, img.Pixels)
	}
	if err != nil {
		return nil, fmt.Errorf("encode page %d as %s: %w", img.Page+1, img.Format, err)
	}
	img.Data = buf.Bytes()
	img.Pixels = nil
	return img.Data, nil
}

// Release drops the bitmap and encoded bytes. It is safe to call more than
// once.
func (img *Image) Release() {
	if img == nil {
		return
	}
	img.Pixels = nil
	img.Data = nil
}

// Released reports whether the image holds no page data.
func (img *Image) Released() bool {
	return img == nil || (img.Pixels == nil && img.Data == nil)
}
