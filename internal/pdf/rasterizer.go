package pdf

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pageEngine rasterizes the pages of one open document.
type pageEngine interface {
	// Render draws the 0-based page at dpi.
	Render(page, dpi int) (image.Image, error)
	Close() error
}

type engineOpener func(path string) (pageEngine, error)

// Rasterizer opens PDF documents and renders their pages.
type Rasterizer struct {
	format     Format
	relaxed    bool
	openEngine engineOpener
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithFormat sets the encoding pages are handed to OCR in.
func WithFormat(f Format) Option {
	return func(r *Rasterizer) {
		if f != "" {
			r.format = f
		}
	}
}

// WithStrictValidation makes Open reject documents that only pass pdfcpu's
// relaxed validation.
func WithStrictValidation() Option {
	return func(r *Rasterizer) { r.relaxed = false }
}

// NewRasterizer returns a Rasterizer that renders with MuPDF, encodes pages
// as PNG and validates documents in relaxed mode.
func NewRasterizer(opts ...Option) *Rasterizer {
	r := &Rasterizer{format: FormatPNG, relaxed: true, openEngine: openMuPDF}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open reads and validates the document at path. Any failure is reported as
// ErrDocumentOpen. The renderer itself is started by the first RenderPage.
func (r *Rasterizer) Open(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDocumentOpen, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w %s: is a directory", ErrDocumentOpen, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDocumentOpen, path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	if r.relaxed {
		conf.ValidationMode = model.ValidationRelaxed
	} else {
		conf.ValidationMode = model.ValidationStrict
	}

	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w %s: read: %w", ErrDocumentOpen, path, err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, fmt.Errorf("%w %s: validate: %w", ErrDocumentOpen, path, err)
	}

	slog.Debug("Opened document.", "file", path, "pageCount", pdfCtx.PageCount)
	return &Document{
		path:       path,
		pageCount:  pdfCtx.PageCount,
		format:     r.format,
		openEngine: r.openEngine,
	}, nil
}

// Document is an opened PDF. Renders of one document are serialized; the
// MuPDF context behind them is not safe for concurrent use.
type Document struct {
	path       string
	pageCount  int
	format     Format
	openEngine engineOpener

	mu     sync.Mutex
	engine pageEngine
	closed bool
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages, which may be zero.
func (d *Document) PageCount() int { return d.pageCount }

// RenderPage rasterizes the 0-based page index at dpi. A dpi of zero or less
// selects DefaultDPI. The returned image must be released by the caller.
func (d *Document) RenderPage(ctx context.Context, index, dpi int) (*Image, error) {
	if index < 0 || index >= d.pageCount {
		return nil, fmt.Errorf("%w: %d not in [0, %d) for %s", ErrIndexOutOfRange, index, d.pageCount, d.path)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: page %d of %s: %w", ErrRender, index+1, d.path, err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	pix, err := d.render(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d of %s: %w", ErrRender, index+1, d.path, err)
	}
	if pix == nil || pix.Bounds().Empty() {
		return nil, fmt.Errorf("%w: page %d of %s: empty bitmap", ErrRender, index+1, d.path)
	}
	return FromBitmap(index, dpi, d.format, pix), nil
}

func (d *Document) render(index, dpi int) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("document closed")
	}
	if d.engine == nil {
		engine, err := d.openEngine(d.path)
		if err != nil {
			return nil, err
		}
		d.engine = engine
	}
	return d.engine.Render(index, dpi)
}

// Close releases the renderer. Further renders fail. It is safe to call more
// than once.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.engine == nil {
		return nil
	}
	err := d.engine.Close()
	d.engine = nil
	return err
}
