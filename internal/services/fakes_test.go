package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/scantranscribe/internal/ocr"
	"github.com/Lllllllleong/scantranscribe/internal/pdf"
)

// fakeDoc renders page i as an image whose bytes are pages[i].
type fakeDoc struct {
	pages     []string
	renderErr map[int]error

	mu       sync.Mutex
	rendered []*pdf.Image
	closed   bool
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) RenderPage(ctx context.Context, index, dpi int) (*pdf.Image, error) {
	if err := d.renderErr[index]; err != nil {
		return nil, err
	}
	img := &pdf.Image{Page: index, DPI: dpi, Format: pdf.FormatPNG, Data: []byte(d.pages[index])}
	d.mu.Lock()
	d.rendered = append(d.rendered, img)
	d.mu.Unlock()
	return img, nil
}

func (d *fakeDoc) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// fakeOpener serves documents by path; unknown paths fail to open.
type fakeOpener map[string]*fakeDoc

func (o fakeOpener) Open(ctx context.Context, path string) (PageRenderer, error) {
	doc, ok := o[path]
	if !ok {
		return nil, pdf.ErrDocumentOpen
	}
	return doc, nil
}

// echoRecognizer returns the image bytes padded with whitespace, the way an
// OCR engine surrounds text with blank lines.
var echoRecognizer = ocr.RecognizerFunc(func(ctx context.Context, img *pdf.Image) (string, error) {
	return "  " + string(img.Data) + "\n\n", nil
})

// reverseDelayRecognizer makes lower page indexes finish last.
func reverseDelayRecognizer(pageCount int) ocr.Recognizer {
	return ocr.RecognizerFunc(func(ctx context.Context, img *pdf.Image) (string, error) {
		time.Sleep(time.Duration(pageCount-img.Page) * 2 * time.Millisecond)
		return string(img.Data), nil
	})
}

// captureLogs routes the default slog logger into a buffer for the test.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
