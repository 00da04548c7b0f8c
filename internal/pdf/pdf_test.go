package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

// buildPDF writes a minimal, well-formed PDF with n blank letter-size pages.
func buildPDF(t *testing.T, n int) string {
	t.Helper()

	var objects []string
	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i := 0; i < n; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func testImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.pdf")},
		{"directory", dir},
		{"not a pdf", garbage},
	}

	r := NewRasterizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.Open(context.Background(), tt.path)
			if !errors.Is(err, ErrDocumentOpen) {
				t.Fatalf("expected ErrDocumentOpen, got %v", err)
			}
			if doc != nil {
				t.Error("expected nil document")
			}
		})
	}
}

func TestOpenPageCount(t *testing.T) {
	path := buildPDF(t, 3)

	doc, err := NewRasterizer().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 3 {
		t.Errorf("PageCount = %d, want 3", doc.PageCount())
	}
	if doc.Path() != path {
		t.Errorf("Path = %q, want %q", doc.Path(), path)
	}
}

// fakeEngine renders every page as a w x h white bitmap.
type fakeEngine struct {
	w, h   int
	err    error
	pages  []int
	dpis   []int
	closed bool
}

func (e *fakeEngine) Render(page, dpi int) (image.Image, error) {
	e.pages = append(e.pages, page)
	e.dpis = append(e.dpis, dpi)
	if e.err != nil {
		return nil, e.err
	}
	return testImage(e.w, e.h), nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func fakeDocument(pageCount int, engine *fakeEngine, opens *int) *Document {
	return &Document{
		path:      "x.pdf",
		pageCount: pageCount,
		format:    FormatPNG,
		openEngine: func(string) (pageEngine, error) {
			*opens++
			return engine, nil
		},
	}
}

func TestRenderPageIndexOutOfRange(t *testing.T) {
	var opens int
	doc := fakeDocument(2, &fakeEngine{w: 1, h: 1}, &opens)

	for _, idx := range []int{-1, 2, 10} {
		if _, err := doc.RenderPage(context.Background(), idx, DefaultDPI); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("index %d: expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if opens != 0 {
		t.Errorf("renderer opened %d times for invalid indexes", opens)
	}
}

func TestRenderPageArguments(t *testing.T) {
	var opens int
	engine := &fakeEngine{w: 40, h: 20}
	doc := fakeDocument(3, engine, &opens)

	img, err := doc.RenderPage(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if _, err := doc.RenderPage(context.Background(), 0, 150); err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if opens != 1 {
		t.Errorf("renderer opened %d times, want 1", opens)
	}
	if engine.pages[0] != 2 || engine.dpis[0] != DefaultDPI || engine.dpis[1] != 150 {
		t.Errorf("renderer got pages %v at %v DPI", engine.pages, engine.dpis)
	}
	if img.Page != 2 || img.DPI != DefaultDPI || img.Width != 40 || img.Height != 20 || img.Format != FormatPNG {
		t.Errorf("unexpected image %+v", img)
	}
	if img.Pixels == nil || img.Data != nil {
		t.Error("expected an unencoded bitmap")
	}

	img.Release()
	img.Release()
	if !img.Released() {
		t.Error("expected image to be released")
	}

	if err := doc.Close(); err != nil {
		t.Fatal(err)
	}
	if !engine.closed {
		t.Error("Close did not close the renderer")
	}
}

func TestRenderPageFailures(t *testing.T) {
	var opens int
	failing := fakeDocument(1, &fakeEngine{err: errors.New("boom")}, &opens)
	if _, err := failing.RenderPage(context.Background(), 0, 300); !errors.Is(err, ErrRender) {
		t.Errorf("expected ErrRender, got %v", err)
	}

	empty := fakeDocument(1, &fakeEngine{w: 0, h: 0}, &opens)
	if _, err := empty.RenderPage(context.Background(), 0, 300); !errors.Is(err, ErrRender) {
		t.Errorf("expected ErrRender for an empty bitmap, got %v", err)
	}

	unopenable := &Document{path: "x.pdf", pageCount: 1, openEngine: func(string) (pageEngine, error) {
		return nil, errors.New("no such file")
	}}
	if _, err := unopenable.RenderPage(context.Background(), 0, 300); !errors.Is(err, ErrRender) {
		t.Errorf("expected ErrRender when the renderer cannot start, got %v", err)
	}

	closed := fakeDocument(1, &fakeEngine{w: 4, h: 4}, &opens)
	closed.Close()
	if _, err := closed.RenderPage(context.Background(), 0, 300); !errors.Is(err, ErrRender) {
		t.Errorf("expected ErrRender after Close, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	live := fakeDocument(1, &fakeEngine{w: 4, h: 4}, &opens)
	if _, err := live.RenderPage(ctx, 0, 300); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	for _, f := range []Format{FormatPNG, FormatTIFF} {
		t.Run(string(f), func(t *testing.T) {
			img := FromBitmap(0, 150, f, testImage(12, 7))
			data, err := img.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("encoded page does not decode: %v", err)
			}
			if name != string(f) || cfg.Width != 12 || cfg.Height != 7 {
				t.Errorf("decoded %s %dx%d, want %s 12x7", name, cfg.Width, cfg.Height, f)
			}
			if img.Pixels != nil {
				t.Error("bitmap kept after encoding")
			}
			again, err := img.Encode()
			if err != nil || !bytes.Equal(again, data) {
				t.Errorf("second Encode = %d bytes, %v", len(again), err)
			}

			img.Release()
			if _, err := img.Encode(); err == nil {
				t.Error("expected an error encoding a released image")
			}
		})
	}
}

func TestNewImageTIFF(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(12, 7), nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}

	img, err := NewImage(0, 150, FormatTIFF, buf.Bytes())
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}
	if img.Width != 12 || img.Height != 7 {
		t.Errorf("dimensions = %dx%d, want 12x7", img.Width, img.Height)
	}
	if _, err := NewImage(0, 150, FormatPNG, []byte("not an image")); err == nil {
		t.Error("expected an error for undecodable bytes")
	}
	if _, err := NewImage(0, 150, FormatPNG, pngBytes(t, 3, 3)); err != nil {
		t.Errorf("NewImage(png) failed: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPNG, false},
		{"png", FormatPNG, false},
		{"tif", FormatTIFF, false},
		{"tiff", FormatTIFF, false},
		{"jpeg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
