package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Lllllllleong/scantranscribe/internal/models"
	"github.com/Lllllllleong/scantranscribe/internal/ocr"
	"github.com/Lllllllleong/scantranscribe/internal/pdf"
	"golang.org/x/sync/errgroup"
)

// PlaceholderText stands in for a page that could not be recognized when the
// Placeholder policy is active.
const PlaceholderText = "[page could not be recognized]"

// PageErrorPolicy decides what a page render or recognition failure does to
// its document.
type PageErrorPolicy string

const (
	// FailDocument fails the whole document on the first page failure.
	FailDocument PageErrorPolicy = "fail"
	// Placeholder records PlaceholderText for the page and carries on.
	Placeholder PageErrorPolicy = "placeholder"
)

// ParsePageErrorPolicy maps a user supplied name to a policy.
func ParsePageErrorPolicy(s string) (PageErrorPolicy, error) {
	switch PageErrorPolicy(s) {
	case "", FailDocument:
		return FailDocument, nil
	case Placeholder:
		return Placeholder, nil
	default:
		return "", fmt.Errorf("unknown page error policy %q (want %q or %q)", s, FailDocument, Placeholder)
	}
}

// PageRenderer is an opened document whose pages can be rasterized.
type PageRenderer interface {
	PageCount() int
	RenderPage(ctx context.Context, index, dpi int) (*pdf.Image, error)
	Close() error
}

// DocumentOpener opens a document for rendering.
type DocumentOpener interface {
	Open(ctx context.Context, path string) (PageRenderer, error)
}

// OpenerFunc adapts a function to the DocumentOpener interface.
type OpenerFunc func(ctx context.Context, path string) (PageRenderer, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (PageRenderer, error) {
	return f(ctx, path)
}

// RasterizerOpener opens documents with a pdf.Rasterizer.
func RasterizerOpener(r *pdf.Rasterizer) DocumentOpener {
	return OpenerFunc(func(ctx context.Context, path string) (PageRenderer, error) {
		doc, err := r.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// TranscriberConfig holds the tuning knobs of a Transcriber.
type TranscriberConfig struct {
	DPI         int
	PageWorkers int
	PageTimeout time.Duration
	OnPageError PageErrorPolicy
}

func (c TranscriberConfig) withDefaults() TranscriberConfig {
	if c.DPI <= 0 {
		c.DPI = pdf.DefaultDPI
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = runtime.NumCPU()
	}
	if c.OnPageError == "" {
		c.OnPageError = FailDocument
	}
	return c
}

// Transcriber turns one document into an ordered Transcript.
type Transcriber struct {
	opener     DocumentOpener
	recognizer ocr.Recognizer
	config     TranscriberConfig
}

// NewTranscriber creates a Transcriber. A positive PageTimeout bounds how
// long a page waits for its recognition result.
func NewTranscriber(opener DocumentOpener, recognizer ocr.Recognizer, config TranscriberConfig) *Transcriber {
	return &Transcriber{
		opener:     opener,
		recognizer: recognizer,
		config:     config.withDefaults(),
	}
}

// Config returns the effective configuration.
func (t *Transcriber) Config() TranscriberConfig { return t.config }

// Transcribe renders and recognizes every page of the document at path. Pages
// run on a bounded worker pool; each result lands in the slot of its page
// index, so the transcript is always in ascending page order.
//
// A worker slot covers a page from render until the engine call returns, even
// when PageTimeout has already given up on it, so at most PageWorkers page
// images and engine calls exist at once. Transcribe returns only after every
// engine call it started has finished.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (*models.Transcript, error) {
	logCtx := slog.With("file", filepath.Base(path))

	doc, err := t.opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	logCtx.Debug("Transcribing document.", "pageCount", pageCount, "dpi", t.config.DPI, "workers", t.config.PageWorkers)

	pages := make([]models.PageText, pageCount)
	slots := make(chan struct{}, t.config.PageWorkers)
	var engines sync.WaitGroup
	defer engines.Wait()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(t.config.PageWorkers)

	for i := 0; i < pageCount; i++ {
		index := i
		eg.Go(func() error {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return &PageError{Index: index, Err: gctx.Err()}
			}
			text, err := t.transcribePage(gctx, doc, index, slots, &engines)
			if err == nil {
				pages[index] = models.PageText{Index: index, Text: text}
				return nil
			}
			if t.tolerates(gctx, err) {
				logCtx.Warn("Page could not be recognized; writing placeholder.", "page", index+1, "error", err)
				pages[index] = models.PageText{Index: index, Text: PlaceholderText, Failed: true}
				return nil
			}
			return &PageError{Index: index, Err: err}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", path, err)
	}

	return &models.Transcript{Source: path, Pages: pages}, nil
}

// transcribePage renders one page and hands it to the engine. The caller has
// taken a slot; the slot and the image are given back when the engine call
// returns, which may be after transcribePage has timed out.
func (t *Transcriber) transcribePage(ctx context.Context, doc PageRenderer, index int, slots chan struct{}, engines *sync.WaitGroup) (string, error) {
	if err := ctx.Err(); err != nil {
		<-slots
		return "", err
	}
	img, err := doc.RenderPage(ctx, index, t.config.DPI)
	if err != nil {
		<-slots
		return "", err
	}

	rctx, cancel := ctx, context.CancelFunc(func() {})
	if t.config.PageTimeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, t.config.PageTimeout)
	}
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	engines.Add(1)
	go func() {
		defer engines.Done()
		defer func() { <-slots }()
		defer img.Release()

		text, err := t.recognizer.Recognize(rctx, img)
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	case <-rctx.Done():
		return "", fmt.Errorf("%w: page %d: %w", ocr.ErrRecognition, index+1, rctx.Err())
	}
}

// tolerates reports whether a page failure becomes a placeholder. Index
// errors and cancellation are never tolerated.
func (t *Transcriber) tolerates(ctx context.Context, err error) bool {
	if t.config.OnPageError != Placeholder || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, pdf.ErrIndexOutOfRange)
}
