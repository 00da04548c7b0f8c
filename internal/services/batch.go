package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Lllllllleong/scantranscribe/internal/models"
	"golang.org/x/sync/errgroup"
)

// ManifestName is the file the batch manifest is written to.
const ManifestName = "manifest.json"

// DocumentTranscriber transcribes one document.
type DocumentTranscriber interface {
	Transcribe(ctx context.Context, path string) (*models.Transcript, error)
}

// BatchConfig holds configuration for a batch run.
type BatchConfig struct {
	Extension       string // matched case-sensitively against file names
	DocumentWorkers int
	Manifest        bool
}

// BatchDriver transcribes every document in a folder.
type BatchDriver struct {
	transcriber DocumentTranscriber
	config      BatchConfig
}

// DocumentResult is the outcome for one input document.
type DocumentResult struct {
	Source      string        `json:"source"`
	Output      string        `json:"output,omitempty"`
	Pages       int           `json:"pages"`
	FailedPages []int         `json:"failedPages,omitempty"`
	Error       string        `json:"error,omitempty"`
	Err         error         `json:"-"`
	Duration    time.Duration `json:"-"`
}

// Report lists per-document results in processing (name) order.
type Report struct {
	Documents []DocumentResult `json:"documents"`
}

// Succeeded counts documents whose transcript was written.
func (r *Report) Succeeded() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results of documents that were not written.
func (r *Report) Failed() []DocumentResult {
	var failed []DocumentResult
	for _, d := range r.Documents {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

// NewBatchDriver creates a BatchDriver. Extension defaults to ".pdf" and
// DocumentWorkers to 1.
func NewBatchDriver(transcriber DocumentTranscriber, config BatchConfig) *BatchDriver {
	if config.Extension == "" {
		config.Extension = ".pdf"
	}
	if config.DocumentWorkers <= 0 {
		config.DocumentWorkers = 1
	}
	return &BatchDriver{transcriber: transcriber, config: config}
}

// Run transcribes every matching document in inputFolder into
// outputFolder/<stem>.txt. A failed document is logged and recorded in the
// report; it never stops the batch. The returned error is non-nil only when
// the folders themselves are unusable or ctx is cancelled.
func (b *BatchDriver) Run(ctx context.Context, inputFolder, outputFolder string) (*Report, error) {
	info, err := os.Stat(inputFolder)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidInput, inputFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w %s: not a directory", ErrInvalidInput, inputFolder)
	}

	sink, err := NewDirSink(outputFolder)
	if err != nil {
		return nil, err
	}

	files, err := b.discover(inputFolder)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.Info("No PDF files found.", "folder", inputFolder, "extension", b.config.Extension)
		return &Report{}, nil
	}
	slog.Info("Starting batch.", "folder", inputFolder, "documents", len(files), "workers", b.config.DocumentWorkers)

	report := &Report{Documents: make([]DocumentResult, len(files))}
	var done atomic.Int64

	eg := new(errgroup.Group)
	eg.SetLimit(b.config.DocumentWorkers)
	for i, path := range files {
		index, path := i, path
		eg.Go(func() error {
			res := b.processDocument(ctx, sink, path)
			report.Documents[index] = res
			n := done.Add(1)
			slog.Debug("Batch progress.", "done", n, "total", len(files))
			return nil
		})
	}
	// Tasks record failures in the report instead of returning them.
	eg.Wait()

	if b.config.Manifest {
		if err := b.writeManifest(ctx, sink, report); err != nil {
			slog.Error("Failed to write manifest", "error", err)
		}
	}

	slog.Info("Batch complete.", "succeeded", report.Succeeded(), "failed", len(report.Failed()))
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// discover lists regular files with the configured extension, sorted by name.
func (b *BatchDriver) discover(inputFolder string) ([]string, error) {
	entries, err := os.ReadDir(inputFolder)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidInput, inputFolder, err)
	}
	var files []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), b.config.Extension) {
			continue
		}
		path := filepath.Join(inputFolder, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func (b *BatchDriver) processDocument(ctx context.Context, sink TranscriptSink, path string) DocumentResult {
	name := filepath.Base(path)
	logCtx := slog.With("file", name)
	start := time.Now()
	res := DocumentResult{Source: name}

	fail := func(msg string, err error) DocumentResult {
		logCtx.Error(msg, "error", err)
		res.Err = err
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail("Skipped document; batch cancelled", err)
	}

	transcript, err := b.transcriber.Transcribe(ctx, path)
	if err != nil {
		return fail("Failed to transcribe document", err)
	}

	uri, err := sink.Save(ctx, TranscriptName(name), transcript.String())
	if err != nil {
		return fail("Failed to write transcript", err)
	}

	res.Output = uri
	res.Pages = len(transcript.Pages)
	res.FailedPages = transcript.FailedPages()
	res.Duration = time.Since(start)
	logCtx.Info("Processed document.", "output", uri, "pages", res.Pages, "failedPages", len(res.FailedPages), "duration", res.Duration.String())
	return res
}

func (b *BatchDriver) writeManifest(ctx context.Context, sink TranscriptSink, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	_, err = sink.Save(ctx, ManifestName, string(data)+"\n")
	return err
}

// TranscriptName maps a source file name to its transcript name: the stem
// plus ".txt".
func TranscriptName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}
