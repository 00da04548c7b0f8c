// Command pdfocr transcribes every scanned PDF in a folder to text with OCR.
//
//	pdfocr [flags] <input_folder> <output_folder>
//
// Each input.pdf becomes output_folder/input.txt. Documents that fail are
// logged and skipped; the exit status is non-zero only for usage errors, an
// unusable input or output folder, or a missing OCR engine.
//
// Build with -tags mupdf,ocr to compile in the MuPDF renderer and Tesseract.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/Lllllllleong/scantranscribe/internal/ocr"
	"github.com/Lllllllleong/scantranscribe/internal/pdf"
	"github.com/Lllllllleong/scantranscribe/internal/services"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// newRecognizer is replaced in tests.
var newRecognizer = func(langs []string) (ocr.Recognizer, error) {
	return ocr.New(ocr.WithLanguages(langs...))
}

// newOpener is replaced in tests.
var newOpener = func(format pdf.Format) services.DocumentOpener {
	return services.RasterizerOpener(pdf.NewRasterizer(pdf.WithFormat(format)))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfocr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdfocr [flags] <input_folder> <output_folder>\n\nPerform OCR on all PDFs in a folder.\n\n")
		fs.PrintDefaults()
	}

	var (
		dpi         = fs.Int("dpi", pdf.DefaultDPI, "rendering resolution in dots per inch")
		pageWorkers = fs.Int("page-workers", runtime.NumCPU(), "pages rendered and recognized concurrently per document")
		docWorkers  = fs.Int("doc-workers", 1, "documents processed concurrently")
		pageTimeout = fs.Duration("page-timeout", 0, "deadline for recognizing one page (0 disables)")
		lang        = fs.String("lang", "eng", "Tesseract languages, joined with '+'")
		onPageError = fs.String("on-page-error", string(services.FailDocument), "what a failed page does: 'fail' skips the document, 'placeholder' keeps going")
		format      = fs.String("format", string(pdf.FormatPNG), "page image format handed to OCR: png or tiff")
		manifest    = fs.Bool("manifest", false, "write "+services.ManifestName+" with per-document results to the output folder")
		verbose     = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}
	inputFolder, outputFolder := fs.Arg(0), fs.Arg(1)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	policy, err := services.ParsePageErrorPolicy(*onPageError)
	if err != nil {
		slog.Error("Invalid flag", "flag", "on-page-error", "error", err)
		return exitUsage
	}
	imgFormat, err := pdf.ParseFormat(*format)
	if err != nil {
		slog.Error("Invalid flag", "flag", "format", "error", err)
		return exitUsage
	}
	if *dpi <= 0 || *pageWorkers <= 0 || *docWorkers <= 0 || *pageTimeout < 0 {
		slog.Error("dpi, page-workers and doc-workers must be positive; page-timeout must not be negative")
		return exitUsage
	}

	recognizer, err := newRecognizer(strings.Split(*lang, "+"))
	if err != nil {
		slog.Error("Failed to initialize OCR engine", "error", err)
		return exitFailure
	}
	if c, ok := recognizer.(io.Closer); ok {
		defer c.Close()
	}

	transcriber := services.NewTranscriber(newOpener(imgFormat), recognizer, services.TranscriberConfig{
		DPI:         *dpi,
		PageWorkers: *pageWorkers,
		PageTimeout: *pageTimeout,
		OnPageError: policy,
	})
	driver := services.NewBatchDriver(transcriber, services.BatchConfig{
		Extension:       ".pdf",
		DocumentWorkers: *docWorkers,
		Manifest:        *manifest,
	})

	start := time.Now()
	report, err := driver.Run(ctx, inputFolder, outputFolder)
	if err != nil {
		slog.Error("Batch failed", "error", err)
		return exitFailure
	}
	slog.Info("Done.", "transcribed", report.Succeeded(), "failed", len(report.Failed()), "duration", time.Since(start).String())
	return exitOK
}
