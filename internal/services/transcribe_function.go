package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/scantranscribe/internal/gcp"
	"github.com/Lllllllleong/scantranscribe/internal/models"
	"github.com/Lllllllleong/scantranscribe/internal/ocr"
	"github.com/Lllllllleong/scantranscribe/internal/pdf"
)

// TranscribeFunctionConfig holds configuration for the upload-triggered
// transcriber.
type TranscribeFunctionConfig struct {
	ProjectID         string
	TranscriptsBucket string
	TranscriptsPrefix string
	CollectionName    string
	Languages         []string
	Transcriber       TranscriberConfig
}

// DocumentStore records transcription jobs by content hash.
type DocumentStore interface {
	FindCompleted(ctx context.Context, fileHash string) (id string, found bool, err error)
	Create(ctx context.Context, doc models.Document) (id string, err error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

// ObjectDownloader copies gs://bucket/object to a local file.
type ObjectDownloader func(ctx context.Context, bucket, object, destPath string) error

// TranscribeFunction transcribes PDFs as they land in a bucket.
type TranscribeFunction struct {
	download    ObjectDownloader
	store       DocumentStore
	transcriber DocumentTranscriber
	sink        TranscriptSink
	config      TranscribeFunctionConfig
}

// GCSEvent is the payload of a GCS object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// loadTranscribeConfig loads and validates all necessary environment variables for this service.
func loadTranscribeConfig() (*TranscribeFunctionConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	bucket := gcp.GetEnv("TRANSCRIPTS_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("TRANSCRIPTS_BUCKET environment variable must be set")
	}

	dpi, err := gcp.GetEnvInt("OCR_DPI", pdf.DefaultDPI)
	if err != nil {
		return nil, err
	}
	workers, err := gcp.GetEnvInt("OCR_PAGE_WORKERS", 0)
	if err != nil {
		return nil, err
	}
	timeout, err := gcp.GetEnvDuration("OCR_PAGE_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}
	policy, err := ParsePageErrorPolicy(gcp.GetEnv("OCR_ON_PAGE_ERROR", string(FailDocument)))
	if err != nil {
		return nil, err
	}

	return &TranscribeFunctionConfig{
		ProjectID:         projectID,
		TranscriptsBucket: bucket,
		TranscriptsPrefix: gcp.GetEnv("TRANSCRIPTS_PREFIX", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "transcripts"),
		Languages:         strings.Split(gcp.GetEnv("OCR_LANGUAGES", "eng"), "+"),
		Transcriber: TranscriberConfig{
			DPI:         dpi,
			PageWorkers: workers,
			PageTimeout: timeout,
			OnPageError: policy,
		},
	}, nil
}

// NewTranscribeFunction creates a TranscribeFunction with its clients, the
// MuPDF rasterizer and the Tesseract recognizer.
func NewTranscribeFunction(ctx context.Context) (*TranscribeFunction, error) {
	config, err := loadTranscribeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	recognizer, err := ocr.New(ocr.WithLanguages(config.Languages...))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	transcriber := NewTranscriber(RasterizerOpener(pdf.NewRasterizer()), recognizer, config.Transcriber)
	f := &TranscribeFunction{
		download: func(ctx context.Context, bucket, object, destPath string) error {
			return gcp.DownloadObject(ctx, storageClient, bucket, object, destPath)
		},
		store:       gcp.NewDocumentStore(firestoreClient, config.CollectionName),
		transcriber: transcriber,
		sink:        gcp.NewBucketSink(storageClient, config.TranscriptsBucket, config.TranscriptsPrefix),
		config:      *config,
	}
	slog.Info("Transcriber logic initialized.", "transcriptsBucket", config.TranscriptsBucket, "dpi", transcriber.Config().DPI)
	return f, nil
}

// Process transcribes one uploaded object.
func (f *TranscribeFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !IsDocumentObject(e.Name) {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	tempDir, err := os.MkdirTemp("", "pdf-transcriber-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Keep the upload's base name so logs and errors name the real document.
	sourcePdfPath := filepath.Join(tempDir, path.Base(e.Name))
	if err := f.download(ctx, e.Bucket, e.Name, sourcePdfPath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash, err := calculateFileHash(sourcePdfPath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	docID, isDuplicate, err := f.store.FindCompleted(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Document already transcribed. Skipping.", "existingDocId", docID)
		return nil
	}

	docID, err = f.store.Create(ctx, models.Document{
		FileHash:         fileHash,
		OriginalFilename: e.Name,
		Status:           models.StatusTranscribing,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", docID)

	start := time.Now()
	transcript, err := f.transcriber.Transcribe(ctx, sourcePdfPath)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to transcribe document", err)
	}

	uri, err := f.sink.Save(ctx, TranscriptObjectName(e.Name), transcript.String())
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to upload transcript", err)
	}

	fields := map[string]interface{}{
		"status":        models.StatusCompleted,
		"pageCount":     len(transcript.Pages),
		"transcriptUri": uri,
	}
	if failed := transcript.FailedPages(); len(failed) > 0 {
		fields["failedPages"] = failed
	}
	if err := f.store.Update(ctx, docID, fields); err != nil {
		logCtx.Error("Failed to mark document COMPLETED", "error", err)
		return fmt.Errorf("failed to update status to COMPLETED: %w", err)
	}

	logCtx.Info("Transcription complete.", "transcriptUri", uri, "pageCount", len(transcript.Pages), "duration", time.Since(start).String())
	return nil
}

// IsDocumentObject reports whether an object name looks like a PDF upload.
func IsDocumentObject(name string) bool {
	return strings.HasSuffix(name, ".pdf") && !strings.HasSuffix(name, "/")
}

// TranscriptObjectName maps an uploaded object to its transcript object,
// keeping the upload's folder so same-named files in different folders do not
// collide.
func TranscriptObjectName(object string) string {
	name := TranscriptName(path.Base(object))
	if dir := path.Dir(object); dir != "." && dir != "/" {
		return path.Join(dir, name)
	}
	return name
}

func (f *TranscribeFunction) handleError(ctx context.Context, logCtx *slog.Logger, docID, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	fields := map[string]interface{}{
		"status":       models.StatusFailed,
		"errorDetails": fmt.Sprintf("%s: %v", message, originalErr),
	}
	if err := f.store.Update(ctx, docID, fields); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
