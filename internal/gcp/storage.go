package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectNotFound is returned when a source object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// DownloadObject streams gs://bucket/object into destPath.
func DownloadObject(ctx context.Context, client *storage.Client, bucket, object, destPath string) error {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, object)
		}
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, reader); err != nil {
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	return localFile.Close()
}

// SaveToGCS writes content to a GCS object, replacing any existing object.
func SaveToGCS(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) error {
	writer := bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		slog.Error("Failed to copy content to GCS object.", "object", objectName, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		slog.Error("Failed to close GCS writer.", "object", objectName, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// BucketSink stores transcripts as objects under an optional prefix.
type BucketSink struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// NewBucketSink returns a sink writing to gs://bucket/prefix/.
func NewBucketSink(client *storage.Client, bucket, prefix string) *BucketSink {
	return &BucketSink{bucket: client.Bucket(bucket), name: bucket, prefix: strings.Trim(prefix, "/")}
}

// Save writes content as prefix/name and returns its gs:// URI.
func (s *BucketSink) Save(ctx context.Context, name, content string) (string, error) {
	objectName := name
	if s.prefix != "" {
		objectName = path.Join(s.prefix, name)
	}
	if err := SaveToGCS(ctx, s.bucket, objectName, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", s.name, objectName), nil
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
