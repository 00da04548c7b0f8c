package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/scantranscribe/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	transcriberInstance *services.TranscribeFunction
	once                sync.Once
	initErr             error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework will handle routing the event here.
	functions.CloudEvent("TranscribeUpload", transcribeUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// transcribeUpload is the Cloud Function entry point for GCS finalize events.
func transcribeUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		transcriberInstance, initErr = services.NewTranscribeFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged with context inside Process; returning one marks the
	// invocation as failed.
	return transcriberInstance.Process(ctx, gcsEvent)
}
