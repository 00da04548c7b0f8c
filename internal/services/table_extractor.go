package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/scantranscribe/internal/gcp"
)

// TableExtractor pulls tables out of a scanned image as CSV.
type TableExtractor struct {
	model ContentGenerator
}

// NewTableExtractor creates a TableExtractor over a vision-capable model,
// normally gcp.VertexClient.TableModel.
func NewTableExtractor(model ContentGenerator) *TableExtractor {
	return &TableExtractor{model: model}
}

// Extract sends the image at imagePath with prompt, or the default table
// prompt when prompt is empty, and returns the CSV text of the answer.
func (e *TableExtractor) Extract(ctx context.Context, imagePath, prompt string) (string, error) {
	logCtx := slog.With("image", filepath.Base(imagePath))

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}
	format, err := imageFormat(imagePath, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = gcp.TableUserPrompt
	}

	logCtx.Info("Requesting table extraction.", "format", format, "bytes", len(data))
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, data))
	if err != nil {
		logCtx.Error("Call to Vertex AI for table extraction failed", "error", err)
		return "", fmt.Errorf("%w: table extraction: %w", ErrRemoteCall, err)
	}

	csv := extractText(resp, "csv")
	if isRefusal(csv) {
		logCtx.Error("LLM refusal detected", "response", csv)
		return "", fmt.Errorf("%w: model refused table extraction for %s", ErrRemoteCall, imagePath)
	}
	if csv == "" {
		logCtx.Warn("No table content extracted from response.")
	}
	return csv, nil
}

// imageFormat returns the genai image format ("jpeg" or "png") from the file
// extension, falling back to content sniffing.
func imageFormat(path string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".png":
		return "png", nil
	}
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpeg", nil
	case "image/png":
		return "png", nil
	}
	return "", fmt.Errorf("unsupported image type for %s", path)
}
