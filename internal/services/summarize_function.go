package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/scantranscribe/internal/gcp"
	"github.com/Lllllllleong/scantranscribe/internal/models"
)

// SummarizeFunctionConfig holds all configuration for the summarizer service.
type SummarizeFunctionConfig struct {
	ProjectID      string
	VertexAIRegion string
	Model          string
}

// SummarizeFunction holds the dependencies for the summarization logic.
type SummarizeFunction struct {
	vertexClient *gcp.VertexClient
	summarizer   *Summarizer
	config       SummarizeFunctionConfig
}

func loadSummarizeConfig() (*SummarizeFunctionConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return &SummarizeFunctionConfig{
		ProjectID:      projectID,
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		Model:          gcp.GetEnv("SUMMARY_MODEL", gcp.DefaultModel),
	}, nil
}

// NewSummarizeFunction creates a new SummarizeFunction instance.
func NewSummarizeFunction(ctx context.Context) (*SummarizeFunction, error) {
	config, err := loadSummarizeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, gcp.VertexModels{Summary: config.Model})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &SummarizeFunction{
		vertexClient: vertexClient,
		summarizer:   NewSummarizer(vertexClient.SummaryModel),
		config:       *config,
	}, nil
}

// Process summarizes the text of one transcript.
func (f *SummarizeFunction) Process(ctx context.Context, req *models.SummarizeRequest) (*models.SummarizeResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID)
	if req.Text == "" {
		return nil, fmt.Errorf("%w for document %s", ErrEmptyText, req.DocumentID)
	}
	logCtx.Info("Starting summarization.", "chars", len(req.Text))

	summary, err := f.summarizer.Summarize(ctx, req.Text)
	if err != nil {
		logCtx.Error("Summarization failed", "error", err)
		return nil, err
	}
	if summary == "" {
		logCtx.Warn("Model returned an empty summary.")
	}

	logCtx.Info("Summarization complete.")
	return &models.SummarizeResponse{Status: "success", Summary: summary}, nil
}
