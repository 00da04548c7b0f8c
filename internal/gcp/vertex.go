package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Table Extraction Model Prompts ---
const TableSystemPrompt = "You are a document analysis assistant. You read scanned pages and reproduce the tables they contain as data."
const TableUserPrompt = "Extract any tables found in this image. Return the result in valid CSV format, without commentary or explanations."

// --- Summary Model Prompts ---
const SummarySystemPrompt = "You are a careful analyst who writes short, faithful summaries of long documents."
const SummaryUserPrompt = "Summarize the following document in concise, clear bullet points. Highlight key ideas, events, and any critical information:"

// DefaultModel is used for both models unless overridden.
const DefaultModel = "gemini-1.5-pro"

// VertexModels selects the model names to configure.
type VertexModels struct {
	Table   string
	Summary string
}

// VertexClient holds all pre-configured generative models for our app.
type VertexClient struct {
	TableModel   *genai.GenerativeModel
	SummaryModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewVertexClient creates a new client holding all necessary models. It is
// meant to be constructed once per process and passed to the services that
// need it.
func NewVertexClient(ctx context.Context, projectID, region string, models VertexModels) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if models.Table == "" {
		models.Table = DefaultModel
	}
	if models.Summary == "" {
		models.Summary = DefaultModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the table extraction model ---
	tableModel := baseClient.GenerativeModel(models.Table)
	tableModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TableSystemPrompt)},
	}
	tableModel.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: genai.Ptr[int32](2048),
		Temperature:     genai.Ptr[float32](0.0),
	}

	// --- Configure the summary model ---
	summaryModel := baseClient.GenerativeModel(models.Summary)
	summaryModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SummarySystemPrompt)},
	}
	summaryModel.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: genai.Ptr[int32](300),
		Temperature:     genai.Ptr[float32](0.5),
	}

	return &VertexClient{
		TableModel:   tableModel,
		SummaryModel: summaryModel,
		baseClient:   baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
