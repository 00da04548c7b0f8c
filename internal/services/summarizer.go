package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/scantranscribe/internal/gcp"
)

// Summarizer turns document text into bullet-point summaries.
type Summarizer struct {
	model ContentGenerator
}

// NewSummarizer creates a Summarizer over a text model, normally
// gcp.VertexClient.SummaryModel.
func NewSummarizer(model ContentGenerator) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize returns a bullet-point summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt := gcp.SummaryUserPrompt + "\n\n" + text
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: summarize: %w", ErrRemoteCall, err)
	}
	summary := extractText(resp, "markdown")
	if isRefusal(summary) {
		return "", fmt.Errorf("%w: model refused to summarize", ErrRemoteCall)
	}
	return summary, nil
}

// SummarizeFolder summarizes every .txt file in folder, in name order, and
// writes one "## Summary of <name>" section per file to outFile. Any failure
// aborts the run before outFile is written.
func (s *Summarizer) SummarizeFolder(ctx context.Context, folder, outFile string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(folder, "*.txt"))
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", folder, err)
	}
	sort.Strings(matches)

	sections := make([]string, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		logCtx := slog.With("file", name)
		logCtx.Info("Summarizing.")

		data, err := os.ReadFile(path)
		if err != nil {
			logCtx.Error("Failed to read text file", "error", err)
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
		summary, err := s.Summarize(ctx, string(data))
		if err != nil {
			logCtx.Error("Failed to summarize", "error", err)
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		sections = append(sections, fmt.Sprintf("## Summary of %s\n%s\n", name, summary))
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", ErrFilesystem, filepath.Dir(outFile), err)
	}
	if err := os.WriteFile(outFile, []byte(strings.Join(sections, "\n\n")), 0o644); err != nil {
		return 0, fmt.Errorf("%w: write %s: %w", ErrFilesystem, outFile, err)
	}
	slog.Info("Summaries saved.", "output", outFile, "files", len(sections))
	return len(sections), nil
}
