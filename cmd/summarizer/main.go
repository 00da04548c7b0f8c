// Command summarizer summarizes every .txt file in a folder into one
// Markdown file using a Gemini model on Vertex AI.
//
//	summarizer [-model name] <text_folder> <output_summary_file>
//
// PROJECT_ID and VERTEX_AI_REGION select the Vertex AI project.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/scantranscribe/internal/gcp"
	"github.com/Lllllllleong/scantranscribe/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	model := flag.String("model", gcp.DefaultModel, "Gemini model to use")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: summarizer [flags] <text_folder> <output_summary_file>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		return 2
	}

	ctx := context.Background()
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		slog.Error("PROJECT_ID environment variable must be set")
		return 1
	}
	vertexClient, err := gcp.NewVertexClient(ctx, projectID, gcp.GetEnv("VERTEX_AI_REGION", "us-central1"), gcp.VertexModels{Summary: *model})
	if err != nil {
		slog.Error("Failed to create vertex client", "error", err)
		return 1
	}
	defer vertexClient.Close()

	if _, err := services.NewSummarizer(vertexClient.SummaryModel).SummarizeFolder(ctx, flag.Arg(0), flag.Arg(1)); err != nil {
		slog.Error("Summarization failed", "error", err)
		return 1
	}
	return 0
}
