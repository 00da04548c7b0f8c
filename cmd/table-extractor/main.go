// Command table-extractor extracts tables from a scanned image as CSV using a
// Gemini vision model on Vertex AI.
//
//	table-extractor [-prompt text] [-model name] <image_path> <output_path>
//
// PROJECT_ID and VERTEX_AI_REGION select the Vertex AI project.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/scantranscribe/internal/gcp"
	"github.com/Lllllllleong/scantranscribe/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	prompt := flag.String("prompt", "", "custom prompt to override the default table extraction prompt")
	model := flag.String("model", gcp.DefaultModel, "Gemini model to use; must support images")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: table-extractor [flags] <image_path> <output_path>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		return 2
	}
	imagePath, outputPath := flag.Arg(0), flag.Arg(1)

	ctx := context.Background()
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		slog.Error("PROJECT_ID environment variable must be set")
		return 1
	}
	vertexClient, err := gcp.NewVertexClient(ctx, projectID, gcp.GetEnv("VERTEX_AI_REGION", "us-central1"), gcp.VertexModels{Table: *model})
	if err != nil {
		slog.Error("Failed to create vertex client", "error", err)
		return 1
	}
	defer vertexClient.Close()

	csv, err := services.NewTableExtractor(vertexClient.TableModel).Extract(ctx, imagePath, *prompt)
	if err != nil {
		slog.Error("Table extraction failed", "image", imagePath, "error", err)
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		slog.Error("Failed to create output directory", "error", err)
		return 1
	}
	if err := os.WriteFile(outputPath, []byte(csv), 0o644); err != nil {
		slog.Error("Failed to write output", "output", outputPath, "error", err)
		return 1
	}
	slog.Info("Table extracted and saved.", "output", outputPath)
	return 0
}
