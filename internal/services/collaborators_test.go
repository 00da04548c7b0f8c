package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/scantranscribe/internal/gcp"
	"github.com/Lllllllleong/scantranscribe/internal/models"
)

// fakeModel answers every request with reply, or fails with err.
type fakeModel struct {
	reply string
	err   error
	calls [][]genai.Part
}

func (m *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.calls = append(m.calls, parts)
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(m.reply)}},
		}},
	}, nil
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil response", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{
			"fenced csv",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("```csv\na,b\n1,2\n```")}},
			}}},
			"a,b\n1,2",
		},
		{
			"multiple parts",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("- one\n"), genai.Text("- two")}},
			}}},
			"- one\n- two",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.resp, "csv"); got != tt.want {
				t.Errorf("extractText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTableExtractorExtract(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o644); err != nil {
		t.Fatal(err)
	}

	model := &fakeModel{reply: "```csv\nname,qty\nbolt,4\n```"}
	csv, err := NewTableExtractor(model).Extract(context.Background(), img, "")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if csv != "name,qty\nbolt,4" {
		t.Errorf("csv = %q", csv)
	}

	parts := model.calls[0]
	if len(parts) != 2 {
		t.Fatalf("sent %d parts, want 2", len(parts))
	}
	if txt, ok := parts[0].(genai.Text); !ok || string(txt) != gcp.TableUserPrompt {
		t.Errorf("expected the default prompt, got %v", parts[0])
	}
	if blob, ok := parts[1].(genai.Blob); !ok || blob.MIMEType != "image/png" {
		t.Errorf("expected a PNG blob, got %#v", parts[1])
	}
}

func TestTableExtractorCustomPromptAndSniffing(t *testing.T) {
	img := filepath.Join(t.TempDir(), "scan.bin")
	if err := os.WriteFile(img, []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	model := &fakeModel{reply: "a,b"}
	if _, err := NewTableExtractor(model).Extract(context.Background(), img, "only the first table"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if txt := model.calls[0][0].(genai.Text); string(txt) != "only the first table" {
		t.Errorf("prompt = %q", txt)
	}
	if blob := model.calls[0][1].(genai.Blob); blob.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %q, want image/jpeg", blob.MIMEType)
	}
}

func TestTableExtractorErrors(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "scan.jpg")
	if err := os.WriteFile(img, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	unknown := filepath.Join(dir, "scan.dat")
	if err := os.WriteFile(unknown, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewTableExtractor(&fakeModel{err: errors.New("quota exceeded")}).Extract(context.Background(), img, ""); !errors.Is(err, ErrRemoteCall) {
		t.Errorf("expected ErrRemoteCall, got %v", err)
	}
	if _, err := NewTableExtractor(&fakeModel{reply: "I am unable to read this image."}).Extract(context.Background(), img, ""); !errors.Is(err, ErrRemoteCall) {
		t.Errorf("expected ErrRemoteCall for a refusal, got %v", err)
	}
	if _, err := NewTableExtractor(&fakeModel{}).Extract(context.Background(), unknown, ""); err == nil {
		t.Error("expected an error for an unsupported image")
	}
	if _, err := NewTableExtractor(&fakeModel{}).Extract(context.Background(), filepath.Join(dir, "missing.png"), ""); err == nil {
		t.Error("expected an error for a missing image")
	}
}

func TestSummarizeFolder(t *testing.T) {
	in := t.TempDir()
	for name, body := range map[string]string{"b.txt": "second", "a.txt": "first", "skip.md": "ignored"} {
		if err := os.WriteFile(filepath.Join(in, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out := filepath.Join(t.TempDir(), "reports", "summary.md")

	model := &fakeModel{reply: "- point"}
	n, err := NewSummarizer(model).SummarizeFolder(context.Background(), in, out)
	if err != nil {
		t.Fatalf("SummarizeFolder failed: %v", err)
	}
	if n != 2 {
		t.Errorf("summarized %d files, want 2", n)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "## Summary of a.txt\n- point\n\n\n## Summary of b.txt\n- point\n"
	if string(data) != want {
		t.Errorf("summary file = %q, want %q", data, want)
	}

	prompt := string(model.calls[0][0].(genai.Text))
	if !strings.HasPrefix(prompt, gcp.SummaryUserPrompt) || !strings.HasSuffix(prompt, "first") {
		t.Errorf("unexpected prompt %q", prompt)
	}
}

func TestSummarizeFolderFailure(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "a.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "summary.md")

	_, err := NewSummarizer(&fakeModel{err: errors.New("unauthenticated")}).SummarizeFolder(context.Background(), in, out)
	if !errors.Is(err, ErrRemoteCall) {
		t.Errorf("expected ErrRemoteCall, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("summary file should not be written after a failure")
	}
}

func TestSummarizeFunctionProcess(t *testing.T) {
	f := &SummarizeFunction{summarizer: NewSummarizer(&fakeModel{reply: "- point"})}

	res, err := f.Process(context.Background(), &models.SummarizeRequest{DocumentID: "d1", Text: "long text"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Status != "success" || res.Summary != "- point" {
		t.Errorf("unexpected response %+v", res)
	}

	_, err = f.Process(context.Background(), &models.SummarizeRequest{DocumentID: "d2"})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if strings.Contains(err.Error(), "folder") {
		t.Errorf("error message mentions a folder: %q", err)
	}
}
