package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// TranscriptSink stores rendered transcripts by file name.
type TranscriptSink interface {
	Save(ctx context.Context, name, content string) (uri string, err error)
}

// DirSink writes transcripts into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates dir, including parents, and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output folder %s: %w", ErrFilesystem, dir, err)
	}
	return &DirSink{dir: dir}, nil
}

// Save writes content to dir/name, replacing any existing file. The content is
// written to a temporary file first and renamed into place, so readers never
// see a partial transcript.
func (s *DirSink) Save(ctx context.Context, name, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid output name %q", ErrFilesystem, name)
	}
	dest := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file in %s: %w", ErrFilesystem, s.dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: write %s: %w", ErrFilesystem, dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: close %s: %w", ErrFilesystem, dest, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: chmod %s: %w", ErrFilesystem, dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: rename into %s: %w", ErrFilesystem, dest, err)
	}
	return dest, nil
}
