package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the input folder is missing or is not
	// a directory.
	ErrInvalidInput = errors.New("invalid input folder")

	// ErrFilesystem is returned when an output directory or file cannot be
	// created or written.
	ErrFilesystem = errors.New("filesystem error")

	// ErrEmptyText is returned when a summarize request carries no text.
	ErrEmptyText = errors.New("empty text")

	// ErrRemoteCall is returned when a hosted model call fails.
	ErrRemoteCall = errors.New("remote call failed")
)

// PageError reports the page that made a document fail.
type PageError struct {
	Index int // 0-based
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Index+1, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
