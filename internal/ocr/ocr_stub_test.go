//go:build !ocr

package ocr

import (
	"context"
	"errors"
	"testing"
)

func TestNewStub(t *testing.T) {
	tess, err := New(WithLanguages("eng"))
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("expected ErrOCRNotEnabled, got %v", err)
	}
	if tess != nil {
		t.Error("expected nil recognizer")
	}
	if err := tess.Close(); err != nil {
		t.Errorf("Close on nil stub should not fail: %v", err)
	}
	if _, err := tess.Recognize(context.Background(), nil); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("expected ErrOCRNotEnabled, got %v", err)
	}
}
