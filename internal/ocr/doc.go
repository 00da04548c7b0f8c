// Package ocr recognizes text in rendered page images.
//
// The Tesseract engine is wrapped via gosseract and is only compiled in with
// the "ocr" build tag, since it needs the Tesseract and Leptonica libraries:
//
//	go build -tags ocr ./...
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev libleptonica-dev
//
// On macOS:
//
//	brew install tesseract
//
// Without the tag, New returns ErrOCRNotEnabled.
package ocr
