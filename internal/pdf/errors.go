package pdf

import "errors"

var (
	// ErrDocumentOpen is returned when a file is missing, unreadable or not a
	// valid PDF.
	ErrDocumentOpen = errors.New("cannot open document")

	// ErrIndexOutOfRange is returned when a page index is outside [0, PageCount).
	ErrIndexOutOfRange = errors.New("page index out of range")

	// ErrRender is returned when a page could not be rasterized.
	ErrRender = errors.New("cannot render page")

	// ErrRenderNotEnabled is returned by renders when the binary was built
	// without the "mupdf" build tag.
	ErrRenderNotEnabled = errors.New("PDF rendering not enabled; rebuild with -tags mupdf")
)
