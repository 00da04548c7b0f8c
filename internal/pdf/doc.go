// Package pdf opens scanned PDF documents and renders their pages to raster
// images for OCR.
//
// Documents are read and validated with pdfcpu, which also provides the page
// count. Pages are rasterized one at a time with MuPDF through go-fitz, so a
// page bitmap lives only as long as the caller holds it. MuPDF needs cgo and
// is only compiled in with the "mupdf" build tag:
//
//	go build -tags mupdf,ocr ./...
//
// Without the tag, Open and PageCount still work and RenderPage fails with
// ErrRenderNotEnabled.
package pdf
