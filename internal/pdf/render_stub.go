//go:build !mupdf

package pdf

func openMuPDF(string) (pageEngine, error) {
	return nil, ErrRenderNotEnabled
}
