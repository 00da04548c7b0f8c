package models

import (
	"fmt"
	"strings"
)

// PageText is the recognized text of one page, tagged with its 0-based index.
// Failed marks a placeholder written in place of a page that could not be
// recognized.
type PageText struct {
	Index  int
	Text   string
	Failed bool
}

// Transcript is the ordered page text of one source document.
type Transcript struct {
	Source string
	Pages  []PageText
}

// FailedPages returns the 1-based numbers of placeholder pages.
func (t *Transcript) FailedPages() []int {
	var failed []int
	for _, p := range t.Pages {
		if p.Failed {
			failed = append(failed, p.Index+1)
		}
	}
	return failed
}

// String renders the transcript: one "\n\n--- Page N ---\n<text>" section per
// page in slice order, joined by newlines. An empty transcript renders as "".
func (t *Transcript) String() string {
	sections := make([]string, len(t.Pages))
	for i, p := range t.Pages {
		sections[i] = fmt.Sprintf("\n\n--- Page %d ---\n%s", p.Index+1, p.Text)
	}
	return strings.Join(sections, "\n")
}
