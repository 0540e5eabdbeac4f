package textextract

import (
	"context"
	"strings"
)

// Extractor turns a stored document into per-page plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Page is the normalized text of one page (or one sheet for spreadsheets).
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Result is the outcome of an extraction. Pages that could not be decoded are
// present with empty Text and a matching entry in Warnings.
type Result struct {
	Pages    []Page   `json:"pages"`
	Format   string   `json:"format"` // "PDF" | "XLSX" | "TXT"
	Method   string   `json:"method"` // "pdf-text" | "xlsx-cells" | "plain"
	Warnings []string `json:"warnings,omitempty"`
}

// Text joins all page texts separated by a blank line.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// EmptyPages counts pages that produced no text.
func (r Result) EmptyPages() int {
	n := 0
	for _, p := range r.Pages {
		if strings.TrimSpace(p.Text) == "" {
			n++
		}
	}
	return n
}

// ProgressFunc is called after each page with the number of pages done.
type ProgressFunc func(done, total int)
