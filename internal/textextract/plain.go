package textextract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// extractPlain reads a text file; form feeds separate pages.
func (s *Service) extractPlain(ctx context.Context, path string, progress ProgressFunc) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{Method: "plain"}
	if !utf8.Valid(b) {
		res.Warnings = append(res.Warnings, "file is not valid UTF-8; invalid bytes replaced")
		b = []byte(strings.ToValidUTF8(string(b), "�"))
	}
	chunks := strings.Split(string(b), "\f")
	for i, c := range chunks {
		res.Pages = append(res.Pages, Page{Number: i + 1, Text: c})
		progress(i+1, len(chunks))
	}
	return res, nil
}
