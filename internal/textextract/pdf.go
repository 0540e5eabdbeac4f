package textextract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

func (s *Service) extractPDF(ctx context.Context, path string, progress ProgressFunc) (Result, error) {
	f, reader, err := openPDF(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	res := Result{Method: "pdf-text", Pages: make([]Page, 0, total)}
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		text, err := readPDFPage(reader, i)
		if err != nil {
			s.logger.Warn("textextract.pdf.page_failed", "path", path, "page", i, "error", err)
			res.Warnings = append(res.Warnings, pageWarning(i, err))
			text = ""
		}
		res.Pages = append(res.Pages, Page{Number: i, Text: text})
		progress(i, total)
	}
	return res, nil
}

type closer interface{ Close() error }

func openPDF(path string) (f closer, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, reader, nil
}

// readPDFPage isolates decoder panics to the page that caused them.
func readPDFPage(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
