package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX renders each sheet as one page; non-empty cells of a row are
// joined with " | ".
func (s *Service) extractXLSX(ctx context.Context, path string, progress ProgressFunc) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening XLSX: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("textextract.xlsx.close_failed", "path", path, "error", err)
		}
	}()

	sheets := f.GetSheetList()
	res := Result{Method: "xlsx-cells", Pages: make([]Page, 0, len(sheets))}
	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			s.logger.Warn("textextract.xlsx.sheet_failed", "path", path, "sheet", sheet, "error", err)
			res.Warnings = append(res.Warnings, pageWarning(i+1, err))
			res.Pages = append(res.Pages, Page{Number: i + 1})
			progress(i+1, len(sheets))
			continue
		}

		var b strings.Builder
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			b.WriteString(strings.Join(cells, " | "))
			b.WriteByte('\n')
		}
		res.Pages = append(res.Pages, Page{Number: i + 1, Text: b.String()})
		progress(i+1, len(sheets))
	}
	return res, nil
}
