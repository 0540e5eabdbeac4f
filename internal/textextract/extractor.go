package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
)

// Service dispatches extraction by file extension.
type Service struct {
	logger   *slog.Logger
	progress ProgressFunc
}

type Option func(*Service)

// WithProgress registers a per-page progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

func NewService(logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract reads path and returns normalized per-page text.
// A single unreadable page never fails the call.
func (s *Service) Extract(ctx context.Context, path string) (Result, error) {
	return s.ExtractWithProgress(ctx, path, s.progress)
}

// ExtractWithProgress is Extract with a call-scoped progress callback.
func (s *Service) ExtractWithProgress(ctx context.Context, path string, progress ProgressFunc) (Result, error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	if progress == nil {
		progress = func(int, int) {}
	}

	var (
		res Result
		err error
	)
	switch format {
	case constants.PDF:
		res, err = s.extractPDF(ctx, path, progress)
	case constants.XLSX:
		res, err = s.extractXLSX(ctx, path, progress)
	case constants.TXT:
		res, err = s.extractPlain(ctx, path, progress)
	default:
		return Result{}, common.Validationf("unsupported document type %q", filepath.Ext(path))
	}
	if err != nil {
		s.logger.Error("textextract.failed", "path", path, "format", format, "error", err)
		return Result{}, err
	}
	res.Format = format
	for i := range res.Pages {
		res.Pages[i].Text = Normalize(res.Pages[i].Text)
	}

	s.logger.Info("textextract.ok",
		"path", path,
		"format", format,
		"method", res.Method,
		"pages", len(res.Pages),
		"empty_pages", res.EmptyPages(),
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// CheckExtractable fails with ErrUnextractableDocument when the document holds
// fewer than minChars characters of text in total.
func CheckExtractable(res Result, minChars int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(res.Text()))
	if n < minChars {
		return common.Unextractablef("document yielded %d characters of text across %d pages (minimum %d)", n, len(res.Pages), minChars)
	}
	return nil
}

func pageWarning(page int, err error) string {
	return fmt.Sprintf("page %d: %v", page, err)
}
