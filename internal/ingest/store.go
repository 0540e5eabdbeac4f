package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

// Store keeps uploaded documents on the local file system as <dir>/<sha256><ext>
// and records them in the documents table, deduplicated per scope.
type Store struct {
	dir      string
	docs     repository.DocumentRepository
	maxBytes int64
	logger   *slog.Logger
}

// NewStore creates dir if needed. maxBytes <= 0 disables the size limit.
func NewStore(dir string, docs repository.DocumentRepository, maxBytes int64, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &Store{dir: dir, docs: docs, maxBytes: maxBytes, logger: logger}, nil
}

// Save streams r to disk while hashing it. The returned bool is false when the
// scope already held identical content.
func (s *Store) Save(ctx context.Context, scope entity.Scope, filename string, r io.Reader) (entity.Document, bool, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return entity.Document{}, false, common.Validationf("unsupported document type %q", filepath.Ext(filename))
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return entity.Document{}, false, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return entity.Document{}, false, fmt.Errorf("write upload: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return entity.Document{}, false, common.Validationf("document exceeds %d bytes", s.maxBytes)
	}
	if n == 0 {
		return entity.Document{}, false, common.Validationf("document %q is empty", filename)
	}

	hash := hex.EncodeToString(h.Sum(nil))
	final := filepath.Join(s.dir, hash+"."+ext)
	if _, err := os.Stat(final); errors.Is(err, fs.ErrNotExist) {
		if err := os.Rename(tmpName, final); err != nil {
			return entity.Document{}, false, fmt.Errorf("store document: %w", err)
		}
	}

	doc, created, err := s.docs.Create(ctx, entity.Document{
		Scope:       scope,
		Filename:    filepath.Base(filename),
		Format:      format,
		ContentHash: hash,
		SizeBytes:   n,
		StoragePath: final,
	})
	if err != nil {
		return entity.Document{}, false, err
	}
	s.logger.Info("ingest.saved",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"format", format,
		"bytes", n,
		"deduplicated", !created,
	)
	return doc, created, nil
}

// IngestPath saves one file from the local file system.
func (s *Store) IngestPath(ctx context.Context, scope entity.Scope, path string) (Result, error) {
	out := Result{SourcePath: path}
	if !AllowedExt(filepath.Ext(path)) {
		return out, common.Validationf("unsupported or missing extension: %q", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return out, err
	}
	defer func() { _ = f.Close() }()

	doc, created, err := s.Save(ctx, scope, filepath.Base(path), f)
	if err != nil {
		return out, err
	}
	out.DocumentID = doc.ID
	out.Deduplicated = !created
	out.HashHex = doc.ContentHash
	out.Format = doc.Format
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and ingests
// every matrix document. Per-file failures are collected, never fatal.
func (s *Store) IngestDirectory(ctx context.Context, scope entity.Scope, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.Validationf("root path is required")
	}

	var (
		results []Result
		stats   DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := s.IngestPath(ctx, scope, path)
		if err != nil {
			results = append(results, Result{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("ingest.directory.ok", "root", root, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return results, stats, nil
}
