package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

type DocumentRepository interface {
	// Create inserts d unless the scope already holds the same content hash,
	// in which case the existing row is returned with created=false.
	Create(ctx context.Context, d entity.Document) (entity.Document, bool, error)
	Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (entity.Document, error)
	GetByHash(ctx context.Context, scope entity.Scope, hash string) (entity.Document, error)
}

type documentRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewDocumentRepository(db *sql.DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db, log: log}
}

const documentColumns = `id, company_id, site_id, filename, format, content_hash, size_bytes, storage_path, uploaded_at`

func scanDocument(s rowScanner) (entity.Document, error) {
	var d entity.Document
	err := s.Scan(&d.ID, &d.CompanyID, &d.SiteID, &d.Filename, &d.Format, &d.ContentHash, &d.SizeBytes, &d.StoragePath, &d.UploadedAt)
	return d, err
}

func (r *documentRepo) Create(ctx context.Context, d entity.Document) (entity.Document, bool, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id, site_id, content_hash) DO NOTHING
		RETURNING id`,
		d.ID, d.CompanyID, d.SiteID, d.Filename, d.Format, d.ContentHash, d.SizeBytes, d.StoragePath, d.UploadedAt,
	).Scan(&id)
	if isNoRows(err) {
		existing, gErr := r.GetByHash(ctx, d.Scope, d.ContentHash)
		if gErr != nil {
			return entity.Document{}, false, gErr
		}
		r.log.Info("document.dedup", "document_id", existing.ID, "hash", d.ContentHash)
		return existing, false, nil
	}
	if err != nil {
		r.log.Error("document.create.failed", "error", err)
		return entity.Document{}, false, fmt.Errorf("documents: create: %w", err)
	}
	r.log.Info("document.created", "document_id", id, "filename", d.Filename, "format", d.Format)
	return d, true, nil
}

func (r *documentRepo) Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Document, error) {
	p := (&predicates{}).eq("id", id).scope("", scope)
	return r.one(ctx, p, "document %s not found", id)
}

// GetByID loads a document without a tenant filter; used by background jobs
// that already carry the scope of the job that references it.
func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (entity.Document, error) {
	p := (&predicates{}).eq("id", id)
	return r.one(ctx, p, "document %s not found", id)
}

func (r *documentRepo) GetByHash(ctx context.Context, scope entity.Scope, hash string) (entity.Document, error) {
	p := (&predicates{}).scope("", scope).eq("content_hash", hash)
	return r.one(ctx, p, "document with hash %s not found", hash)
}

func (r *documentRepo) one(ctx context.Context, p *predicates, notFound string, arg any) (entity.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents`+p.where(), p.args...))
	if isNoRows(err) {
		return entity.Document{}, common.NotFoundf(notFound, arg)
	}
	if err != nil {
		return entity.Document{}, fmt.Errorf("documents: get: %w", err)
	}
	return d, nil
}
