package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

type ExtractJobRepository interface {
	Create(ctx context.Context, job entity.ExtractJob) (entity.ExtractJob, error)
	Get(ctx context.Context, id uuid.UUID) (entity.ExtractJob, error)
	// Save writes the mutable fields of job (status, progress, message, error, result, timestamps).
	Save(ctx context.Context, job entity.ExtractJob) error
	ListNonTerminal(ctx context.Context) ([]entity.ExtractJob, error)
	ListByDocument(ctx context.Context, scope entity.Scope, documentID uuid.UUID) ([]entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewExtractJobRepository(db *sql.DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log}
}

const jobColumns = `id, document_id, company_id, site_id, status, progress, message, error, result, created_at, started_at, finished_at, updated_at`

func scanJob(s rowScanner) (entity.ExtractJob, error) {
	var (
		j                 entity.ExtractJob
		status            string
		result            sql.NullString
		started, finished sql.NullTime
	)
	if err := s.Scan(&j.ID, &j.DocumentID, &j.CompanyID, &j.SiteID, &status, &j.Progress, &j.Message, &j.Error,
		&result, &j.CreatedAt, &started, &finished, &j.UpdatedAt); err != nil {
		return j, err
	}
	j.Status = constants.JobStatus(status)
	if started.Valid {
		j.StartedAt = &started.Time
	}
	if finished.Valid {
		j.FinishedAt = &finished.Time
	}
	if result.Valid && result.String != "" {
		var res entity.JobResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return j, fmt.Errorf("decode job result: %w", err)
		}
		j.Result = &res
	}
	return j, nil
}

func encodeResult(res *entity.JobResult) (any, error) {
	if res == nil {
		return nil, nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *extractJobRepo) Create(ctx context.Context, job entity.ExtractJob) (entity.ExtractJob, error) {
	now := time.Now().UTC()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = constants.JobStatusPending
	}
	job.CreatedAt, job.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extract_jobs (id, document_id, company_id, site_id, status, progress, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		job.ID, job.DocumentID, job.CompanyID, job.SiteID, string(job.Status), job.Progress, job.Message, now,
	)
	if err != nil {
		r.log.Error("extract_job.create.failed", "document_id", job.DocumentID, "error", err)
		return entity.ExtractJob{}, fmt.Errorf("extract_jobs: create: %w", err)
	}
	r.log.Info("extract_job.created", "job_id", job.ID, "document_id", job.DocumentID)
	return job, nil
}

func (r *extractJobRepo) Get(ctx context.Context, id uuid.UUID) (entity.ExtractJob, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM extract_jobs WHERE id = $1`, id))
	if isNoRows(err) {
		return entity.ExtractJob{}, common.NotFoundf("job %s not found", id)
	}
	if err != nil {
		return entity.ExtractJob{}, fmt.Errorf("extract_jobs: get: %w", err)
	}
	return j, nil
}

func (r *extractJobRepo) Save(ctx context.Context, job entity.ExtractJob) error {
	result, err := encodeResult(job.Result)
	if err != nil {
		return fmt.Errorf("extract_jobs: encode result: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE extract_jobs
		SET status = $1, progress = $2, message = $3, error = $4, result = $5,
			started_at = $6, finished_at = $7, updated_at = $8
		WHERE id = $9`,
		string(job.Status), job.Progress, job.Message, job.Error, result,
		nullableTime(job.StartedAt), nullableTime(job.FinishedAt), time.Now().UTC(), job.ID,
	)
	if err != nil {
		r.log.Error("extract_job.save.failed", "job_id", job.ID, "error", err)
		return fmt.Errorf("extract_jobs: save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("job %s not found", job.ID)
	}
	return nil
}

func (r *extractJobRepo) list(ctx context.Context, query string, args ...any) ([]entity.ExtractJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("extract_jobs: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.ExtractJob, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("extract_jobs: scan: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *extractJobRepo) ListNonTerminal(ctx context.Context) ([]entity.ExtractJob, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM extract_jobs WHERE status NOT IN ($1, $2) ORDER BY created_at`,
		string(constants.JobStatusCompleted), string(constants.JobStatusFailed))
}

func (r *extractJobRepo) ListByDocument(ctx context.Context, scope entity.Scope, documentID uuid.UUID) ([]entity.ExtractJob, error) {
	p := (&predicates{}).eq("document_id", documentID).scope("", scope)
	return r.list(ctx, `SELECT `+jobColumns+` FROM extract_jobs`+p.where()+` ORDER BY created_at DESC`, p.args...)
}
