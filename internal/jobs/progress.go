package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

// Progress bands per stage, in percent.
const (
	bandTextEnd    = 30
	bandParseEnd   = 45
	bandEnrichEnd  = 65
	bandPersistEnd = 99
)

// span maps done/total onto [lo, hi].
func span(lo, hi, done, total int) int {
	if total <= 0 || done >= total {
		return hi
	}
	if done <= 0 {
		return lo
	}
	return lo + (hi-lo)*done/total
}

// reporter owns the in-flight copy of one job. Every change is saved to the
// store first and then mirrored into the cache; progress never decreases.
type reporter struct {
	mu    sync.Mutex
	job   entity.ExtractJob
	store repository.ExtractJobRepository
	cache Cache
	log   *slog.Logger
	stage string
}

func newReporter(job entity.ExtractJob, store repository.ExtractJobRepository, cache Cache, log *slog.Logger) *reporter {
	return &reporter{job: job, store: store, cache: cache, log: log}
}

func (r *reporter) snapshot() entity.ExtractJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job
}

// enter records the stage named in a later failure message.
func (r *reporter) enter(stage string) {
	r.mu.Lock()
	r.stage = stage
	r.mu.Unlock()
}

// update sets status (unless empty), progress and message. Unchanged updates are skipped.
func (r *reporter) update(ctx context.Context, status constants.JobStatus, pct int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status == "" {
		status = r.job.Status
	}
	if pct < r.job.Progress {
		pct = r.job.Progress
	}
	if pct > 100 {
		pct = 100
	}
	if status == r.job.Status && pct == r.job.Progress && message == r.job.Message {
		return nil
	}
	next := r.job
	next.Status, next.Progress, next.Message = status, pct, message
	return r.write(ctx, next)
}

func (r *reporter) complete(ctx context.Context, result entity.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	next := r.job
	next.Status = constants.JobStatusCompleted
	next.Progress = 100
	next.Message = "completed"
	next.Result = &result
	next.FinishedAt = &now
	return r.write(ctx, next)
}

func (r *reporter) fail(ctx context.Context, cause error, result *entity.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	next := r.job
	next.Status = constants.JobStatusFailed
	next.Message = failureMessage(r.stage, cause)
	next.Error = cause.Error()
	next.Result = result
	next.FinishedAt = &now
	return r.write(ctx, next)
}

const maxFailureReason = 200

// failureMessage is the short human-readable form of a failure: the stage
// and the AppError message (or the plain error text), bounded in length.
func failureMessage(stage string, cause error) string {
	reason := cause.Error()
	var ae *common.AppError
	if errors.As(cause, &ae) && ae.Message != "" {
		reason = ae.Message
	}
	if utf8.RuneCountInString(reason) > maxFailureReason {
		reason = string([]rune(reason)[:maxFailureReason]) + "..."
	}
	if stage == "" {
		return "failed: " + reason
	}
	return "failed while " + stage + ": " + reason
}

// write must be called with mu held.
func (r *reporter) write(ctx context.Context, next entity.ExtractJob) error {
	next.UpdatedAt = time.Now().UTC()
	if err := r.store.Save(ctx, next); err != nil {
		r.log.Error("job.progress.save_failed", "job_id", next.ID, "error", err)
		return err
	}
	r.job = next
	if err := r.cache.Set(ctx, next); err != nil {
		r.log.Warn("job.progress.cache_failed", "job_id", next.ID, "error", err)
	}
	return nil
}
