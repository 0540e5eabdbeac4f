package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/llm"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
	"github.com/joseph-ayodele/interlock-tracker/internal/resolve"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

// Documents looks up stored documents.
type Documents interface {
	Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (entity.Document, error)
}

// TextExtractor is satisfied by *textextract.Service.
type TextExtractor interface {
	ExtractWithProgress(ctx context.Context, path string, progress textextract.ProgressFunc) (textextract.Result, error)
}

// Enricher is satisfied by *llm.Enricher.
type Enricher interface {
	Enabled() bool
	Enrich(ctx context.Context, pages []textextract.Page, onChunk llm.ChunkFunc) (llm.MatrixProposal, llm.ChunkStats, error)
}

// Persister is satisfied by *resolve.Resolver.
type Persister interface {
	PersistWithProgress(ctx context.Context, scope entity.Scope, documentID uuid.UUID, c matrix.Candidates, progress resolve.ProgressFunc) (resolve.Result, error)
}

// Enqueuer is satisfied by *Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, id uuid.UUID) error
}

// Deps are the collaborators of a Manager. Enricher, Cache and Metrics are optional.
type Deps struct {
	Store     repository.ExtractJobRepository
	Documents Documents
	Extractor TextExtractor
	Enricher  Enricher
	Persister Persister
	Cache     Cache
	Metrics   *Metrics
	Logger    *slog.Logger
	// MinTextChars is the extractable-text floor; 0 means constants.MinExtractableChars.
	MinTextChars int
}

// Manager runs extraction jobs: text, heuristics, optional enrichment,
// reconciliation and persistence, reporting progress as it goes.
type Manager struct {
	store     repository.ExtractJobRepository
	docs      Documents
	extractor TextExtractor
	enricher  Enricher
	persister Persister
	cache     Cache
	metrics   *Metrics
	log       *slog.Logger
	minChars  int

	queue Enqueuer

	mu      sync.Mutex
	running map[uuid.UUID]struct{}
}

func NewManager(d Deps) *Manager {
	m := &Manager{
		store:     d.Store,
		docs:      d.Documents,
		extractor: d.Extractor,
		enricher:  d.Enricher,
		persister: d.Persister,
		cache:     d.Cache,
		metrics:   d.Metrics,
		log:       d.Logger,
		minChars:  d.MinTextChars,
		running:   make(map[uuid.UUID]struct{}),
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.cache == nil {
		m.cache = NewMemoryCache()
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	if m.minChars <= 0 {
		m.minChars = constants.MinExtractableChars
	}
	return m
}

// AttachQueue sets where Submit sends new jobs. Without a queue, submitted
// jobs stay pending until Run is called.
func (m *Manager) AttachQueue(q Enqueuer) { m.queue = q }

// Submit records a pending job for a document of scope and enqueues it.
func (m *Manager) Submit(ctx context.Context, documentID uuid.UUID, scope entity.Scope) (entity.ExtractJob, error) {
	if _, err := m.docs.Get(ctx, scope, documentID); err != nil {
		return entity.ExtractJob{}, err
	}
	job, err := m.store.Create(ctx, entity.ExtractJob{
		DocumentID: documentID,
		Scope:      scope,
		Status:     constants.JobStatusPending,
		Message:    "queued",
	})
	if err != nil {
		return entity.ExtractJob{}, err
	}
	m.setCache(ctx, job)

	if m.queue == nil {
		return job, nil
	}
	if err := m.queue.Enqueue(ctx, job.ID); err != nil {
		rep := newReporter(job, m.store, m.cache, m.log)
		rep.enter("queueing job")
		if ferr := rep.fail(context.WithoutCancel(ctx), err, nil); ferr != nil {
			m.log.Error("job.submit.fail_save", "job_id", job.ID, "error", ferr)
		}
		m.metrics.Finished.WithLabelValues(string(constants.JobStatusFailed)).Inc()
		return rep.snapshot(), err
	}
	m.log.Info("job.submitted", "job_id", job.ID, "document_id", documentID)
	return job, nil
}

// Get returns the cached job when present, else the stored one.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (entity.ExtractJob, error) {
	if j, ok, err := m.cache.Get(ctx, id); err != nil {
		m.log.Warn("job.cache.get_failed", "job_id", id, "error", err)
	} else if ok {
		return j, nil
	}
	j, err := m.store.Get(ctx, id)
	if err != nil {
		return entity.ExtractJob{}, err
	}
	m.setCache(ctx, j)
	return j, nil
}

func (m *Manager) setCache(ctx context.Context, j entity.ExtractJob) {
	if err := m.cache.Set(ctx, j); err != nil {
		m.log.Warn("job.cache.set_failed", "job_id", j.ID, "error", err)
	}
}

func (m *Manager) claim(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.running[id]; busy {
		return false
	}
	m.running[id] = struct{}{}
	return true
}

func (m *Manager) release(id uuid.UUID) {
	m.mu.Lock()
	delete(m.running, id)
	m.mu.Unlock()
}

// Run drives a job to completed or failed. Terminal jobs are refused.
func (m *Manager) Run(ctx context.Context, id uuid.UUID) error {
	if !m.claim(id) {
		return common.NewAppError("JOB_IN_PROGRESS", fmt.Sprintf("job %s is already running", id), common.ErrJobInProgress)
	}
	defer m.release(id)
	ctx = common.WithJobID(ctx, id.String())

	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		m.log.Info("job.run.refused", "job_id", id, "status", job.Status)
		return common.NewAppError("JOB_ALREADY_TERMINAL", fmt.Sprintf("job %s is already %s", id, job.Status), common.ErrJobAlreadyTerminal)
	}

	start := time.Now()
	started := start.UTC()
	job.StartedAt = &started
	rep := newReporter(job, m.store, m.cache, m.log)
	m.log.Info("job.run.start", "job_id", id, "document_id", job.DocumentID)

	result, err := m.process(ctx, rep, job)
	m.metrics.Duration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.metrics.Finished.WithLabelValues(string(constants.JobStatusFailed)).Inc()
		m.log.Error("job.run.failed", "job_id", id, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		var partial *entity.JobResult
		if result.Pages > 0 {
			partial = &result
		}
		if ferr := rep.fail(context.WithoutCancel(ctx), err, partial); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}

	if err := rep.complete(context.WithoutCancel(ctx), result); err != nil {
		return err
	}
	m.metrics.Finished.WithLabelValues(string(constants.JobStatusCompleted)).Inc()
	m.log.Info("job.run.ok",
		"job_id", id,
		"zones_created", result.ZonesCreated,
		"equipment_created", result.EquipmentCreated,
		"links_created", result.LinksCreated,
		"links_skipped", result.LinksSkipped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *Manager) process(ctx context.Context, rep *reporter, job entity.ExtractJob) (entity.JobResult, error) {
	var result entity.JobResult

	rep.enter("loading document")
	doc, err := m.docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		return result, err
	}

	// text: 0-30
	rep.enter("reading document text")
	if err := rep.update(ctx, constants.JobStatusAnalyzing, 0, "reading document text"); err != nil {
		return result, err
	}
	var progressErr error
	text, err := m.extractor.ExtractWithProgress(ctx, doc.StoragePath, func(done, total int) {
		if e := rep.update(ctx, "", span(0, bandTextEnd, done, total), fmt.Sprintf("read page %d of %d", done, total)); e != nil && progressErr == nil {
			progressErr = e
		}
	})
	if err != nil {
		return result, err
	}
	if progressErr != nil {
		return result, progressErr
	}
	result.Pages = len(text.Pages)
	result.Warnings = append(result.Warnings, text.Warnings...)
	if err := textextract.CheckExtractable(text, m.minChars); err != nil {
		return result, err
	}

	// heuristics: 30-45
	rep.enter("matching zones and equipment")
	if err := rep.update(ctx, "", bandTextEnd, "matching zones and equipment"); err != nil {
		return result, err
	}
	heuristic := matrix.ParseWithLogger(m.log, text.Pages)
	if err := rep.update(ctx, "", bandParseEnd, fmt.Sprintf("heuristics found %d zones, %d equipment, %d links",
		len(heuristic.Zones), len(heuristic.Equipment), len(heuristic.Links))); err != nil {
		return result, err
	}

	// enrichment: 45-65
	var enriched matrix.Candidates
	if m.enricher != nil && m.enricher.Enabled() {
		rep.enter("enriching with language model")
		if err := rep.update(ctx, constants.JobStatusEnriching, bandParseEnd, "enriching with language model"); err != nil {
			return result, err
		}
		proposal, stats, err := m.enricher.Enrich(ctx, text.Pages, func(done, total int, failed bool) {
			outcome := "ok"
			if failed {
				outcome = "failed"
			}
			m.metrics.Chunks.WithLabelValues(outcome).Inc()
			if e := rep.update(ctx, "", span(bandParseEnd, bandEnrichEnd, done, total), fmt.Sprintf("enriched chunk %d of %d", done, total)); e != nil && progressErr == nil {
				progressErr = e
			}
		})
		result.ChunksTotal, result.ChunksFailed = stats.Total, stats.Failed
		switch {
		case errors.Is(err, common.ErrEnrichmentUnavailable):
			m.log.Warn("job.enrich.unavailable", "job_id", job.ID, "error", err)
			result.Warnings = append(result.Warnings, "enrichment unavailable; heuristics only")
		case err != nil:
			return result, err
		default:
			enriched = llm.ToCandidates(proposal)
			result.Enriched = true
		}
		if progressErr != nil {
			return result, progressErr
		}
	}

	// persistence: 65-100
	final := resolve.Reconcile(heuristic, enriched)
	rep.enter("persisting zones, equipment and links")
	if err := rep.update(ctx, "", bandEnrichEnd, "persisting zones, equipment and links"); err != nil {
		return result, err
	}
	res, err := m.persister.PersistWithProgress(ctx, job.Scope, doc.ID, final, func(done, total int) {
		if e := rep.update(ctx, "", span(bandEnrichEnd, bandPersistEnd, done, total), "persisting zones, equipment and links"); e != nil && progressErr == nil {
			progressErr = e
		}
	})
	if err != nil {
		return result, err
	}
	if progressErr != nil {
		return result, progressErr
	}
	result.ZonesCreated = res.ZonesCreated
	result.ZonesUpdated = res.ZonesUpdated
	result.EquipmentCreated = res.EquipmentCreated
	result.EquipmentUpdated = res.EquipmentUpdated
	result.LinksCreated = res.LinksCreated
	result.LinksSkipped = res.LinksSkipped
	result.Failed = res.Failed
	return result, nil
}

// RecoverInterrupted fails every job a previous process left non-terminal.
// It must run before workers start.
func (m *Manager) RecoverInterrupted(ctx context.Context) (int, error) {
	stale, err := m.store.ListNonTerminal(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, job := range stale {
		rep := newReporter(job, m.store, m.cache, m.log)
		if err := rep.fail(ctx, errors.New("interrupted by restart"), job.Result); err != nil {
			m.log.Error("job.recover.failed", "job_id", job.ID, "error", err)
			continue
		}
		m.metrics.Finished.WithLabelValues(string(constants.JobStatusFailed)).Inc()
		n++
	}
	if n > 0 {
		m.log.Warn("job.recover.ok", "jobs_failed", n)
	}
	return n, nil
}
