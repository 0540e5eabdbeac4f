package jobs

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/llm"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
	"github.com/joseph-ayodele/interlock-tracker/internal/resolve"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

var scope = entity.Scope{CompanyID: "acme", SiteID: "north"}

const matrixText = "Rez de chaussée accès 3: 24001-24005\nPCF B24.006\n"

// recordingCache remembers every job state written through it.
type recordingCache struct {
	Cache
	mu      sync.Mutex
	history []entity.ExtractJob
}

func (c *recordingCache) Set(ctx context.Context, j entity.ExtractJob) error {
	c.mu.Lock()
	c.history = append(c.history, j)
	c.mu.Unlock()
	return c.Cache.Set(ctx, j)
}

type fakeEnricher struct {
	proposal llm.MatrixProposal
	err      error
}

func (f *fakeEnricher) Enabled() bool { return true }

func (f *fakeEnricher) Enrich(_ context.Context, _ []textextract.Page, onChunk llm.ChunkFunc) (llm.MatrixProposal, llm.ChunkStats, error) {
	onChunk(1, 2, f.err != nil)
	onChunk(2, 2, f.err != nil)
	if f.err != nil {
		return llm.MatrixProposal{}, llm.ChunkStats{Total: 2, Failed: 2}, f.err
	}
	return f.proposal, llm.ChunkStats{Total: 2, Succeeded: 2}, nil
}

type fixture struct {
	db      *sql.DB
	manager *Manager
	cache   *recordingCache
	docs    repository.DocumentRepository
	store   repository.ExtractJobRepository
}

func newFixture(t *testing.T, enricher Enricher) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Bootstrap(ctx, db, nil))

	f := &fixture{
		db:    db,
		cache: &recordingCache{Cache: NewMemoryCache()},
		docs:  repository.NewDocumentRepository(db, nil),
		store: repository.NewExtractJobRepository(db, nil),
	}
	f.manager = NewManager(Deps{
		Store:     f.store,
		Documents: f.docs,
		Extractor: textextract.NewService(nil),
		Enricher:  enricher,
		Persister: resolve.NewResolver(db,
			repository.NewZoneRepository(db, nil),
			repository.NewEquipmentRepository(db, nil),
			repository.NewLinkRepository(db, nil), nil),
		Cache: f.cache,
	})
	return f
}

func (f *fixture) document(t *testing.T, content string) entity.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matrix.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	d, _, err := f.docs.Create(context.Background(), entity.Document{
		Scope: scope, Filename: "matrix.txt", Format: constants.TXT,
		ContentHash: uuid.NewString(), StoragePath: path,
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) progressHistory() []int {
	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()
	out := make([]int, 0, len(f.cache.history))
	for _, j := range f.cache.history {
		out = append(out, j.Progress)
	}
	return out
}

func TestRun_CompletesWithMonotonicProgress(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.document(t, matrixText)

	job, err := f.manager.Submit(ctx, doc.ID, scope)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, job.Status)

	require.NoError(t, f.manager.Run(ctx, job.ID))

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, 1, got.Result.ZonesCreated)
	assert.Equal(t, 1, got.Result.EquipmentCreated)
	assert.Equal(t, 1, got.Result.LinksCreated)
	assert.False(t, got.Result.Enriched)
	assert.NotNil(t, got.FinishedAt)

	history := f.progressHistory()
	require.NotEmpty(t, history)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1], "progress went backwards at step %d: %v", i, history)
	}

	cached, err := f.manager.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, cached.Status)
	assert.Equal(t, got.Progress, cached.Progress)
}

func TestRun_RerunOfTerminalJobIsRefused(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	job, err := f.manager.Submit(ctx, f.document(t, matrixText).ID, scope)
	require.NoError(t, err)
	require.NoError(t, f.manager.Run(ctx, job.ID))

	err = f.manager.Run(ctx, job.ID)
	assert.ErrorIs(t, err, common.ErrJobAlreadyTerminal)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
}

func TestRun_EmptyDocumentFailsDuringTextStage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	job, err := f.manager.Submit(ctx, f.document(t, "   \n\f  \n").ID, scope)
	require.NoError(t, err)

	err = f.manager.Run(ctx, job.ID)
	require.ErrorIs(t, err, common.ErrUnextractableDocument)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "UNEXTRACTABLE_DOCUMENT")
	assert.True(t, strings.HasPrefix(got.Message, "failed while reading document text: document yielded 0 characters"), got.Message)
	assert.LessOrEqual(t, got.Progress, 30)
	for _, p := range f.progressHistory() {
		assert.LessOrEqual(t, p, 30)
	}
}

func TestRun_DanglingEnrichedLinkIsSkipped(t *testing.T) {
	enricher := &fakeEnricher{proposal: llm.MatrixProposal{
		Links: []llm.ProposedLink{{ZoneCode: "Z42", EquipmentCode: "B24.006", AlarmLevel: 2}},
	}}
	f := newFixture(t, enricher)
	ctx := context.Background()
	job, err := f.manager.Submit(ctx, f.document(t, matrixText).ID, scope)
	require.NoError(t, err)

	require.NoError(t, f.manager.Run(ctx, job.ID))

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 1, got.Result.LinksCreated)
	assert.Equal(t, 1, got.Result.LinksSkipped)
	assert.True(t, got.Result.Enriched)
	assert.Equal(t, 2, got.Result.ChunksTotal)
}

func TestRun_EnrichmentUnavailableFallsBackToHeuristics(t *testing.T) {
	unavailable := common.NewAppError("ENRICHMENT_UNAVAILABLE", "all enrichment chunks failed", common.ErrEnrichmentUnavailable)
	f := newFixture(t, &fakeEnricher{err: unavailable})
	ctx := context.Background()
	job, err := f.manager.Submit(ctx, f.document(t, matrixText).ID, scope)
	require.NoError(t, err)

	require.NoError(t, f.manager.Run(ctx, job.ID))

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
	assert.False(t, got.Result.Enriched)
	assert.Equal(t, 1, got.Result.ZonesCreated)
	assert.Contains(t, got.Result.Warnings, "enrichment unavailable; heuristics only")
}

func TestRun_SecondRunOfSameDocumentCreatesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.document(t, matrixText)

	for i := 0; i < 2; i++ {
		job, err := f.manager.Submit(ctx, doc.ID, scope)
		require.NoError(t, err)
		require.NoError(t, f.manager.Run(ctx, job.ID))
		got, err := f.store.Get(ctx, job.ID)
		require.NoError(t, err)
		if i == 1 {
			assert.Zero(t, got.Result.ZonesCreated)
			assert.Zero(t, got.Result.EquipmentCreated)
			assert.Zero(t, got.Result.LinksCreated)
			assert.Equal(t, 1, got.Result.ZonesUpdated)
		}
	}
}

func TestSubmit_UnknownDocumentInScope(t *testing.T) {
	f := newFixture(t, nil)
	doc := f.document(t, matrixText)
	_, err := f.manager.Submit(context.Background(), doc.ID, entity.Scope{CompanyID: "other"})
	assert.True(t, common.IsNotFound(err))
}

type rejectingQueue struct{}

func (rejectingQueue) Enqueue(context.Context, uuid.UUID) error {
	return common.NewAppError("QUEUE_FULL", "job queue is full", common.ErrInternal)
}

func TestSubmit_QueueRejectionFailsJob(t *testing.T) {
	f := newFixture(t, nil)
	f.manager.AttachQueue(rejectingQueue{})
	job, err := f.manager.Submit(context.Background(), f.document(t, matrixText).ID, scope)
	require.Error(t, err)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Equal(t, "failed while queueing job: job queue is full", job.Message)
}

func TestRecoverInterrupted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.document(t, matrixText)

	pending, err := f.manager.Submit(ctx, doc.ID, scope)
	require.NoError(t, err)
	done, err := f.manager.Submit(ctx, doc.ID, scope)
	require.NoError(t, err)
	require.NoError(t, f.manager.Run(ctx, done.ID))

	n, err := f.manager.RecoverInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.manager.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "interrupted by restart", got.Error)
	assert.Equal(t, "failed: interrupted by restart", got.Message)

	assert.ErrorIs(t, f.manager.Run(ctx, pending.ID), common.ErrJobAlreadyTerminal)
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name  string
		stage string
		cause error
		want  string
	}{
		{"app error uses its message", "persisting zones, equipment and links",
			common.NewAppError("DB_UNAVAILABLE", "datastore unreachable", common.ErrDatabase),
			"failed while persisting zones, equipment and links: datastore unreachable"},
		{"plain error", "loading document", errors.New("disk gone"), "failed while loading document: disk gone"},
		{"no stage", "", errors.New("boom"), "failed: boom"},
		{"long reason is cut", "", errors.New(strings.Repeat("x", maxFailureReason+10)),
			"failed: " + strings.Repeat("x", maxFailureReason) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureMessage(tt.stage, tt.cause))
		})
	}
}

func TestSpan(t *testing.T) {
	assert.Equal(t, 45, span(45, 65, 0, 4))
	assert.Equal(t, 50, span(45, 65, 1, 4))
	assert.Equal(t, 65, span(45, 65, 4, 4))
	assert.Equal(t, 65, span(45, 65, 0, 0))
}

func TestRun_ConcurrentRunIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	id := uuid.New()
	require.True(t, f.manager.claim(id))
	defer f.manager.release(id)

	err := f.manager.Run(context.Background(), id)
	assert.True(t, errors.Is(err, common.ErrJobInProgress))
}
