package llm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

// ChunkFunc is called once per finished chunk; done is strictly increasing.
type ChunkFunc func(done, total int, failed bool)

// Enricher runs a Completer over bounded chunks of a document.
type Enricher struct {
	completer   Completer
	chunkChars  int
	concurrency int
	logger      *slog.Logger
}

type EnricherOption func(*Enricher)

func WithChunkChars(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.chunkChars = n
		}
	}
}

func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithLogger(l *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnricher accepts a nil completer; Enrich then reports ErrEnrichmentUnavailable.
func NewEnricher(c Completer, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		completer:   c,
		chunkChars:  DefaultChunkChars,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports whether a completion service is configured.
func (e *Enricher) Enabled() bool {
	return e != nil && e.completer != nil
}

// Chunks returns the chunks Enrich would send.
func (e *Enricher) Chunks(pages []textextract.Page) []Chunk {
	return ChunkText(pages, e.chunkChars)
}

// Enrich sends every chunk and merges the proposals by code. A failed chunk
// is logged and counted; the others still run. The call fails with
// ErrEnrichmentUnavailable only when no completer is set or every chunk failed.
func (e *Enricher) Enrich(ctx context.Context, pages []textextract.Page, onChunk ChunkFunc) (MatrixProposal, ChunkStats, error) {
	if !e.Enabled() {
		return MatrixProposal{}, ChunkStats{}, common.NewAppError("ENRICHMENT_UNAVAILABLE", "no completion service configured", common.ErrEnrichmentUnavailable)
	}
	chunks := e.Chunks(pages)
	stats := ChunkStats{Total: len(chunks)}
	if len(chunks) == 0 {
		return MatrixProposal{}, stats, nil
	}

	start := time.Now()
	system := BuildSystemPrompt()
	results := make([]*MatrixProposal, len(chunks))

	var mu sync.Mutex
	finish := func(failed bool) {
		mu.Lock()
		defer mu.Unlock()
		if failed {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		if onChunk != nil {
			onChunk(stats.Succeeded+stats.Failed, stats.Total, failed)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, c := range chunks {
		g.Go(func() error {
			p, err := e.enrichChunk(gctx, system, c, len(chunks))
			if err != nil {
				e.logger.Warn("llm.enrich.chunk.failed",
					"chunk", c.Index,
					"pages", []int{c.FirstPage, c.LastPage},
					"error", err,
				)
				finish(true)
				return nil
			}
			results[c.Index] = &p
			finish(false)
			return nil
		})
	}
	_ = g.Wait()

	var merged MatrixProposal
	for _, p := range results {
		if p != nil {
			merged = MergeProposals(merged, *p)
		}
	}

	e.logger.Info("llm.enrich.done",
		"chunks", stats.Total,
		"failed", stats.Failed,
		"zones", len(merged.Zones),
		"equipment", len(merged.Equipment),
		"links", len(merged.Links),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if stats.Succeeded == 0 {
		return MatrixProposal{}, stats, common.NewAppError("ENRICHMENT_UNAVAILABLE", "all enrichment chunks failed", common.ErrEnrichmentUnavailable)
	}
	return merged, stats, nil
}

func (e *Enricher) enrichChunk(ctx context.Context, system string, c Chunk, total int) (MatrixProposal, error) {
	raw, err := e.completer.Complete(ctx, system, BuildUserPrompt(c, total))
	if err != nil {
		return MatrixProposal{}, err
	}
	return DecodeProposal(raw, e.logger)
}
