package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
)

// Runner executes one job to a terminal state.
type Runner interface {
	Run(ctx context.Context, id uuid.UUID) error
}

// Queue is a fixed worker pool over a buffered channel of job ids.
type Queue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan uuid.UUID
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan uuid.UUID, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(runner Runner, logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		runner:  runner,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan uuid.UUID, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("jobs.worker.started", "worker_id", workerID)

				for id := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					ctx = common.WithJobID(ctx, id.String())
					err := q.runner.Run(ctx, id)
					cancel()

					if err != nil {
						q.logger.Error("jobs.worker.failed", "worker_id", workerID, "job_id", id, "error", err)
					} else {
						q.logger.Info("jobs.worker.done", "worker_id", workerID, "job_id", id)
					}
				}

				q.logger.Info("jobs.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands id to a worker. It fails fast when the queue is full or closed.
func (q *Queue) Enqueue(_ context.Context, id uuid.UUID) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return common.NewAppError("QUEUE_CLOSED", "job queue is shutting down", common.ErrInternal)
	}
	select {
	case q.ch <- id:
		q.logger.Info("jobs.enqueued", "job_id", id)
		return nil
	default:
		q.logger.Warn("jobs.queue.full", "job_id", id, "capacity", cap(q.ch))
		return common.NewAppError("QUEUE_FULL", "job queue is full", common.ErrInternal)
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones or ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("jobs.shutdown.interrupted")
	case <-done:
		q.logger.Info("jobs.shutdown.ok")
	}
}
