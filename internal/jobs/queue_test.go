package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

type countingRunner struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *countingRunner) Run(ctx context.Context, id uuid.UUID) error {
	if common.JobIDFromContext(ctx) != id.String() {
		panic("job id missing from context")
	}
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	return nil
}

func TestQueue_DrainsOnShutdown(t *testing.T) {
	runner := &countingRunner{}
	q := NewQueue(runner, nil, WithWorkers(3), WithQueueSize(10), WithProcessTimeout(time.Second))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), uuid.New()))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	runner.mu.Lock()
	assert.Len(t, runner.ids, 5)
	runner.mu.Unlock()

	assert.Error(t, q.Enqueue(context.Background(), uuid.New()))
}

type blockingRunner struct{ release chan struct{} }

func (r *blockingRunner) Run(context.Context, uuid.UUID) error {
	<-r.release
	return nil
}

func TestQueue_FullQueueRejects(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	q := NewQueue(runner, nil, WithWorkers(1), WithQueueSize(1))

	// The worker may or may not have picked up the first id yet, so two
	// enqueues always fit and a third or fourth must be rejected.
	var rejected bool
	for i := 0; i < 4; i++ {
		if err := q.Enqueue(context.Background(), uuid.New()); err != nil {
			rejected = true
		}
	}
	assert.True(t, rejected)

	close(runner.release)
	q.Shutdown(context.Background())
}

func TestRedisCache_RoundTripAndMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	job := entity.ExtractJob{ID: uuid.New(), Status: constants.JobStatusEnriching, Progress: 55, Message: "enriched chunk 2 of 4"}
	require.NoError(t, cache.Set(ctx, job))
	assert.True(t, mr.Exists(redisKey(job.ID)))
	assert.Equal(t, time.Minute, mr.TTL(redisKey(job.ID)))

	got, ok, err := cache.Get(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 55, got.Progress)
	assert.Equal(t, constants.JobStatusEnriching, got.Status)
}

func TestNewCache_UnknownBackend(t *testing.T) {
	_, err := NewCache(context.Background(), common.CacheConfig{Backend: "memcached"}, nil)
	assert.Error(t, err)
}
