package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/selah-im/intake_server/internal/pkg/queue"
)

type recordingProcessor struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingProcessor) Process(ctx context.Context, msg *queue.IntakeMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, msg.ApplicationID)
	return nil
}

func (r *recordingProcessor) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func setupQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return queue.NewQueue(client, "test_intake_jobs")
}

func TestPool_ProcessesQueuedJobs(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	for _, id := range []string{"app-1", "app-2", "app-3"} {
		require.NoError(t, q.Dispatch(ctx, id))
	}

	proc := &recordingProcessor{}
	pool := NewPool(q, proc, 2, zap.NewNop())
	pool.popTimeout = 100 * time.Millisecond

	runCtx, cancel := context.WithCancel(ctx)
	pool.Start(runCtx)

	assert.Eventually(t, func() bool {
		return len(proc.processed()) == 3
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	pool.Wait()

	assert.ElementsMatch(t, []string{"app-1", "app-2", "app-3"}, proc.processed())

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestPool_StopsOnCancel(t *testing.T) {
	q := setupQueue(t)
	pool := NewPool(q, &recordingProcessor{}, 3, zap.NewNop())
	pool.popTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

type failingSource struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSource) Pop(ctx context.Context, timeout time.Duration) (*queue.IntakeMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, errors.New("dial tcp: connection refused")
}

func (f *failingSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPool_BacksOffWhenPopFails(t *testing.T) {
	source := &failingSource{}
	pool := NewPool(source, &recordingProcessor{}, 1, zap.NewNop())
	pool.backoff = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	time.Sleep(250 * time.Millisecond)
	cancel()
	pool.Wait()

	assert.GreaterOrEqual(t, source.count(), 2)
	assert.LessOrEqual(t, source.count(), 4)
}

func TestPool_BackoffStopsOnCancel(t *testing.T) {
	source := &failingSource{}
	pool := NewPool(source, &recordingProcessor{}, 1, zap.NewNop())
	pool.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	assert.Eventually(t, func() bool { return source.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop while backing off")
	}
}

func TestNewPool_DefaultsSize(t *testing.T) {
	pool := NewPool(nil, nil, 0, zap.NewNop())
	assert.Equal(t, 1, pool.size)
	assert.Equal(t, errorBackoff, pool.backoff)
}
