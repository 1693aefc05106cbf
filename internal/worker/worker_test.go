package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	batchErr error
	failSave map[uuid.UUID]bool
	batches  [][]*model.Result
	singles  []*model.Result
}

func (f *fakeStore) SaveBatch(_ context.Context, results []*model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, append([]*model.Result(nil), results...))
	return nil
}

func (f *fakeStore) Save(_ context.Context, r *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave[r.SessionID] {
		return errors.New("insert failed")
	}
	f.singles = append(f.singles, r)
	return nil
}

// fakeQueue serves queued payloads to BLPop and records RPush calls.
type fakeQueue struct {
	mu     sync.Mutex
	items  []string
	pushed []string
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	if len(q.items) > 0 {
		v := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		return redis.NewStringSliceResult([]string{keys[0], v}, nil)
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	case <-time.After(5 * time.Millisecond):
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
}

func (q *fakeQueue) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		q.pushed = append(q.pushed, string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(q.pushed)), nil)
}

func result(correct int) *model.Result {
	return &model.Result{
		SessionID:      uuid.New(),
		StudentID:      3,
		Score:          float64(correct),
		TotalQuestions: 4,
		Correct:        correct,
		EndReason:      model.EndReasonSubmitted,
	}
}

func encode(t *testing.T, r *model.Result) string {
	t.Helper()
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	return string(raw)
}

func TestResultWorker_BatchesQueuedResults(t *testing.T) {
	a, b := result(1), result(2)
	store := &fakeStore{}
	queue := &fakeQueue{items: []string{encode(t, a), "{not json", encode(t, b)}}
	w := NewResultWorker(store, queue, 2, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.batches) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	require.Len(t, store.batches[0], 2)
	assert.Equal(t, a.SessionID, store.batches[0][0].SessionID)
	assert.Equal(t, b.SessionID, store.batches[0][1].SessionID)
	assert.Equal(t, 2, store.batches[0][1].Correct)
}

func TestResultWorker_FlushesPendingOnShutdown(t *testing.T) {
	store := &fakeStore{}
	queue := &fakeQueue{items: []string{encode(t, result(1))}}
	w := NewResultWorker(store, queue, 10, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		queue.mu.Lock()
		defer queue.mu.Unlock()
		return len(queue.items) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 1)
}

func TestResultWorker_FallbackAndRequeue(t *testing.T) {
	good, bad := result(1), result(0)
	store := &fakeStore{
		batchErr: errors.New("copy failed"),
		failSave: map[uuid.UUID]bool{bad.SessionID: true},
	}
	queue := &fakeQueue{}
	w := NewResultWorker(store, queue, 10, zerolog.Nop())

	w.flushSafe(context.Background(), []*model.Result{good, bad})

	require.Len(t, store.singles, 1)
	assert.Equal(t, good.SessionID, store.singles[0].SessionID)
	require.Len(t, queue.pushed, 1)

	var requeued model.Result
	require.NoError(t, json.Unmarshal([]byte(queue.pushed[0]), &requeued))
	assert.Equal(t, bad.SessionID, requeued.SessionID)
}

func TestResultWorker_DecodeIgnoresShortReplies(t *testing.T) {
	w := NewResultWorker(&fakeStore{}, &fakeQueue{}, 0, zerolog.Nop())
	assert.Nil(t, w.decode([]string{config.WorkerKey.PersistResultsQueue}))
	assert.Equal(t, 100, w.batchSize)
}

type countingTicker struct{ calls atomic.Int32 }

func (c *countingTicker) TickAll(context.Context) int {
	c.calls.Add(1)
	return 1
}

func TestTickWorker_TicksUntilCancelled(t *testing.T) {
	ticker := &countingTicker{}
	w := NewTickWorker(ticker, 2*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return ticker.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick worker did not stop")
	}
}
