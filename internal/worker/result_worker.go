package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
)

const (
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore persists graded results.
type ResultStore interface {
	SaveBatch(ctx context.Context, results []*model.Result) error
	Save(ctx context.Context, r *model.Result) error
}

// resultQueue is the part of the Redis client the worker uses.
type resultQueue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ResultWorker drains the result queue into Postgres in batches.
type ResultWorker struct {
	store     ResultStore
	queue     resultQueue
	batchSize int
	log       zerolog.Logger
}

func NewResultWorker(store ResultStore, rdb resultQueue, batchSize int, log zerolog.Logger) *ResultWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ResultWorker{
		store:     store,
		queue:     rdb,
		batchSize: batchSize,
		log:       log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("ResultWorker started")

	batch := make([]*model.Result, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.queue.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if r := w.decode(item); r != nil {
				batch = append(batch, r)
			}
		}
	}
}

// decode parses a BLPop reply ([key, value]). Malformed payloads are dropped.
func (w *ResultWorker) decode(item []string) *model.Result {
	if len(item) < 2 {
		return nil
	}
	var r model.Result
	if err := json.Unmarshal([]byte(item[1]), &r); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return nil
	}
	return &r
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.Result) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.SaveBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk result insert failed, using fallback")

		for _, r := range batch {
			if err := w.store.Save(ctx, r); err != nil {
				w.log.Error().Err(err).Str("session_id", r.SessionID.String()).Msg("Save failed, requeueing")
				w.requeue(ctx, r)
			}
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Results persisted")
}

func (w *ResultWorker) requeue(ctx context.Context, r *model.Result) {
	raw, err := json.Marshal(r)
	if err != nil {
		w.log.Error().Err(err).Msg("Encode result for requeue")
		return
	}
	if err := w.queue.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("session_id", r.SessionID.String()).Msg("Requeue failed, result dropped")
	}
}
