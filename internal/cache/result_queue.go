package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ResultQueue hands graded results to the persistence worker.
type ResultQueue struct {
	rdb *redis.Client
}

// NewResultQueue creates a new ResultQueue.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb}
}

// Publish queues r for persistence.
func (q *ResultQueue) Publish(ctx context.Context, r *model.Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}
	return nil
}
