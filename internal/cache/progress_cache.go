// Package cache keeps live session progress and the result queue in Redis.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-quiz/internal/config"
)

// ProgressCache stores per-session progress in Redis.
type ProgressCache struct {
	rdb *redis.Client
}

// NewProgressCache creates a new ProgressCache.
func NewProgressCache(rdb *redis.Client) *ProgressCache {
	return &ProgressCache{rdb: rdb}
}

// Claim records sessionID as the student's live session. It returns false
// when the student already has one.
func (c *ProgressCache) Claim(ctx context.Context, studentID int, sessionID uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, config.CacheKey.StudentActiveSessionKey(studentID), sessionID.String(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim active session: %w", err)
	}
	return ok, nil
}

// MarkStarted records the session start time.
func (c *ProgressCache) MarkStarted(ctx context.Context, sessionID uuid.UUID, at time.Time, ttl time.Duration) error {
	return c.rdb.Set(ctx, config.CacheKey.SessionStartKey(sessionID), at.UTC().Format(time.RFC3339Nano), ttl).Err()
}

// SaveAnswer autosaves one answer in original option numbering.
func (c *ProgressCache) SaveAnswer(ctx context.Context, sessionID uuid.UUID, position, option int) error {
	return c.rdb.HSet(ctx, config.CacheKey.SessionAnswersKey(sessionID), strconv.Itoa(position), option).Err()
}

// ClearAnswer removes one autosaved answer.
func (c *ProgressCache) ClearAnswer(ctx context.Context, sessionID uuid.UUID, position int) error {
	return c.rdb.HDel(ctx, config.CacheKey.SessionAnswersKey(sessionID), strconv.Itoa(position)).Err()
}

// Release drops everything stored for a finished session. The student's
// claim is only removed while it still points at sessionID.
func (c *ProgressCache) Release(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	claimKey := config.CacheKey.StudentActiveSessionKey(studentID)

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx,
			config.CacheKey.SessionAnswersKey(sessionID),
			config.CacheKey.SessionStartKey(sessionID),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("release session progress: %w", err)
	}

	owner, err := c.rdb.Get(ctx, claimKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read active session: %w", err)
	}
	if owner == sessionID.String() {
		return c.rdb.Del(ctx, claimKey).Err()
	}
	return nil
}
