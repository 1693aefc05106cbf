package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionAnswersKey returns the hash key holding a session's autosaved
// answers (position → original option index).
func (r *CacheKeyStruct) SessionAnswersKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// SessionStartKey returns the key recording when a session started.
func (r *CacheKeyStruct) SessionStartKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:start", sessionID)
}

// StudentActiveSessionKey returns the key pointing at a student's live session.
func (r *CacheKeyStruct) StudentActiveSessionKey(studentID int) string {
	return fmt.Sprintf("student:%d:active_session", studentID)
}

// RateLimitKey returns the counter key for one client in one window.
func (r *CacheKeyStruct) RateLimitKey(scope, client string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, client, window)
}

var CacheKey = NewCacheKeyStruct()
