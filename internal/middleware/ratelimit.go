package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/response"
)

// rateCounter is the part of the Redis client the limiter uses.
type rateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window per-IP limiter backed by Redis, so the limit
// holds across server instances.
type RateLimiter struct {
	rdb      rateCounter
	scope    string
	rate     int           // Requests per interval
	interval time.Duration // Window length
	now      func() time.Time
	log      zerolog.Logger
}

// NewRateLimiter creates a RateLimiter (e.g., 30 requests per minute).
func NewRateLimiter(rdb rateCounter, scope string, rate int, interval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		scope:    scope,
		rate:     rate,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "rate_limiter").Str("scope", scope).Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
// Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := rl.now().UnixNano() / int64(rl.interval)
		key := config.CacheKey.RateLimitKey(rl.scope, c.ClientIP(), window)

		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.rdb.Expire(ctx, key, rl.interval).Err(); err != nil {
				rl.log.Warn().Err(err).Msg("Failed to set rate limit expiry")
			}
		}

		if count > int64(rl.rate) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
