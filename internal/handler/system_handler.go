package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/response"
)

const healthTimeout = 2 * time.Second

// DBPinger is satisfied by *pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// RedisProbe is the part of the Redis client the health check uses.
type RedisProbe interface {
	Ping(ctx context.Context) *redis.StatusCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// LiveCounter reports how many sessions are held in memory.
type LiveCounter interface {
	LiveCount() int
}

// SystemHandler reports service health.
type SystemHandler struct {
	db        DBPinger
	rdb       RedisProbe
	sessions  LiveCounter
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(db DBPinger, rdb RedisProbe, sessions LiveCounter, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		sessions:  sessions,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	Postgres     string `json:"postgres"`
	Redis        string `json:"redis"`
	LiveSessions int    `json:"live_sessions"`
	ResultQueue  int64  `json:"result_queue"`
	Goroutines   int    `json:"goroutines"`
}

// Health godoc
// GET /health
// Returns 503 when a backing store is unreachable.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	st := healthStatus{
		Status:       "ok",
		Uptime:       formatDuration(time.Since(h.startTime)),
		Postgres:     "ok",
		Redis:        "ok",
		LiveSessions: h.sessions.LiveCount(),
		Goroutines:   runtime.NumGoroutine(),
	}

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Postgres health check failed")
		st.Postgres = "unreachable"
		st.Status = "degraded"
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		st.Redis = "unreachable"
		st.Status = "degraded"
	} else {
		st.ResultQueue, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
	}

	code := http.StatusOK
	if st.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, st)
}

// ---------- Helpers ----------

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
