package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stemsi/exstem-quiz/internal/cache"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/engine"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/router"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration rejected")
	}
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExStem Quiz")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories & Caches ──────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	progressCache := cache.NewProgressCache(rdb)
	resultQueue := cache.NewResultQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	sessionService := service.NewExamSessionService(
		questionRepo,
		progressCache,
		resultQueue,
		resultRepo,
		cfg.DefaultSettings,
		cfg.SessionRetention,
		engine.SystemClock{},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessionService, log),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(pool, rdb, sessionService, log),
	}
	startLimiter := middleware.NewRateLimiter(rdb, "session_start", cfg.StartRateLimit, time.Minute, log)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	resultWorker := worker.NewResultWorker(resultRepo, rdb, cfg.ResultBatchSize, log)
	tickWorker := worker.NewTickWorker(sessionService, cfg.TickInterval, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		resultWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		tickWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, startLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. One last tick settles sessions that timed out since the previous one,
	// so their results reach the queue before the worker drains it.
	sessionService.TickAll(shutdownCtx)

	// 3. Stop background workers and wait for the result batch to flush.
	workerCancel()
	workers.Wait()

	log.Info().Int("live_sessions", sessionService.LiveCount()).Msg("Shutdown complete")
}
