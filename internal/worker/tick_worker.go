package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionTicker advances every live session's clock.
type SessionTicker interface {
	TickAll(ctx context.Context) int
}

// TickWorker is the host scheduler that drives session timeouts.
type TickWorker struct {
	sessions SessionTicker
	interval time.Duration
	log      zerolog.Logger
}

func NewTickWorker(sessions SessionTicker, interval time.Duration, log zerolog.Logger) *TickWorker {
	return &TickWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "tick_worker").Logger(),
	}
}

func (w *TickWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("TickWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("TickWorker stopped")
			return
		case <-ticker.C:
			if n := w.sessions.TickAll(ctx); n > 0 {
				w.log.Info().Int("finished", n).Msg("Sessions finished on tick")
			}
		}
	}
}
