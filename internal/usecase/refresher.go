package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/nftearth/fortune/internal/platform/logging"
)

// Refresher drives the explicit refresh policy: a fixed interval sync
// of the live round plus on-demand revalidation. Jobs run on a bounded
// worker pool so a slow indexer cannot pile up goroutines.
type Refresher struct {
	rounds   *RoundService
	logger   *logging.Logger
	interval time.Duration
	pool     *ants.Pool
}

func NewRefresher(rounds *RoundService, logger *logging.Logger, interval time.Duration, workers int) (*Refresher, error) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if workers < 1 {
		workers = 2
	}
	if logger == nil {
		logger = logging.Nop()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create refresh pool: %w", err)
	}
	return &Refresher{
		rounds:   rounds,
		logger:   logger.Named("refresher"),
		interval: interval,
		pool:     pool,
	}, nil
}

// Run blocks until the context is cancelled, scheduling a refresh each
// interval. An immediate refresh primes the session on startup.
func (r *Refresher) Run(ctx context.Context) {
	r.Trigger(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Trigger(ctx)
		}
	}
}

// Trigger schedules one refresh. When every worker is occupied the
// tick is dropped; the next one will catch up.
func (r *Refresher) Trigger(ctx context.Context) {
	err := r.pool.Submit(func() {
		if err := r.rounds.Refresh(ctx); err != nil {
			r.logger.Warn(ctx, "scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		r.logger.Debug(ctx, "refresh tick dropped", "error", err)
	}
}

// Close releases the worker pool.
func (r *Refresher) Close() {
	r.pool.Release()
}
