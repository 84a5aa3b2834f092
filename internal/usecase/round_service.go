package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/nftearth/fortune/internal/domain/phase"
	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/platform/cache"
	"github.com/nftearth/fortune/internal/platform/logging"
)

// RoundService serves round state: the live round from the session
// store, short-lived cached reads from the indexer, and history from
// the postgres mirror.
type RoundService struct {
	source RoundSource
	mirror round.Repository
	store  SessionStore
	logger *logging.Logger

	roundCache    *cache.TTL[round.Round]
	currencyCache *cache.TTL[[]Currency]
}

func NewRoundService(source RoundSource, mirror round.Repository, store SessionStore, logger *logging.Logger, cacheTTL time.Duration) *RoundService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RoundService{
		source:        source,
		mirror:        mirror,
		store:         store,
		logger:        logger.Named("round"),
		roundCache:    cache.NewTTL[round.Round](cacheTTL),
		currencyCache: cache.NewTTL[[]Currency](10 * cacheTTL),
	}
}

// Current returns the live round, loading it from the indexer when the
// cache misses and updating the session projections as a side effect.
func (s *RoundService) Current(ctx context.Context) (round.Round, error) {
	return s.roundCache.GetOrLoad(ctx, "current", func(ctx context.Context) (round.Round, error) {
		r, err := s.loadCurrent(ctx)
		if err != nil {
			return round.Round{}, err
		}
		return r, nil
	})
}

// ByID resolves one round, preferring the mirror for terminal rounds.
func (s *RoundService) ByID(ctx context.Context, roundID uint64) (round.Round, error) {
	if roundID == 0 {
		return round.Round{}, fmt.Errorf("%w: round id is required", ErrInvalidInput)
	}

	key := "round:" + strconv.FormatUint(roundID, 10)
	return s.roundCache.GetOrLoad(ctx, key, func(ctx context.Context) (round.Round, error) {
		if s.mirror != nil {
			if r, ok, err := s.mirror.GetByID(ctx, roundID); err == nil && ok && r.Status.Terminal() {
				return r, nil
			}
		}

		r, ok, err := s.source.RoundByID(ctx, roundID)
		if err != nil {
			return round.Round{}, fmt.Errorf("fetch round %d: %w", roundID, err)
		}
		if !ok {
			return round.Round{}, fmt.Errorf("%w: round=%d", ErrNotFound, roundID)
		}
		s.upsertMirror(ctx, r)
		return r, nil
	})
}

// History pages through past rounds, newest first. The mirror answers
// when it has enough rows; otherwise the indexer is queried and its
// rows are mirrored for the next call.
func (s *RoundService) History(ctx context.Context, first, skip int) ([]round.Round, error) {
	if first <= 0 || first > 100 {
		first = 25
	}
	if skip < 0 {
		skip = 0
	}

	if s.mirror != nil {
		rounds, err := s.mirror.List(ctx, first, skip)
		if err == nil && len(rounds) == first {
			return rounds, nil
		}
		if err != nil {
			s.logger.Warn(ctx, "mirror history read failed", "error", err)
		}
	}

	rounds, err := s.source.HistoryRounds(ctx, first, skip)
	if err != nil {
		return nil, fmt.Errorf("fetch round history: %w", err)
	}
	for _, r := range rounds {
		s.upsertMirror(ctx, r)
	}
	return rounds, nil
}

// AllowedCurrencies returns the deposit currency registry.
func (s *RoundService) AllowedCurrencies(ctx context.Context) ([]Currency, error) {
	return s.currencyCache.GetOrLoad(ctx, "currencies", func(ctx context.Context) ([]Currency, error) {
		currencies, err := s.source.AllowedCurrencies(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch allowed currencies: %w", err)
		}
		return currencies, nil
	})
}

// Refresh drops the caches and reloads the current round and the
// currency registry concurrently. Invoked by the scheduler and after
// confirmed transactions.
func (s *RoundService) Refresh(ctx context.Context) error {
	s.roundCache.Invalidate()
	s.currencyCache.Invalidate()

	var roundErr, currencyErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		_, roundErr = s.loadCurrent(ctx)
	})
	wg.Go(func() {
		_, currencyErr = s.AllowedCurrencies(ctx)
	})
	wg.Wait()

	if roundErr != nil {
		return fmt.Errorf("refresh current round: %w", roundErr)
	}
	if currencyErr != nil {
		return fmt.Errorf("refresh currencies: %w", currencyErr)
	}
	return nil
}

// loadCurrent fetches the live round, guards the transition against
// the previously observed state, and publishes the projections.
func (s *RoundService) loadCurrent(ctx context.Context) (round.Round, error) {
	r, err := s.source.CurrentRound(ctx)
	if err != nil {
		return round.Round{}, fmt.Errorf("fetch current round: %w", err)
	}
	if err := r.Validate(); err != nil {
		return round.Round{}, fmt.Errorf("current round rejected: %w", err)
	}

	if s.store != nil {
		if prev, ok := s.store.CurrentRound(); ok && prev.ID == r.ID {
			merged, err := prev.MergeFrom(r)
			if err != nil {
				return round.Round{}, err
			}
			r = merged
		}
		players := round.Players(r)
		s.store.SetCurrentRound(r, players, round.Prizes(r))

		c := phase.CountdownAt(r.CutoffTime, time.Now())
		s.store.SetCountdown(c.Minutes, c.Seconds)
	}

	s.roundCache.Set("current", r)
	s.upsertMirror(ctx, r)
	return r, nil
}

// CurrentPhase derives the UI phase for the live round.
func (s *RoundService) CurrentPhase(ctx context.Context) (phase.Phase, phase.Countdown, error) {
	r, err := s.Current(ctx)
	if err != nil {
		return phase.PhaseNone, phase.Countdown{}, err
	}
	now := time.Now()
	return phase.Derive(r.Status, r.CutoffTime, now), phase.CountdownAt(r.CutoffTime, now), nil
}

// WinnerTarget maps the drawn winner onto the local wheel for the
// reveal. Divergence between the source and local players is returned
// as a typed error.
func (s *RoundService) WinnerTarget(ctx context.Context, roundID uint64) (phase.WheelTarget, error) {
	r, err := s.ByID(ctx, roundID)
	if err != nil {
		return phase.WheelTarget{}, err
	}
	if r.Status != round.StatusDrawn || r.Winner == "" {
		return phase.WheelTarget{}, fmt.Errorf("%w: round %d has no winner yet", ErrNotFound, roundID)
	}
	return phase.WinnerSlice(round.Players(r), r.Winner)
}

func (s *RoundService) upsertMirror(ctx context.Context, r round.Round) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Upsert(ctx, r); err != nil {
		s.logger.Warn(ctx, "mirror upsert failed", "round_id", r.ID, "error", err)
	}
}
