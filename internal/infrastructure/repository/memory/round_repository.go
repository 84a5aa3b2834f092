package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nftearth/fortune/internal/domain/round"
)

// RoundRepository is the in-memory round mirror used when no database
// is configured. List serves the same history contract as the postgres
// mirror: terminal rounds only, newest first.
type RoundRepository struct {
	mu    sync.RWMutex
	items map[uint64]round.Round
}

func NewRoundRepository() *RoundRepository {
	return &RoundRepository{
		items: make(map[uint64]round.Round),
	}
}

func (r *RoundRepository) GetByID(_ context.Context, roundID uint64) (round.Round, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rnd, ok := r.items[roundID]
	if !ok {
		return round.Round{}, false, nil
	}

	return rnd, true, nil
}

func (r *RoundRepository) List(_ context.Context, first, skip int) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if first <= 0 || skip < 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(r.items))
	for id, rnd := range r.items {
		if rnd.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	if skip >= len(ids) {
		return nil, nil
	}
	end := skip + first
	if end > len(ids) {
		end = len(ids)
	}

	out := make([]round.Round, 0, end-skip)
	for _, id := range ids[skip:end] {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *RoundRepository) Upsert(_ context.Context, rnd round.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[rnd.ID] = rnd

	return nil
}
