package usecase

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentCachesWithinTTL(t *testing.T) {
	src := &fakeSource{current: openRound(5, 100)}
	store := newFakeStore()
	svc := NewRoundService(src, nil, store, nil, time.Minute)

	for i := 0; i < 3; i++ {
		r, err := svc.Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(5), r.ID)
	}
	assert.Equal(t, 1, src.loads, "repeat reads must hit the cache")

	got, ok := store.CurrentRound()
	require.True(t, ok)
	assert.Equal(t, uint64(5), got.ID)
}

func TestRefreshReloadsAndPublishes(t *testing.T) {
	src := &fakeSource{current: openRound(5, 100)}
	store := newFakeStore()
	svc := NewRoundService(src, nil, store, nil, time.Minute)

	_, err := svc.Current(context.Background())
	require.NoError(t, err)

	next := openRound(5, 100)
	next.NumberOfEntries = 9
	next.Deposits = []round.Deposit{{
		ID: "5-0", RoundID: 5, Depositor: "0xaaa", TokenType: round.TokenETH,
		TokenAmount: big.NewInt(900), EntriesCount: 9, RoundValuePerEntry: big.NewInt(100),
	}}
	next.NumberOfParticipants = 1
	src.mu.Lock()
	src.current = next
	src.mu.Unlock()

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 2, src.loads)

	got, _ := store.CurrentRound()
	assert.Equal(t, uint64(9), got.NumberOfEntries)
	assert.Len(t, store.Players(), 1)
}

func TestRefreshRejectsRegressedSnapshot(t *testing.T) {
	first := openRound(5, 100)
	first.NumberOfEntries = 9
	src := &fakeSource{current: first}
	store := newFakeStore()
	svc := NewRoundService(src, nil, store, nil, time.Minute)

	_, err := svc.Current(context.Background())
	require.NoError(t, err)

	stale := openRound(5, 100)
	stale.NumberOfEntries = 4
	src.mu.Lock()
	src.current = stale
	src.mu.Unlock()

	err = svc.Refresh(context.Background())
	require.Error(t, err)

	// The store keeps the last good snapshot.
	got, _ := store.CurrentRound()
	assert.Equal(t, uint64(9), got.NumberOfEntries)
}

func TestByIDValidation(t *testing.T) {
	svc := NewRoundService(&fakeSource{}, nil, nil, nil, time.Minute)

	_, err := svc.ByID(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWinnerTarget(t *testing.T) {
	drawn := round.Round{
		ID:            7,
		Status:        round.StatusDrawn,
		CutoffTime:    1700000000,
		ValuePerEntry: big.NewInt(100),
		Winner:        "0xbbb",
		Deposits: []round.Deposit{
			{ID: "7-0", RoundID: 7, Depositor: "0xaaa", TokenType: round.TokenETH, TokenAmount: big.NewInt(100), EntriesCount: 1, Indice: 0, RoundValuePerEntry: big.NewInt(100)},
			{ID: "7-1", RoundID: 7, Depositor: "0xbbb", TokenType: round.TokenETH, TokenAmount: big.NewInt(300), EntriesCount: 3, Indice: 1, RoundValuePerEntry: big.NewInt(100)},
		},
	}
	src := &fakeSource{rounds: map[uint64]round.Round{7: drawn}}
	svc := NewRoundService(src, nil, nil, nil, time.Minute)

	target, err := svc.WinnerTarget(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, target.Index)
}

func TestSelectionServiceGating(t *testing.T) {
	src := &fakeSource{
		current: openRound(4, 100),
		currencies: []Currency{
			{Address: "0xweth", Symbol: "WETH", Decimals: 18, Allowed: true},
			{Address: "0xbad", Symbol: "BAD", Decimals: 18, Allowed: false},
		},
	}
	store := newFakeStore()
	rounds := NewRoundService(src, nil, store, nil, time.Minute)
	svc := NewSelectionService(store, rounds, nil, nil)

	require.NoError(t, svc.AddFungible(context.Background(), "0xWETH", "0.000000000000000250"))

	err := svc.AddFungible(context.Background(), "0xbad", "1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = svc.AddFungible(context.Background(), "0xmissing", "1")
	assert.ErrorIs(t, err, ErrNotFound)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(250), summary.TotalValue.Int64())
	assert.Equal(t, uint64(2), summary.Entries)
	assert.True(t, summary.CanSubmit)
}
