package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/usecase"
)

func TestRoundRepositoryHistoryContract(t *testing.T) {
	repo := NewRoundRepository()
	ctx := context.Background()

	seed := []round.Round{
		{ID: 1, Status: round.StatusDrawn},
		{ID: 2, Status: round.StatusCancelled},
		{ID: 3, Status: round.StatusOpen},
		{ID: 5, Status: round.StatusDrawn},
	}
	for _, rnd := range seed {
		if err := repo.Upsert(ctx, rnd); err != nil {
			t.Fatalf("upsert %d: %v", rnd.ID, err)
		}
	}
	// re-upsert replaces in place
	if err := repo.Upsert(ctx, round.Round{ID: 2, Status: round.StatusDrawn}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	rounds, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("len = %d, want 3 (open round must not appear)", len(rounds))
	}
	if rounds[0].ID != 5 || rounds[1].ID != 2 || rounds[2].ID != 1 {
		t.Fatalf("order = %d %d %d, want newest first", rounds[0].ID, rounds[1].ID, rounds[2].ID)
	}
	if rounds[1].Status != round.StatusDrawn {
		t.Fatalf("status = %s, want DRAWN", rounds[1].Status)
	}

	page, err := repo.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != 2 {
		t.Fatalf("page = %+v", page)
	}

	_, ok, err := repo.GetByID(ctx, 42)
	if err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	if _, ok := store.CurrentRound(); ok {
		t.Fatal("fresh store must not report a round")
	}
	if !store.SoundEnabled() {
		t.Fatal("sound defaults on")
	}

	store.SetCurrentRound(round.Round{ID: 7, Status: round.StatusOpen},
		[]round.Player{{Address: "0xaaa"}}, []round.Prize{{TokenAddress: "0xnft"}})
	store.SetCountdown(2, 30)

	r, ok := store.CurrentRound()
	if !ok || r.ID != 7 {
		t.Fatalf("current = %+v ok=%v", r, ok)
	}
	if minutes, seconds := store.Countdown(); minutes != 2 || seconds != 30 {
		t.Fatalf("countdown = %d:%d", minutes, seconds)
	}

	players := store.Players()
	players[0].Address = "mutated"
	if store.Players()[0].Address != "0xaaa" {
		t.Fatal("players must be returned by copy")
	}

	store.Selection().SetETH(big.NewInt(1))
	if store.Selection().Len() != 1 {
		t.Fatal("selection did not record eth entry")
	}
	store.ClearSelection()
	if store.Selection().Len() != 0 {
		t.Fatal("selection not cleared")
	}

	store.SetSoundEnabled(false)
	if store.SoundEnabled() {
		t.Fatal("sound toggle ignored")
	}
}

func TestNotifierRing(t *testing.T) {
	n := NewNotifier()
	ctx := context.Background()

	for i := 0; i < notifierCapacity+10; i++ {
		n.Notify(ctx, usecase.Notification{ID: string(rune('a' + i%26))})
	}

	recent := n.Recent(0)
	if len(recent) != notifierCapacity {
		t.Fatalf("len = %d, want %d", len(recent), notifierCapacity)
	}

	top := n.Recent(2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
}
