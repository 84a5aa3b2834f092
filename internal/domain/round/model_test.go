package round

import (
	"math/big"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "open to drawing", from: StatusOpen, to: StatusDrawing, want: true},
		{name: "open to cancelled", from: StatusOpen, to: StatusCancelled, want: true},
		{name: "drawing to drawn", from: StatusDrawing, to: StatusDrawn, want: true},
		{name: "drawing to cancelled", from: StatusDrawing, to: StatusCancelled, want: true},
		{name: "same status", from: StatusOpen, to: StatusOpen, want: true},
		{name: "none to open", from: StatusNone, to: StatusOpen, want: true},
		{name: "drawn never reverses", from: StatusDrawn, to: StatusOpen, want: false},
		{name: "cancelled never reverses", from: StatusCancelled, to: StatusDrawing, want: false},
		{name: "open cannot skip to drawn", from: StatusOpen, to: StatusDrawn, want: false},
		{name: "drawing cannot reopen", from: StatusDrawing, to: StatusOpen, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestEntriesFor(t *testing.T) {
	tests := []struct {
		name          string
		value         int64
		valuePerEntry int64
		want          uint64
	}{
		{name: "exact multiple", value: 200, valuePerEntry: 100, want: 2},
		{name: "floors fractional entries", value: 250, valuePerEntry: 100, want: 2},
		{name: "below minimum", value: 99, valuePerEntry: 100, want: 0},
		{name: "zero value", value: 0, valuePerEntry: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EntriesFor(big.NewInt(tt.value), big.NewInt(tt.valuePerEntry))
			if got != tt.want {
				t.Fatalf("EntriesFor(%d, %d) = %d, want %d", tt.value, tt.valuePerEntry, got, tt.want)
			}
		})
	}

	if got := EntriesFor(nil, big.NewInt(100)); got != 0 {
		t.Fatalf("EntriesFor(nil, _) = %d, want 0", got)
	}
	if got := EntriesFor(big.NewInt(100), nil); got != 0 {
		t.Fatalf("EntriesFor(_, nil) = %d, want 0", got)
	}
}

func TestRoundValidate(t *testing.T) {
	valid := Round{
		ID:            1,
		Status:        StatusOpen,
		CutoffTime:    1700000000,
		ValuePerEntry: big.NewInt(100),
		Deposits: []Deposit{
			{ID: "1-0", RoundID: 1, Depositor: "0xaa", TokenType: TokenETH, TokenAmount: big.NewInt(200), EntriesCount: 2, Indice: 0},
			{ID: "1-1", RoundID: 1, Depositor: "0xbb", TokenType: TokenERC721, TokenID: big.NewInt(7), Indice: 1},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid round, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Round)
	}{
		{name: "missing id", mutate: func(r *Round) { r.ID = 0 }},
		{name: "unknown status", mutate: func(r *Round) { r.Status = Status("BOGUS") }},
		{name: "zero value per entry", mutate: func(r *Round) { r.ValuePerEntry = big.NewInt(0) }},
		{name: "winner without drawn status", mutate: func(r *Round) { r.Winner = "0xcc" }},
		{name: "duplicate indice", mutate: func(r *Round) { r.Deposits[1].Indice = 0 }},
		{name: "erc721 without token id", mutate: func(r *Round) { r.Deposits[1].TokenID = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			r.Deposits = append([]Deposit(nil), valid.Deposits...)
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestMergeFrom(t *testing.T) {
	prev := Round{ID: 3, Status: StatusOpen, ValuePerEntry: big.NewInt(100), NumberOfEntries: 5}

	next := prev
	next.NumberOfEntries = 7
	merged, err := prev.MergeFrom(next)
	if err != nil {
		t.Fatalf("merge grow entries: %v", err)
	}
	if merged.NumberOfEntries != 7 {
		t.Fatalf("unexpected entries after merge: %d", merged.NumberOfEntries)
	}

	regressed := prev
	regressed.NumberOfEntries = 3
	if _, err := prev.MergeFrom(regressed); err == nil {
		t.Fatal("expected error for regressed entry count")
	}

	reversed := prev
	reversed.Status = StatusNone
	if _, err := prev.MergeFrom(reversed); err == nil {
		t.Fatal("expected error for status reversal")
	}

	other := next
	other.ID = 4
	if _, err := prev.MergeFrom(other); err == nil {
		t.Fatal("expected error for mismatched round id")
	}
}
