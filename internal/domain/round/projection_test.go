package round

import (
	"math/big"
	"testing"
)

func fixtureRound() Round {
	vpe := big.NewInt(100)
	return Round{
		ID:                   9,
		Status:               StatusOpen,
		ValuePerEntry:        vpe,
		NumberOfEntries:      10,
		NumberOfParticipants: 3,
		Deposits: []Deposit{
			{ID: "9-0", RoundID: 9, Depositor: "0xAAA", TokenType: TokenETH, TokenAmount: big.NewInt(400), EntriesCount: 4, Indice: 0, RoundValuePerEntry: vpe},
			{ID: "9-1", RoundID: 9, Depositor: "0xbbb", TokenType: TokenERC721, TokenID: big.NewInt(12), EntriesCount: 3, Indice: 1, RoundValuePerEntry: vpe},
			{ID: "9-2", RoundID: 9, Depositor: "0xaaa", TokenType: TokenERC20, TokenAddress: "0xWETH", TokenAmount: big.NewInt(100), EntriesCount: 1, Indice: 2, RoundValuePerEntry: vpe},
			{ID: "9-3", RoundID: 9, Depositor: "0xccc", TokenType: TokenETH, TokenAmount: big.NewInt(200), EntriesCount: 2, Indice: 3, RoundValuePerEntry: vpe},
		},
	}
}

func TestPlayersAggregation(t *testing.T) {
	r := fixtureRound()
	players := Players(r)

	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	// Depositor case differences collapse into one player.
	if players[0].Address != "0xaaa" || players[0].Entries != 5 {
		t.Fatalf("unexpected first player: %+v", players[0])
	}
	if players[1].Address != "0xbbb" || players[1].Entries != 3 {
		t.Fatalf("unexpected second player: %+v", players[1])
	}

	var chance float64
	for _, p := range players {
		chance += p.WinChance
	}
	if chance < 99.999 || chance > 100.001 {
		t.Fatalf("win chances must sum to 100, got %f", chance)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	r := fixtureRound()
	players := Players(r)

	entries, participants := Totals(players)
	if entries != r.NumberOfEntries {
		t.Fatalf("round-trip entries = %d, want %d", entries, r.NumberOfEntries)
	}
	if participants != r.NumberOfParticipants {
		t.Fatalf("round-trip participants = %d, want %d", participants, r.NumberOfParticipants)
	}

	var prizeEntries uint64
	for _, p := range Prizes(r) {
		prizeEntries += p.Entries
	}
	if prizeEntries != r.NumberOfEntries {
		t.Fatalf("prize entries = %d, want %d", prizeEntries, r.NumberOfEntries)
	}
}

func TestPrizesGrouping(t *testing.T) {
	r := fixtureRound()
	prizes := Prizes(r)

	// ETH deposits merge into one prize, the NFT and the ERC20 stay separate.
	if len(prizes) != 3 {
		t.Fatalf("expected 3 prizes, got %d", len(prizes))
	}
	if prizes[0].TokenType != TokenETH || prizes[0].Amount.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("unexpected eth prize: %+v", prizes[0])
	}
	if prizes[1].TokenType != TokenERC721 || prizes[1].TokenID.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("unexpected nft prize: %+v", prizes[1])
	}
	if len(prizes[0].Shares) != 2 {
		t.Fatalf("expected 2 shares on eth prize, got %d", len(prizes[0].Shares))
	}
}

func TestTopPlayers(t *testing.T) {
	r := fixtureRound()
	top := TopPlayers(Players(r), 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 players, got %d", len(top))
	}
	if top[0].Entries < top[1].Entries {
		t.Fatalf("expected descending entry order, got %d then %d", top[0].Entries, top[1].Entries)
	}
}
