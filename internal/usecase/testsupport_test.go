package usecase

import (
	"context"
	"math/big"
	"sync"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/domain/selection"
)

// fakeGateway records every chain interaction in order.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	account          string
	chainErr         error
	operatorApproved bool
	allowances       map[string]*big.Int
	approvedForAll   map[string]bool
	depositErr       error
	waitErr          error
	depositBlock     chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		account:        "0xdepositor",
		allowances:     make(map[string]*big.Int),
		approvedForAll: make(map[string]bool),
	}
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
}

func (g *fakeGateway) recorded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) Account() string { return g.account }

func (g *fakeGateway) ChainID(context.Context) (uint64, error) { return 1, nil }

func (g *fakeGateway) EnsureChain(_ context.Context, chainID uint64) error {
	g.record("ensure_chain")
	return g.chainErr
}

func (g *fakeGateway) HasApprovedOperator(context.Context, string) (bool, error) {
	g.record("has_approved_operator")
	return g.operatorApproved, nil
}

func (g *fakeGateway) GrantOperatorApproval(context.Context) (TxRef, error) {
	g.record("grant_operator_approval")
	return TxRef{Hash: "0xgrant"}, nil
}

func (g *fakeGateway) Allowance(_ context.Context, token, _ string) (*big.Int, error) {
	g.record("allowance:" + token)
	if a, ok := g.allowances[token]; ok {
		return a, nil
	}
	return new(big.Int), nil
}

func (g *fakeGateway) ApproveERC20(_ context.Context, token string, _ *big.Int) (TxRef, error) {
	g.record("approve:" + token)
	return TxRef{Hash: "0xapprove"}, nil
}

func (g *fakeGateway) IsApprovedForAll(_ context.Context, collection, _ string) (bool, error) {
	g.record("is_approved_for_all:" + collection)
	return g.approvedForAll[collection], nil
}

func (g *fakeGateway) SetApprovalForAll(_ context.Context, collection string) (TxRef, error) {
	g.record("set_approval_for_all:" + collection)
	return TxRef{Hash: "0xsetapproval"}, nil
}

func (g *fakeGateway) Deposit(_ context.Context, _ uint64, _ []DepositEntry, _ *big.Int) (TxRef, error) {
	g.record("deposit")
	if g.depositBlock != nil {
		<-g.depositBlock
	}
	if g.depositErr != nil {
		return TxRef{}, g.depositErr
	}
	return TxRef{Hash: "0xdeposit"}, nil
}

func (g *fakeGateway) WithdrawDeposits(_ context.Context, roundID uint64, indices []uint64) (TxRef, error) {
	g.record("withdraw")
	return TxRef{Hash: "0xwithdraw"}, nil
}

func (g *fakeGateway) ClaimPrizes(context.Context, []PrizeClaim) (TxRef, error) {
	g.record("claim")
	return TxRef{Hash: "0xclaim"}, nil
}

func (g *fakeGateway) WaitForConfirmations(context.Context, TxRef, uint64) error {
	g.record("wait")
	return g.waitErr
}

func (g *fakeGateway) RoundsCount(context.Context) (uint64, error) { return 1, nil }

// fakeStore is a minimal SessionStore.
type fakeStore struct {
	mu        sync.Mutex
	current   round.Round
	hasRound  bool
	players   []round.Player
	prizes    []round.Prize
	countdown [2]int64
	builder   *selection.Builder
	sound     bool
	cleared   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{builder: selection.NewBuilder(), sound: true}
}

func (s *fakeStore) SetCurrentRound(r round.Round, players []round.Player, prizes []round.Prize) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current, s.hasRound = r, true
	s.players, s.prizes = players, prizes
}

func (s *fakeStore) CurrentRound() (round.Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasRound
}

func (s *fakeStore) Players() []round.Player { return s.players }
func (s *fakeStore) Prizes() []round.Prize   { return s.prizes }

func (s *fakeStore) SetCountdown(minutes, seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countdown = [2]int64{minutes, seconds}
}

func (s *fakeStore) Countdown() (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown[0], s.countdown[1]
}

func (s *fakeStore) Selection() *selection.Builder { return s.builder }

func (s *fakeStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.Clear()
	s.cleared++
}

func (s *fakeStore) SetSoundEnabled(enabled bool) { s.sound = enabled }
func (s *fakeStore) SoundEnabled() bool           { return s.sound }

// fakeSource serves canned indexer responses.
type fakeSource struct {
	mu         sync.Mutex
	current    round.Round
	currentErr error
	rounds     map[uint64]round.Round
	history    []round.Round
	deposits   []round.Deposit
	won        []round.Round
	currencies []Currency
	loads      int
}

func (f *fakeSource) CurrentRound(context.Context) (round.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.current, f.currentErr
}

func (f *fakeSource) RoundByID(_ context.Context, roundID uint64) (round.Round, bool, error) {
	r, ok := f.rounds[roundID]
	return r, ok, nil
}

func (f *fakeSource) HistoryRounds(context.Context, int, int) ([]round.Round, error) {
	return f.history, nil
}

func (f *fakeSource) DepositsToWithdraw(context.Context, string) ([]round.Deposit, error) {
	return f.deposits, nil
}

func (f *fakeSource) WonRounds(context.Context, string) ([]round.Round, error) {
	return f.won, nil
}

func (f *fakeSource) AllowedCurrencies(context.Context) ([]Currency, error) {
	return f.currencies, nil
}

func openRound(roundID uint64, valuePerEntry int64) round.Round {
	return round.Round{
		ID:            roundID,
		Status:        round.StatusOpen,
		CutoffTime:    4102444800,
		ValuePerEntry: big.NewInt(valuePerEntry),
	}
}
