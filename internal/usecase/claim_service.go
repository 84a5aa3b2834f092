package usecase

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/platform/logging"
)

// Claimable summarizes one round's withdrawable value for an account:
// the deposit indices to pass to the contract and their combined
// entry value.
type Claimable struct {
	RoundID uint64
	Indices []uint64
	Value   *big.Int
}

// ClaimService aggregates withdrawals from cancelled rounds and prize
// claims from won rounds.
type ClaimService struct {
	gateway       ChainGateway
	source        RoundSource
	rounds        *RoundService
	logger        *logging.Logger
	confirmations uint64
}

func NewClaimService(gateway ChainGateway, source RoundSource, rounds *RoundService, logger *logging.Logger, confirmations uint64) *ClaimService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ClaimService{
		gateway:       gateway,
		source:        source,
		rounds:        rounds,
		logger:        logger.Named("claim"),
		confirmations: confirmations,
	}
}

// ComputeClaimable groups an account's unclaimed deposits by round.
// Claimed deposits contribute nothing. Value is the sum of
// entriesCount times the round's value per entry.
func ComputeClaimable(deposits []round.Deposit) []Claimable {
	byRound := make(map[uint64]*Claimable)
	for _, d := range deposits {
		if d.Claimed {
			continue
		}
		c, ok := byRound[d.RoundID]
		if !ok {
			c = &Claimable{RoundID: d.RoundID, Value: new(big.Int)}
			byRound[d.RoundID] = c
		}
		c.Indices = append(c.Indices, d.Indice)
		c.Value.Add(c.Value, d.Value())
	}

	out := make([]Claimable, 0, len(byRound))
	for _, c := range byRound {
		sort.Slice(c.Indices, func(i, j int) bool { return c.Indices[i] < c.Indices[j] })
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundID < out[j].RoundID })
	return out
}

// ClaimableFor fetches the account's withdrawable deposits and groups
// them per round.
func (s *ClaimService) ClaimableFor(ctx context.Context, account string) ([]Claimable, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidInput)
	}
	deposits, err := s.source.DepositsToWithdraw(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("fetch withdrawable deposits: %w", err)
	}
	return ComputeClaimable(deposits), nil
}

// WonRounds lists drawn rounds the account won, with unclaimed prizes.
func (s *ClaimService) WonRounds(ctx context.Context, account string) ([]round.Round, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidInput)
	}
	rounds, err := s.source.WonRounds(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("fetch won rounds: %w", err)
	}
	return rounds, nil
}

// Withdraw submits one transaction withdrawing all of the account's
// unclaimed deposits from the given round, then refreshes round state.
// Failures surface as parsed chain errors; there is no retry.
func (s *ClaimService) Withdraw(ctx context.Context, account string, roundID uint64) (TxRef, error) {
	claimables, err := s.ClaimableFor(ctx, account)
	if err != nil {
		return TxRef{}, err
	}

	var target *Claimable
	for i := range claimables {
		if claimables[i].RoundID == roundID {
			target = &claimables[i]
			break
		}
	}
	if target == nil {
		return TxRef{}, fmt.Errorf("%w: no withdrawable deposits in round %d", ErrNotFound, roundID)
	}

	tx, err := s.gateway.WithdrawDeposits(ctx, roundID, target.Indices)
	if err != nil {
		return TxRef{}, ParseChainError(err)
	}
	if err := s.gateway.WaitForConfirmations(ctx, tx, s.confirmations); err != nil {
		return TxRef{}, ParseChainError(err)
	}

	s.logger.Info(ctx, "withdrawal confirmed", "round_id", roundID, "tx_hash", tx.Hash, "indices", len(target.Indices))
	s.refresh(ctx)
	return tx, nil
}

// Claim submits one transaction claiming prizes from the given won
// rounds, then refreshes round state.
func (s *ClaimService) Claim(ctx context.Context, claims []PrizeClaim) (TxRef, error) {
	if len(claims) == 0 {
		return TxRef{}, fmt.Errorf("%w: no prizes selected", ErrInvalidInput)
	}
	for _, c := range claims {
		if c.RoundID == 0 || len(c.PrizeIndices) == 0 {
			return TxRef{}, fmt.Errorf("%w: claim needs a round id and prize indices", ErrInvalidInput)
		}
	}

	tx, err := s.gateway.ClaimPrizes(ctx, claims)
	if err != nil {
		return TxRef{}, ParseChainError(err)
	}
	if err := s.gateway.WaitForConfirmations(ctx, tx, s.confirmations); err != nil {
		return TxRef{}, ParseChainError(err)
	}

	s.logger.Info(ctx, "prize claim confirmed", "rounds", len(claims), "tx_hash", tx.Hash)
	s.refresh(ctx)
	return tx, nil
}

func (s *ClaimService) refresh(ctx context.Context) {
	if s.rounds == nil {
		return
	}
	if err := s.rounds.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "post-transaction refresh failed", "error", err)
	}
}
