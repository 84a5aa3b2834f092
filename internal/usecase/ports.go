package usecase

import (
	"context"
	"math/big"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/domain/selection"
)

// TxRef identifies a submitted transaction.
type TxRef struct {
	Hash string
}

// DepositEntry is one asset of a deposit transaction, in the shape the
// contract expects. ETH uses a zero-address placeholder with no ids or
// amounts; the value rides on the transaction itself.
type DepositEntry struct {
	TokenType    round.TokenType
	TokenAddress string
	AmountsOrIDs []*big.Int
	Attestation  *selection.Attestation
}

// PrizeClaim names the prize indices to claim from one won round.
type PrizeClaim struct {
	RoundID      uint64
	PrizeIndices []uint64
}

// Currency is an ERC20 the contract accepts as deposit collateral.
type Currency struct {
	Address  string
	Symbol   string
	Decimals int
	Allowed  bool
}

// ChainGateway is the wallet/RPC seam. Implementations translate raw
// wallet and node failures into ChainError or the sentinel errors of
// this package; callers never see provider-specific error shapes.
type ChainGateway interface {
	Account() string
	ChainID(ctx context.Context) (uint64, error)
	EnsureChain(ctx context.Context, chainID uint64) error

	HasApprovedOperator(ctx context.Context, account string) (bool, error)
	GrantOperatorApproval(ctx context.Context) (TxRef, error)

	Allowance(ctx context.Context, token, owner string) (*big.Int, error)
	ApproveERC20(ctx context.Context, token string, amount *big.Int) (TxRef, error)
	IsApprovedForAll(ctx context.Context, collection, owner string) (bool, error)
	SetApprovalForAll(ctx context.Context, collection string) (TxRef, error)

	Deposit(ctx context.Context, roundID uint64, entries []DepositEntry, value *big.Int) (TxRef, error)
	WithdrawDeposits(ctx context.Context, roundID uint64, indices []uint64) (TxRef, error)
	ClaimPrizes(ctx context.Context, claims []PrizeClaim) (TxRef, error)

	WaitForConfirmations(ctx context.Context, tx TxRef, confirmations uint64) error
	RoundsCount(ctx context.Context) (uint64, error)
}

// RoundSource reads round state from the indexer.
type RoundSource interface {
	CurrentRound(ctx context.Context) (round.Round, error)
	RoundByID(ctx context.Context, roundID uint64) (round.Round, bool, error)
	HistoryRounds(ctx context.Context, first, skip int) ([]round.Round, error)
	DepositsToWithdraw(ctx context.Context, account string) ([]round.Deposit, error)
	WonRounds(ctx context.Context, account string) ([]round.Round, error)
	AllowedCurrencies(ctx context.Context) ([]Currency, error)
}

// FloorPriceSource fetches a signed floor-price attestation for an NFT
// collection.
type FloorPriceSource interface {
	FloorPrice(ctx context.Context, collection string) (selection.Attestation, error)
}

// SessionStore holds the live session state. All mutation goes through
// these named setters; there is no shared mutable blob.
type SessionStore interface {
	SetCurrentRound(r round.Round, players []round.Player, prizes []round.Prize)
	CurrentRound() (round.Round, bool)
	Players() []round.Player
	Prizes() []round.Prize

	SetCountdown(minutes, seconds int64)
	Countdown() (minutes, seconds int64)

	Selection() *selection.Builder
	ClearSelection()

	SetSoundEnabled(enabled bool)
	SoundEnabled() bool
}

// Notification is a user-facing event, typically carrying an explorer
// link for a confirmed transaction.
type Notification struct {
	ID          string
	Kind        string
	Message     string
	TxHash      string
	ExplorerURL string
}

// Notifier publishes notifications to the session.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
