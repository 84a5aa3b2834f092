package round

import (
	"fmt"
	"math/big"
	"strings"
)

// Status is the round lifecycle state as reported by the Fortune contract.
type Status string

const (
	StatusNone      Status = "NONE"
	StatusOpen      Status = "OPEN"
	StatusDrawing   Status = "DRAWING"
	StatusDrawn     Status = "DRAWN"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses lists every status the contract can report.
var AllStatuses = map[Status]struct{}{
	StatusNone:      {},
	StatusOpen:      {},
	StatusDrawing:   {},
	StatusDrawn:     {},
	StatusCancelled: {},
}

// Terminal reports whether a round in this status is immutable.
func (s Status) Terminal() bool {
	return s == StatusDrawn || s == StatusCancelled
}

// CanTransition reports whether the contract is allowed to move a round
// from one status to another. Transitions never reverse: a round goes
// Open -> Drawing -> Drawn, or Open -> Cancelled.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusNone:
		return to == StatusOpen
	case StatusOpen:
		return to == StatusDrawing || to == StatusCancelled
	case StatusDrawing:
		return to == StatusDrawn || to == StatusCancelled
	default:
		return false
	}
}

// TokenType classifies a deposited asset. ERC1155 deposits are reported
// by the indexer as ERC721 and treated the same here.
type TokenType string

const (
	TokenETH    TokenType = "ETH"
	TokenERC20  TokenType = "ERC20"
	TokenERC721 TokenType = "ERC721"
)

var allTokenTypes = map[TokenType]struct{}{
	TokenETH:    {},
	TokenERC20:  {},
	TokenERC721: {},
}

// Deposit is a single append-only deposit record within a round. The
// contract assigns Indice at deposit time; it is the withdrawal key.
type Deposit struct {
	ID                 string
	RoundID            uint64
	Depositor          string
	TokenAddress       string
	TokenAmount        *big.Int
	TokenID            *big.Int
	TokenType          TokenType
	EntriesCount       uint64
	Indice             uint64
	Claimed            bool
	RoundValuePerEntry *big.Int
}

func (d Deposit) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("deposit id is required")
	}
	if strings.TrimSpace(d.Depositor) == "" {
		return fmt.Errorf("deposit depositor is required")
	}
	if _, ok := allTokenTypes[d.TokenType]; !ok {
		return fmt.Errorf("unknown deposit token type %q", d.TokenType)
	}
	if d.TokenType == TokenERC721 && d.TokenID == nil {
		return fmt.Errorf("erc721 deposit requires a token id")
	}
	if d.TokenType != TokenERC721 && (d.TokenAmount == nil || d.TokenAmount.Sign() < 0) {
		return fmt.Errorf("deposit amount must be a non-negative value")
	}
	return nil
}

// Value is the ETH-equivalent entry value of the deposit.
func (d Deposit) Value() *big.Int {
	if d.RoundValuePerEntry == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(d.EntriesCount), d.RoundValuePerEntry)
}

// Round mirrors one Fortune round as reported by the data source. The
// client never mutates a round; it only reflects it.
type Round struct {
	ID                          uint64
	Status                      Status
	CutoffTime                  int64
	Duration                    int64
	ValuePerEntry               *big.Int
	NumberOfEntries             uint64
	NumberOfParticipants        uint64
	MaximumNumberOfDeposits     uint64
	MaximumNumberOfParticipants uint64
	Winner                      string
	DrawnHash                   string
	ProtocolFeeBp               uint64
	Deposits                    []Deposit
}

func (r Round) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("round id is required")
	}
	if _, ok := AllStatuses[r.Status]; !ok {
		return fmt.Errorf("unknown round status %q", r.Status)
	}
	if r.ValuePerEntry == nil || r.ValuePerEntry.Sign() <= 0 {
		return fmt.Errorf("round value per entry must be positive")
	}
	if r.Winner != "" && r.Status != StatusDrawn {
		return fmt.Errorf("round winner is only set once drawn")
	}
	for i, d := range r.Deposits {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("deposit %d: %w", i, err)
		}
	}
	if err := validateIndices(r.Deposits); err != nil {
		return err
	}
	return nil
}

func validateIndices(deposits []Deposit) error {
	seen := make(map[uint64]struct{}, len(deposits))
	for _, d := range deposits {
		if _, dup := seen[d.Indice]; dup {
			return fmt.Errorf("duplicate deposit indice %d", d.Indice)
		}
		seen[d.Indice] = struct{}{}
	}
	return nil
}

// EntriesFor computes how many entries a value buys: floor(value / valuePerEntry).
func EntriesFor(value, valuePerEntry *big.Int) uint64 {
	if value == nil || valuePerEntry == nil || valuePerEntry.Sign() <= 0 || value.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Quo(value, valuePerEntry)
	if !q.IsUint64() {
		return 0
	}
	return q.Uint64()
}

// MergeFrom applies a fresh snapshot of the same round on top of a
// previously observed one, rejecting snapshots that violate the round
// invariants (status reversal, shrinking entry count while open).
func (r Round) MergeFrom(next Round) (Round, error) {
	if r.ID != next.ID {
		return Round{}, fmt.Errorf("cannot merge round %d into round %d", next.ID, r.ID)
	}
	if !CanTransition(r.Status, next.Status) {
		return Round{}, fmt.Errorf("illegal status transition %s -> %s for round %d", r.Status, next.Status, r.ID)
	}
	if r.Status == StatusOpen && next.Status == StatusOpen && next.NumberOfEntries < r.NumberOfEntries {
		return Round{}, fmt.Errorf("entry count regressed from %d to %d for open round %d", r.NumberOfEntries, next.NumberOfEntries, r.ID)
	}
	return next, nil
}
