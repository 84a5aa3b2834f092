package subgraph

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/usecase"
)

// ErrMalformedPayload marks indexer responses that fail boundary
// validation. Callers treat it as a data bug, not a transient outage.
var ErrMalformedPayload = errors.New("malformed subgraph payload")

// The indexer serializes every numeric field as a string.
type roundPayload struct {
	RoundID                     string           `json:"roundId"`
	Status                      string           `json:"status"`
	CutoffTime                  string           `json:"cutoffTime"`
	Duration                    string           `json:"duration"`
	ValuePerEntry               string           `json:"valuePerEntry"`
	NumberOfEntries             string           `json:"numberOfEntries"`
	NumberOfParticipants        string           `json:"numberOfParticipants"`
	MaximumNumberOfDeposits     string           `json:"maximumNumberOfDeposits"`
	MaximumNumberOfParticipants string           `json:"maximumNumberOfParticipants"`
	Winner                      string           `json:"winner"`
	DrawnHash                   string           `json:"drawnHash"`
	ProtocolFeeBp               string           `json:"protocolFeeBp"`
	Deposits                    []depositPayload `json:"deposits"`
}

type depositPayload struct {
	ID            string `json:"id"`
	RoundID       string `json:"round"`
	Depositor     string `json:"depositor"`
	TokenAddress  string `json:"tokenAddress"`
	TokenAmount   string `json:"tokenAmount"`
	TokenID       string `json:"tokenId"`
	TokenType     string `json:"tokenType"`
	EntriesCount  string `json:"entriesCount"`
	Indice        string `json:"indice"`
	Claimed       bool   `json:"claimed"`
	ValuePerEntry string `json:"roundValuePerEntry"`
}

type currencyPayload struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
	Allowed  bool   `json:"isAllowed"`
}

var statusByName = map[string]round.Status{
	"NONE":      round.StatusNone,
	"OPEN":      round.StatusOpen,
	"DRAWING":   round.StatusDrawing,
	"DRAWN":     round.StatusDrawn,
	"CANCELLED": round.StatusCancelled,
}

func (p roundPayload) toDomain() (round.Round, error) {
	status, ok := statusByName[strings.ToUpper(strings.TrimSpace(p.Status))]
	if !ok {
		return round.Round{}, fmt.Errorf("%w: unknown round status %q", ErrMalformedPayload, p.Status)
	}

	roundID, err := parseUint("roundId", p.RoundID)
	if err != nil {
		return round.Round{}, err
	}
	cutoff, err := parseInt("cutoffTime", p.CutoffTime)
	if err != nil {
		return round.Round{}, err
	}
	duration, err := parseInt("duration", p.Duration)
	if err != nil {
		return round.Round{}, err
	}
	valuePerEntry, err := parseBig("valuePerEntry", p.ValuePerEntry)
	if err != nil {
		return round.Round{}, err
	}
	entries, err := parseUint("numberOfEntries", p.NumberOfEntries)
	if err != nil {
		return round.Round{}, err
	}
	participants, err := parseUint("numberOfParticipants", p.NumberOfParticipants)
	if err != nil {
		return round.Round{}, err
	}
	maxDeposits, err := parseUint("maximumNumberOfDeposits", p.MaximumNumberOfDeposits)
	if err != nil {
		return round.Round{}, err
	}
	maxParticipants, err := parseUint("maximumNumberOfParticipants", p.MaximumNumberOfParticipants)
	if err != nil {
		return round.Round{}, err
	}
	feeBp, err := parseUint("protocolFeeBp", p.ProtocolFeeBp)
	if err != nil {
		return round.Round{}, err
	}

	r := round.Round{
		ID:                          roundID,
		Status:                      status,
		CutoffTime:                  cutoff,
		Duration:                    duration,
		ValuePerEntry:               valuePerEntry,
		NumberOfEntries:             entries,
		NumberOfParticipants:        participants,
		MaximumNumberOfDeposits:     maxDeposits,
		MaximumNumberOfParticipants: maxParticipants,
		Winner:                      strings.ToLower(strings.TrimSpace(p.Winner)),
		DrawnHash:                   strings.TrimSpace(p.DrawnHash),
		ProtocolFeeBp:               feeBp,
	}

	r.Deposits = make([]round.Deposit, 0, len(p.Deposits))
	for _, dp := range p.Deposits {
		d, err := dp.toDomain()
		if err != nil {
			return round.Round{}, err
		}
		if d.RoundValuePerEntry == nil {
			d.RoundValuePerEntry = valuePerEntry
		}
		r.Deposits = append(r.Deposits, d)
	}

	if err := r.Validate(); err != nil {
		return round.Round{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return r, nil
}

var tokenTypeByName = map[string]round.TokenType{
	"ETH":     round.TokenETH,
	"ERC20":   round.TokenERC20,
	"ERC721":  round.TokenERC721,
	"ERC1155": round.TokenERC721,
}

func (p depositPayload) toDomain() (round.Deposit, error) {
	tokenType, ok := tokenTypeByName[strings.ToUpper(strings.TrimSpace(p.TokenType))]
	if !ok {
		return round.Deposit{}, fmt.Errorf("%w: unknown token type %q", ErrMalformedPayload, p.TokenType)
	}

	roundID, err := parseUint("deposit round", p.RoundID)
	if err != nil {
		return round.Deposit{}, err
	}
	entries, err := parseUint("entriesCount", p.EntriesCount)
	if err != nil {
		return round.Deposit{}, err
	}
	indice, err := parseUint("indice", p.Indice)
	if err != nil {
		return round.Deposit{}, err
	}

	d := round.Deposit{
		ID:           strings.TrimSpace(p.ID),
		RoundID:      roundID,
		Depositor:    strings.ToLower(strings.TrimSpace(p.Depositor)),
		TokenAddress: strings.ToLower(strings.TrimSpace(p.TokenAddress)),
		TokenType:    tokenType,
		EntriesCount: entries,
		Indice:       indice,
		Claimed:      p.Claimed,
	}

	if tokenType == round.TokenERC721 {
		d.TokenID, err = parseBig("tokenId", p.TokenID)
		if err != nil {
			return round.Deposit{}, err
		}
	} else {
		d.TokenAmount, err = parseBig("tokenAmount", p.TokenAmount)
		if err != nil {
			return round.Deposit{}, err
		}
	}

	if p.ValuePerEntry != "" {
		d.RoundValuePerEntry, err = parseBig("roundValuePerEntry", p.ValuePerEntry)
		if err != nil {
			return round.Deposit{}, err
		}
	}

	if err := d.Validate(); err != nil {
		return round.Deposit{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return d, nil
}

func (p currencyPayload) toDomain() (usecase.Currency, error) {
	address := strings.ToLower(strings.TrimSpace(p.Address))
	if address == "" {
		return usecase.Currency{}, fmt.Errorf("%w: currency address is empty", ErrMalformedPayload)
	}
	decimals, err := parseInt("decimals", p.Decimals)
	if err != nil {
		return usecase.Currency{}, err
	}
	if decimals < 0 || decimals > 77 {
		return usecase.Currency{}, fmt.Errorf("%w: decimals %d out of range", ErrMalformedPayload, decimals)
	}
	return usecase.Currency{
		Address:  address,
		Symbol:   strings.TrimSpace(p.Symbol),
		Decimals: int(decimals),
		Allowed:  p.Allowed,
	}, nil
}

func parseUint(field, value string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrMalformedPayload, field, value)
	}
	return v, nil
}

func parseInt(field, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrMalformedPayload, field, value)
	}
	return v, nil
}

func parseBig(field, value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrMalformedPayload, field, value)
	}
	return v, nil
}
