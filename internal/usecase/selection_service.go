package usecase

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/domain/selection"
	"github.com/nftearth/fortune/internal/platform/logging"
)

// SelectionService edits the pending deposit selection held by the
// session store, enforcing the currency registry and fetching floor
// price attestations for NFT toggles.
type SelectionService struct {
	store  SessionStore
	rounds *RoundService
	floors FloorPriceSource
	logger *logging.Logger
}

func NewSelectionService(store SessionStore, rounds *RoundService, floors FloorPriceSource, logger *logging.Logger) *SelectionService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SelectionService{
		store:  store,
		rounds: rounds,
		floors: floors,
		logger: logger.Named("selection"),
	}
}

// SetETH replaces the native amount from a user-typed string. Garbage
// input reads as zero and clears the entry.
func (s *SelectionService) SetETH(amount string) {
	s.store.Selection().SetETH(selection.ParseAmount(amount, selection.DefaultDecimals))
}

// AddFungible adds an allowed ERC20 amount to the selection.
func (s *SelectionService) AddFungible(ctx context.Context, contract, amount string) error {
	contract = strings.ToLower(strings.TrimSpace(contract))
	if contract == "" {
		return fmt.Errorf("%w: contract is required", ErrInvalidInput)
	}

	currency, err := s.lookupCurrency(ctx, contract)
	if err != nil {
		return err
	}
	if !currency.Allowed {
		return fmt.Errorf("%w: currency %s is not accepted for deposits", ErrInvalidInput, contract)
	}

	parsed := selection.ParseAmount(amount, currency.Decimals)
	if parsed.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	s.store.Selection().AddFungible(contract, parsed)
	return nil
}

// ToggleNFT flips a token id in the selection. Selecting fetches a
// fresh floor price attestation; when the oracle has no valid price
// the selection is left untouched.
func (s *SelectionService) ToggleNFT(ctx context.Context, contract string, tokenID *big.Int) error {
	contract = strings.ToLower(strings.TrimSpace(contract))
	if contract == "" || tokenID == nil {
		return fmt.Errorf("%w: contract and token id are required", ErrInvalidInput)
	}

	builder := s.store.Selection()

	// Deselection needs no oracle round trip.
	if builder.ToggleNFT(contract, tokenID, selection.Attestation{}) {
		return nil
	}

	att, err := s.floors.FloorPrice(ctx, contract)
	if err != nil {
		return fmt.Errorf("%w: floor price lookup failed: %v", ErrDependencyUnavailable, err)
	}
	if !builder.ToggleNFT(contract, tokenID, att) {
		return fmt.Errorf("%w: no valid floor price attestation for %s", ErrInvalidInput, contract)
	}
	return nil
}

// Remove drops a contract entry; Clear resets the selection.
func (s *SelectionService) Remove(contract string) { s.store.Selection().Remove(contract) }

func (s *SelectionService) Clear() { s.store.ClearSelection() }

// Summary reports the selection with its aggregate value and the
// entries it buys in the current round. Submission requires at least
// one entry.
type SelectionSummary struct {
	Items      []selection.Item
	TotalValue *big.Int
	Entries    uint64
	CanSubmit  bool
}

func (s *SelectionService) Summary(ctx context.Context) (SelectionSummary, error) {
	r, err := s.rounds.Current(ctx)
	if err != nil {
		return SelectionSummary{}, err
	}

	rates, err := s.conversionRates(ctx)
	if err != nil {
		return SelectionSummary{}, err
	}

	builder := s.store.Selection()
	total := builder.TotalValue(rates)
	entries := builder.Entries(r.ValuePerEntry, rates)
	return SelectionSummary{
		Items:      builder.Snapshot(),
		TotalValue: total,
		Entries:    entries,
		CanSubmit:  entries > 0 && r.Status == round.StatusOpen,
	}, nil
}

// Entries builds the contract-shaped deposit entries from the current
// selection, splitting the ETH amount out as transaction value.
func (s *SelectionService) Entries(ctx context.Context) ([]DepositEntry, *big.Int, error) {
	items := s.store.Selection().Snapshot()
	entries := make([]DepositEntry, 0, len(items))
	ethValue := new(big.Int)

	for _, item := range items {
		switch {
		case item.Contract == selection.ETHKey:
			if item.Amount != nil {
				ethValue.Set(item.Amount)
			}
		case item.Fungible:
			entries = append(entries, DepositEntry{
				TokenType:    round.TokenERC20,
				TokenAddress: item.Contract,
				AmountsOrIDs: []*big.Int{item.Amount},
			})
		default:
			// One entry per token id so each carries its attestation.
			for _, tokenID := range item.TokenIDs {
				att, ok := item.Attestations[tokenID.String()]
				if !ok {
					return nil, nil, fmt.Errorf("%w: token %s missing attestation", ErrInvalidInput, tokenID)
				}
				entries = append(entries, DepositEntry{
					TokenType:    round.TokenERC721,
					TokenAddress: item.Contract,
					AmountsOrIDs: []*big.Int{tokenID},
					Attestation:  &att,
				})
			}
		}
	}
	return entries, ethValue, nil
}

func (s *SelectionService) lookupCurrency(ctx context.Context, contract string) (Currency, error) {
	currencies, err := s.rounds.AllowedCurrencies(ctx)
	if err != nil {
		return Currency{}, err
	}
	for _, c := range currencies {
		if strings.EqualFold(c.Address, contract) {
			return c, nil
		}
	}
	return Currency{}, fmt.Errorf("%w: currency=%s", ErrNotFound, contract)
}

// conversionRates prices allowed currencies for entry math. The
// registry currently lists ETH-pegged wrappers only, so every known
// currency converts one to one.
func (s *SelectionService) conversionRates(ctx context.Context) (map[string]*big.Rat, error) {
	currencies, err := s.rounds.AllowedCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]*big.Rat, len(currencies))
	for _, c := range currencies {
		if c.Allowed {
			rates[strings.ToLower(c.Address)] = big.NewRat(1, 1)
		}
	}
	return rates, nil
}
