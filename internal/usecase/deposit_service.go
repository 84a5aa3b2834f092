package usecase

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/platform/id"
	"github.com/nftearth/fortune/internal/platform/logging"
)

// SubmitStep tags one state of the deposit sequence. Every state is
// named; there is no numeric progress counter to drift.
type SubmitStep string

const (
	StepIdle             SubmitStep = "IDLE"
	StepSwitchingNetwork SubmitStep = "SWITCHING_NETWORK"
	StepGrantingOperator SubmitStep = "GRANTING_OPERATOR_APPROVAL"
	StepApprovingAssets  SubmitStep = "APPROVING_ASSETS"
	StepDepositing       SubmitStep = "DEPOSITING"
	StepSucceeded        SubmitStep = "SUCCEEDED"
	StepFailed           SubmitStep = "FAILED"
)

// SubmitState is a snapshot of the deposit sequence. While approving
// assets, AssetIndex counts from 1 to AssetCount. A failed sequence
// records the step it died on and the parsed cause; approvals that
// completed before the failure stay granted.
type SubmitState struct {
	Step       SubmitStep
	AssetIndex int
	AssetCount int
	FailedStep SubmitStep
	Cause      *ChainError
	TxHash     string
}

// DepositService sequences the approvals and the deposit transaction
// for one submission at a time.
type DepositService struct {
	gateway       ChainGateway
	store         SessionStore
	notifier      Notifier
	logger        *logging.Logger
	chainID       uint64
	confirmations uint64
	explorerBase  string

	mu    sync.Mutex
	busy  bool
	state SubmitState
}

func NewDepositService(
	gateway ChainGateway,
	store SessionStore,
	notifier Notifier,
	logger *logging.Logger,
	chainID uint64,
	confirmations uint64,
	explorerBase string,
) *DepositService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DepositService{
		gateway:       gateway,
		store:         store,
		notifier:      notifier,
		logger:        logger.Named("deposit"),
		chainID:       chainID,
		confirmations: confirmations,
		explorerBase:  explorerBase,
		state:         SubmitState{Step: StepIdle},
	}
}

// State returns the current sequence snapshot.
func (s *DepositService) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit runs the full approval/deposit sequence. A Submit while a
// sequence is in flight is a no-op returning ErrBusy with the live
// state. The sequence is strictly ordered: network check, umbrella
// operator approval, per-asset approvals, then the deposit itself.
func (s *DepositService) Submit(ctx context.Context, roundID uint64, entries []DepositEntry, ethValue *big.Int) (SubmitState, error) {
	if err := validateSubmission(roundID, entries, ethValue); err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	if s.busy {
		state := s.state
		s.mu.Unlock()
		return state, ErrBusy
	}
	s.busy = true
	s.state = SubmitState{Step: StepSwitchingNetwork}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if err := s.gateway.EnsureChain(ctx, s.chainID); err != nil {
		return s.fail(ctx, StepSwitchingNetwork, err)
	}

	s.setStep(StepGrantingOperator, 0, 0)
	if err := s.ensureOperatorApproval(ctx); err != nil {
		return s.fail(ctx, StepGrantingOperator, err)
	}

	assets := nonETHEntries(entries)
	for i, entry := range assets {
		s.setStep(StepApprovingAssets, i+1, len(assets))
		if err := s.ensureAssetApproval(ctx, entry); err != nil {
			return s.fail(ctx, StepApprovingAssets, err)
		}
	}

	s.setStep(StepDepositing, 0, 0)
	tx, err := s.gateway.Deposit(ctx, roundID, withETHPlaceholder(entries, ethValue), ethValue)
	if err != nil {
		return s.fail(ctx, StepDepositing, err)
	}
	if err := s.gateway.WaitForConfirmations(ctx, tx, s.confirmations); err != nil {
		return s.fail(ctx, StepDepositing, err)
	}

	s.mu.Lock()
	s.state = SubmitState{Step: StepSucceeded, TxHash: tx.Hash}
	state := s.state
	s.mu.Unlock()

	if s.store != nil {
		s.store.ClearSelection()
	}
	s.notifySuccess(ctx, roundID, tx.Hash)
	s.logger.Info(ctx, "deposit confirmed", "round_id", roundID, "tx_hash", tx.Hash)
	return state, nil
}

func (s *DepositService) ensureOperatorApproval(ctx context.Context) error {
	approved, err := s.gateway.HasApprovedOperator(ctx, s.gateway.Account())
	if err != nil {
		return err
	}
	if approved {
		return nil
	}
	tx, err := s.gateway.GrantOperatorApproval(ctx)
	if err != nil {
		return err
	}
	return s.gateway.WaitForConfirmations(ctx, tx, s.confirmations)
}

// ensureAssetApproval requests an approval only when the current
// allowance or approval flag is insufficient.
func (s *DepositService) ensureAssetApproval(ctx context.Context, entry DepositEntry) error {
	account := s.gateway.Account()

	switch entry.TokenType {
	case round.TokenERC20:
		needed := sum(entry.AmountsOrIDs)
		allowance, err := s.gateway.Allowance(ctx, entry.TokenAddress, account)
		if err != nil {
			return err
		}
		if allowance != nil && allowance.Cmp(needed) >= 0 {
			return nil
		}
		tx, err := s.gateway.ApproveERC20(ctx, entry.TokenAddress, needed)
		if err != nil {
			return err
		}
		return s.gateway.WaitForConfirmations(ctx, tx, s.confirmations)

	case round.TokenERC721:
		approved, err := s.gateway.IsApprovedForAll(ctx, entry.TokenAddress, account)
		if err != nil {
			return err
		}
		if approved {
			return nil
		}
		tx, err := s.gateway.SetApprovalForAll(ctx, entry.TokenAddress)
		if err != nil {
			return err
		}
		return s.gateway.WaitForConfirmations(ctx, tx, s.confirmations)

	default:
		return fmt.Errorf("%w: unexpected token type %q in approval step", ErrInvalidInput, entry.TokenType)
	}
}

func (s *DepositService) setStep(step SubmitStep, assetIndex, assetCount int) {
	s.mu.Lock()
	s.state = SubmitState{Step: step, AssetIndex: assetIndex, AssetCount: assetCount}
	s.mu.Unlock()
}

func (s *DepositService) fail(ctx context.Context, step SubmitStep, err error) (SubmitState, error) {
	cause := ParseChainError(err)
	s.mu.Lock()
	s.state = SubmitState{Step: StepFailed, FailedStep: step, Cause: cause}
	state := s.state
	s.mu.Unlock()

	s.logger.Warn(ctx, "deposit sequence failed", "step", string(step), "cause", cause.Error())
	return state, cause
}

func (s *DepositService) notifySuccess(ctx context.Context, roundID uint64, txHash string) {
	if s.notifier == nil {
		return
	}
	nid, err := id.New()
	if err != nil {
		nid = txHash
	}
	s.notifier.Notify(ctx, Notification{
		ID:          nid,
		Kind:        "deposit_confirmed",
		Message:     fmt.Sprintf("Deposit to round %d confirmed", roundID),
		TxHash:      txHash,
		ExplorerURL: s.explorerBase + "/tx/" + txHash,
	})
}

func validateSubmission(roundID uint64, entries []DepositEntry, ethValue *big.Int) error {
	if roundID == 0 {
		return fmt.Errorf("%w: round id is required", ErrInvalidInput)
	}
	hasValue := ethValue != nil && ethValue.Sign() > 0
	if len(entries) == 0 && !hasValue {
		return fmt.Errorf("%w: nothing selected for deposit", ErrInvalidInput)
	}
	for _, e := range entries {
		switch e.TokenType {
		case round.TokenETH:
		case round.TokenERC20:
			if e.TokenAddress == "" || sum(e.AmountsOrIDs).Sign() <= 0 {
				return fmt.Errorf("%w: erc20 entry needs a contract and a positive amount", ErrInvalidInput)
			}
		case round.TokenERC721:
			if e.TokenAddress == "" || len(e.AmountsOrIDs) == 0 {
				return fmt.Errorf("%w: erc721 entry needs a contract and token ids", ErrInvalidInput)
			}
			if e.Attestation == nil || !e.Attestation.Valid() {
				return fmt.Errorf("%w: erc721 entry needs a floor price attestation", ErrInvalidInput)
			}
		default:
			return fmt.Errorf("%w: unknown token type %q", ErrInvalidInput, e.TokenType)
		}
	}
	return nil
}

func nonETHEntries(entries []DepositEntry) []DepositEntry {
	out := make([]DepositEntry, 0, len(entries))
	for _, e := range entries {
		if e.TokenType != round.TokenETH {
			out = append(out, e)
		}
	}
	return out
}

// withETHPlaceholder guarantees exactly one leading ETH entry when the
// transaction carries value, matching the calldata shape the contract
// expects.
func withETHPlaceholder(entries []DepositEntry, ethValue *big.Int) []DepositEntry {
	rest := nonETHEntries(entries)
	if ethValue == nil || ethValue.Sign() <= 0 {
		return rest
	}
	out := make([]DepositEntry, 0, len(rest)+1)
	out = append(out, DepositEntry{TokenType: round.TokenETH})
	return append(out, rest...)
}

func sum(values []*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		if v != nil {
			total.Add(total, v)
		}
	}
	return total
}
