package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/nftearth/fortune/internal/usecase"
)

func (h *Handler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitDeposit")
	defer span.End()

	var req submitDepositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, ethValue, err := h.selectionService.Entries(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.depositService.Submit(ctx, req.RoundID, entries, ethValue)
	if err != nil {
		h.logger.Warn(ctx, "deposit submit failed", "round_id", req.RoundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submitStateToDTO(ctx, state))
}

func (h *Handler) GetDepositState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDepositState")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, submitStateToDTO(ctx, h.depositService.State()))
}

func (h *Handler) ListClaimable(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClaimable")
	defer span.End()

	address := strings.TrimSpace(r.PathValue("address"))
	claimable, err := h.claimService.ClaimableFor(ctx, address)
	if err != nil {
		h.logger.Warn(ctx, "list claimable failed", "address", address, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]claimableDTO, 0, len(claimable))
	for _, c := range claimable {
		items = append(items, claimableDTO{
			RoundID: c.RoundID,
			Indices: c.Indices,
			Value:   bigString(c.Value),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListWonRounds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWonRounds")
	defer span.End()

	address := strings.TrimSpace(r.PathValue("address"))
	rounds, err := h.claimService.WonRounds(ctx, address)
	if err != nil {
		h.logger.Warn(ctx, "list won rounds failed", "address", address, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]roundDTO, 0, len(rounds))
	for _, item := range rounds {
		items = append(items, roundToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) WithdrawDeposits(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawDeposits")
	defer span.End()

	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tx, err := h.claimService.Withdraw(ctx, req.Address, req.RoundID)
	if err != nil {
		h.logger.Warn(ctx, "withdraw failed", "round_id", req.RoundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, txRefDTO{Hash: tx.Hash})
}

func (h *Handler) ClaimPrizes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimPrizes")
	defer span.End()

	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	claims := make([]usecase.PrizeClaim, 0, len(req.Claims))
	for _, c := range req.Claims {
		claims = append(claims, usecase.PrizeClaim{
			RoundID:      c.RoundID,
			PrizeIndices: c.PrizeIndices,
		})
	}

	tx, err := h.claimService.Claim(ctx, claims)
	if err != nil {
		h.logger.Warn(ctx, "claim failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, txRefDTO{Hash: tx.Hash})
}

type submitDepositRequest struct {
	RoundID uint64 `json:"roundId" validate:"required,gt=0"`
}

type withdrawRequest struct {
	Address string `json:"address" validate:"required"`
	RoundID uint64 `json:"roundId" validate:"required,gt=0"`
}

type claimRequest struct {
	Claims []claimEntryRequest `json:"claims" validate:"required,min=1,dive"`
}

type claimEntryRequest struct {
	RoundID      uint64   `json:"roundId" validate:"required,gt=0"`
	PrizeIndices []uint64 `json:"prizeIndices" validate:"required,min=1"`
}

type claimableDTO struct {
	RoundID uint64   `json:"roundId"`
	Indices []uint64 `json:"indices"`
	Value   string   `json:"value"`
}

type txRefDTO struct {
	Hash string `json:"hash"`
}

type submitStateDTO struct {
	Step       string         `json:"step"`
	AssetIndex int            `json:"assetIndex"`
	AssetCount int            `json:"assetCount"`
	FailedStep string         `json:"failedStep,omitempty"`
	Cause      *chainErrorDTO `json:"cause,omitempty"`
	TxHash     string         `json:"txHash,omitempty"`
}

type chainErrorDTO struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func submitStateToDTO(ctx context.Context, state usecase.SubmitState) submitStateDTO {
	ctx, span := startSpan(ctx, "httpapi.submitStateToDTO")
	defer span.End()

	out := submitStateDTO{
		Step:       string(state.Step),
		AssetIndex: state.AssetIndex,
		AssetCount: state.AssetCount,
		FailedStep: string(state.FailedStep),
		TxHash:     state.TxHash,
	}
	if state.Cause != nil {
		out.Cause = &chainErrorDTO{
			Name:    state.Cause.Name,
			Message: state.Cause.Message,
		}
	}
	return out
}
