package httpapi

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/nftearth/fortune/internal/domain/selection"
	"github.com/nftearth/fortune/internal/usecase"
)

func (h *Handler) GetSelectionSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSelectionSummary")
	defer span.End()

	summary, err := h.selectionService.Summary(ctx)
	if err != nil {
		h.logger.Warn(ctx, "selection summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, selectionSummaryToDTO(ctx, summary))
}

func (h *Handler) SetSelectionETH(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSelectionETH")
	defer span.End()

	var req setETHRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.selectionService.SetETH(req.Amount)
	h.writeSelectionSummary(ctx, w)
}

func (h *Handler) AddSelectionToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddSelectionToken")
	defer span.End()

	var req addTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.selectionService.AddFungible(ctx, req.Contract, req.Amount); err != nil {
		h.logger.Warn(ctx, "add token to selection failed", "contract", req.Contract, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeSelectionSummary(ctx, w)
}

func (h *Handler) ToggleSelectionNFT(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleSelectionNFT")
	defer span.End()

	var req toggleNFTRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tokenID, ok := new(big.Int).SetString(strings.TrimSpace(req.TokenID), 10)
	if !ok || tokenID.Sign() < 0 {
		writeError(ctx, w, fmt.Errorf("%w: invalid token id %q", usecase.ErrInvalidInput, req.TokenID))
		return
	}

	if err := h.selectionService.ToggleNFT(ctx, req.Contract, tokenID); err != nil {
		h.logger.Warn(ctx, "toggle nft failed", "contract", req.Contract, "token_id", req.TokenID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeSelectionSummary(ctx, w)
}

func (h *Handler) RemoveSelectionEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveSelectionEntry")
	defer span.End()

	contract := strings.TrimSpace(r.PathValue("contract"))
	if contract == "" {
		writeError(ctx, w, fmt.Errorf("%w: contract is required", usecase.ErrInvalidInput))
		return
	}

	h.selectionService.Remove(contract)
	h.writeSelectionSummary(ctx, w)
}

func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearSelection")
	defer span.End()

	h.selectionService.Clear()
	h.writeSelectionSummary(ctx, w)
}

func (h *Handler) writeSelectionSummary(ctx context.Context, w http.ResponseWriter) {
	summary, err := h.selectionService.Summary(ctx)
	if err != nil {
		h.logger.Warn(ctx, "selection summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, selectionSummaryToDTO(ctx, summary))
}

type setETHRequest struct {
	Amount string `json:"amount"`
}

type addTokenRequest struct {
	Contract string `json:"contract" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
}

type toggleNFTRequest struct {
	Contract string `json:"contract" validate:"required"`
	TokenID  string `json:"tokenId" validate:"required"`
}

type selectionItemDTO struct {
	Contract string   `json:"contract"`
	Fungible bool     `json:"fungible"`
	Amount   string   `json:"amount,omitempty"`
	TokenIDs []string `json:"tokenIds,omitempty"`
}

type selectionSummaryDTO struct {
	Items      []selectionItemDTO `json:"items"`
	TotalValue string             `json:"totalValue"`
	Entries    uint64             `json:"entries"`
	CanSubmit  bool               `json:"canSubmit"`
}

func selectionSummaryToDTO(ctx context.Context, summary usecase.SelectionSummary) selectionSummaryDTO {
	ctx, span := startSpan(ctx, "httpapi.selectionSummaryToDTO")
	defer span.End()

	items := make([]selectionItemDTO, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, selectionItemToDTO(ctx, item))
	}

	return selectionSummaryDTO{
		Items:      items,
		TotalValue: bigString(summary.TotalValue),
		Entries:    summary.Entries,
		CanSubmit:  summary.CanSubmit,
	}
}

func selectionItemToDTO(ctx context.Context, item selection.Item) selectionItemDTO {
	ctx, span := startSpan(ctx, "httpapi.selectionItemToDTO")
	defer span.End()

	tokenIDs := make([]string, 0, len(item.TokenIDs))
	for _, id := range item.TokenIDs {
		tokenIDs = append(tokenIDs, id.String())
	}

	return selectionItemDTO{
		Contract: item.Contract,
		Fungible: item.Fungible,
		Amount:   bigString(item.Amount),
		TokenIDs: tokenIDs,
	}
}
