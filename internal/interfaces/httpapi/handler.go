package httpapi

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/platform/logging"
	"github.com/nftearth/fortune/internal/usecase"
)

// NotificationSource serves recent transaction notifications back to
// polling clients.
type NotificationSource interface {
	Recent(limit int) []usecase.Notification
}

type Handler struct {
	roundService     *usecase.RoundService
	selectionService *usecase.SelectionService
	depositService   *usecase.DepositService
	claimService     *usecase.ClaimService
	notifications    NotificationSource
	store            usecase.SessionStore
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	roundService *usecase.RoundService,
	selectionService *usecase.SelectionService,
	depositService *usecase.DepositService,
	claimService *usecase.ClaimService,
	notifications NotificationSource,
	store usecase.SessionStore,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		roundService:     roundService,
		selectionService: selectionService,
		depositService:   depositService,
		claimService:     claimService,
		notifications:    notifications,
		store:            store,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetCurrentRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentRound")
	defer span.End()

	current, err := h.roundService.Current(ctx)
	if err != nil {
		h.logger.Warn(ctx, "get current round failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(ctx, current))
}

func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRound")
	defer span.End()

	roundID, err := parseRoundID(r.PathValue("roundID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.roundService.ByID(ctx, roundID)
	if err != nil {
		h.logger.Warn(ctx, "get round failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(ctx, item))
}

func (h *Handler) ListRoundHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRoundHistory")
	defer span.End()

	first, err := parseQueryInt(r, "first", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	skip, err := parseQueryInt(r, "skip", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rounds, err := h.roundService.History(ctx, first, skip)
	if err != nil {
		h.logger.Warn(ctx, "list round history failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]roundDTO, 0, len(rounds))
	for _, item := range rounds {
		items = append(items, roundToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListCurrentPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCurrentPlayers")
	defer span.End()

	current, ok := h.store.CurrentRound()
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no round loaded yet", usecase.ErrNotFound))
		return
	}

	players := h.store.Players()
	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"roundId": current.ID,
		"players": items,
	})
}

func (h *Handler) ListCurrentPrizes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCurrentPrizes")
	defer span.End()

	current, ok := h.store.CurrentRound()
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no round loaded yet", usecase.ErrNotFound))
		return
	}

	prizes := h.store.Prizes()
	items := make([]prizeDTO, 0, len(prizes))
	for _, p := range prizes {
		items = append(items, prizeToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"roundId": current.ID,
		"prizes":  items,
	})
}

func (h *Handler) GetCurrentPhase(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentPhase")
	defer span.End()

	current, countdown, err := h.roundService.CurrentPhase(ctx)
	if err != nil {
		h.logger.Warn(ctx, "get current phase failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, phaseDTO{
		Phase:   string(current),
		Minutes: countdown.Minutes,
		Seconds: countdown.Seconds,
		Expired: countdown.Expired(),
	})
}

func (h *Handler) GetWinnerTarget(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWinnerTarget")
	defer span.End()

	roundID, err := parseRoundID(r.PathValue("roundID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	target, err := h.roundService.WinnerTarget(ctx, roundID)
	if err != nil {
		h.logger.Warn(ctx, "get winner target failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, winnerTargetDTO{
		Index: target.Index,
		Angle: target.Angle,
	})
}

func (h *Handler) ListAllowedCurrencies(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAllowedCurrencies")
	defer span.End()

	currencies, err := h.roundService.AllowedCurrencies(ctx)
	if err != nil {
		h.logger.Warn(ctx, "list currencies failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]currencyDTO, 0, len(currencies))
	for _, c := range currencies {
		items = append(items, currencyDTO{
			Address:  c.Address,
			Symbol:   c.Symbol,
			Decimals: c.Decimals,
			Allowed:  c.Allowed,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListNotifications")
	defer span.End()

	limit, err := parseQueryInt(r, "limit", 10)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]notificationDTO, 0, limit)
	for _, n := range h.notifications.Recent(limit) {
		items = append(items, notificationDTO{
			ID:          n.ID,
			Kind:        n.Kind,
			Message:     n.Message,
			TxHash:      n.TxHash,
			ExplorerURL: n.ExplorerURL,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetSoundEnabled(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSoundEnabled")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, soundDTO{Enabled: h.store.SoundEnabled()})
}

func (h *Handler) SetSoundEnabled(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSoundEnabled")
	defer span.End()

	var req soundDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.store.SetSoundEnabled(req.Enabled)
	writeSuccess(ctx, w, http.StatusOK, soundDTO{Enabled: h.store.SoundEnabled()})
}

func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if err := h.roundService.Refresh(ctx); err != nil {
		h.logger.Warn(ctx, "refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseRoundID(raw string) (uint64, error) {
	roundID, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || roundID == 0 {
		return 0, fmt.Errorf("%w: invalid round id %q", usecase.ErrInvalidInput, raw)
	}
	return roundID, nil
}

func parseQueryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, key, raw)
	}
	return value, nil
}

type roundDTO struct {
	ID                          uint64       `json:"id"`
	Status                      string       `json:"status"`
	CutoffTime                  int64        `json:"cutoffTime"`
	Duration                    int64        `json:"duration"`
	ValuePerEntry               string       `json:"valuePerEntry"`
	NumberOfEntries             uint64       `json:"numberOfEntries"`
	NumberOfParticipants        uint64       `json:"numberOfParticipants"`
	MaximumNumberOfDeposits     uint64       `json:"maximumNumberOfDeposits"`
	MaximumNumberOfParticipants uint64       `json:"maximumNumberOfParticipants"`
	Winner                      string       `json:"winner,omitempty"`
	DrawnHash                   string       `json:"drawnHash,omitempty"`
	ProtocolFeeBp               uint64       `json:"protocolFeeBp"`
	Deposits                    []depositDTO `json:"deposits"`
}

type depositDTO struct {
	ID           string `json:"id"`
	Depositor    string `json:"depositor"`
	TokenAddress string `json:"tokenAddress,omitempty"`
	TokenAmount  string `json:"tokenAmount,omitempty"`
	TokenID      string `json:"tokenId,omitempty"`
	TokenType    string `json:"tokenType"`
	EntriesCount uint64 `json:"entriesCount"`
	Indice       uint64 `json:"indice"`
	Claimed      bool   `json:"claimed"`
}

type playerDTO struct {
	Address   string  `json:"address"`
	Entries   uint64  `json:"entries"`
	Value     string  `json:"value"`
	WinChance float64 `json:"winChance"`
}

type prizeShareDTO struct {
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
}

type prizeDTO struct {
	TokenType    string          `json:"tokenType"`
	TokenAddress string          `json:"tokenAddress"`
	TokenID      string          `json:"tokenId,omitempty"`
	Amount       string          `json:"amount"`
	Entries      uint64          `json:"entries"`
	Shares       []prizeShareDTO `json:"shares"`
}

type phaseDTO struct {
	Phase   string `json:"phase"`
	Minutes int64  `json:"minutes"`
	Seconds int64  `json:"seconds"`
	Expired bool   `json:"expired"`
}

type winnerTargetDTO struct {
	Index int     `json:"index"`
	Angle float64 `json:"angle"`
}

type currencyDTO struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Allowed  bool   `json:"allowed"`
}

type notificationDTO struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	TxHash      string `json:"txHash,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

type soundDTO struct {
	Enabled bool `json:"enabled"`
}

func roundToDTO(ctx context.Context, v round.Round) roundDTO {
	ctx, span := startSpan(ctx, "httpapi.roundToDTO")
	defer span.End()

	deposits := make([]depositDTO, 0, len(v.Deposits))
	for _, d := range v.Deposits {
		deposits = append(deposits, depositDTO{
			ID:           d.ID,
			Depositor:    d.Depositor,
			TokenAddress: d.TokenAddress,
			TokenAmount:  bigString(d.TokenAmount),
			TokenID:      bigString(d.TokenID),
			TokenType:    string(d.TokenType),
			EntriesCount: d.EntriesCount,
			Indice:       d.Indice,
			Claimed:      d.Claimed,
		})
	}

	return roundDTO{
		ID:                          v.ID,
		Status:                      string(v.Status),
		CutoffTime:                  v.CutoffTime,
		Duration:                    v.Duration,
		ValuePerEntry:               bigString(v.ValuePerEntry),
		NumberOfEntries:             v.NumberOfEntries,
		NumberOfParticipants:        v.NumberOfParticipants,
		MaximumNumberOfDeposits:     v.MaximumNumberOfDeposits,
		MaximumNumberOfParticipants: v.MaximumNumberOfParticipants,
		Winner:                      v.Winner,
		DrawnHash:                   v.DrawnHash,
		ProtocolFeeBp:               v.ProtocolFeeBp,
		Deposits:                    deposits,
	}
}

func playerToDTO(ctx context.Context, v round.Player) playerDTO {
	ctx, span := startSpan(ctx, "httpapi.playerToDTO")
	defer span.End()

	return playerDTO{
		Address:   v.Address,
		Entries:   v.Entries,
		Value:     bigString(v.Value),
		WinChance: v.WinChance,
	}
}

func prizeToDTO(ctx context.Context, v round.Prize) prizeDTO {
	ctx, span := startSpan(ctx, "httpapi.prizeToDTO")
	defer span.End()

	shares := make([]prizeShareDTO, 0, len(v.Shares))
	for _, s := range v.Shares {
		shares = append(shares, prizeShareDTO{
			Depositor: s.Depositor,
			Amount:    bigString(s.Amount),
		})
	}

	return prizeDTO{
		TokenType:    string(v.TokenType),
		TokenAddress: v.TokenAddress,
		TokenID:      bigString(v.TokenID),
		Amount:       bigString(v.Amount),
		Entries:      v.Entries,
		Shares:       shares,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
