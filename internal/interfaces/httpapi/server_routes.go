package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerRoundRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/rounds", handler.ListRoundHistory)
	mux.HandleFunc("GET /v1/rounds/current", handler.GetCurrentRound)
	mux.HandleFunc("GET /v1/rounds/current/players", handler.ListCurrentPlayers)
	mux.HandleFunc("GET /v1/rounds/current/prizes", handler.ListCurrentPrizes)
	mux.HandleFunc("GET /v1/rounds/current/phase", handler.GetCurrentPhase)
	mux.HandleFunc("GET /v1/rounds/{roundID}", handler.GetRound)
	mux.HandleFunc("GET /v1/rounds/{roundID}/winner-target", handler.GetWinnerTarget)
	mux.HandleFunc("GET /v1/currencies", handler.ListAllowedCurrencies)
	mux.HandleFunc("GET /v1/notifications", handler.ListNotifications)
	mux.HandleFunc("PUT /v1/settings/sound", handler.SetSoundEnabled)
	mux.HandleFunc("GET /v1/settings/sound", handler.GetSoundEnabled)
}

func registerSelectionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/selection", handler.GetSelectionSummary)
	mux.HandleFunc("PUT /v1/selection/eth", handler.SetSelectionETH)
	mux.HandleFunc("POST /v1/selection/tokens", handler.AddSelectionToken)
	mux.HandleFunc("POST /v1/selection/nfts/toggle", handler.ToggleSelectionNFT)
	mux.HandleFunc("DELETE /v1/selection/{contract}", handler.RemoveSelectionEntry)
	mux.HandleFunc("DELETE /v1/selection", handler.ClearSelection)
}

func registerTransactionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/deposits", handler.SubmitDeposit)
	mux.HandleFunc("GET /v1/deposits/state", handler.GetDepositState)
	mux.HandleFunc("GET /v1/users/{address}/claimable", handler.ListClaimable)
	mux.HandleFunc("GET /v1/users/{address}/won-rounds", handler.ListWonRounds)
	mux.HandleFunc("POST /v1/withdrawals", handler.WithdrawDeposits)
	mux.HandleFunc("POST /v1/claims", handler.ClaimPrizes)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshJob)))
}
