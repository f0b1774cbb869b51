package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/casino-wallet/internal/services/wallet"
)

// NewRouter constructs the API routes: the single provider callback
// endpoint plus the read-only catalog/ops surface.
func NewRouter(svc *wallet.Service, providerKey string) http.Handler {
	h := NewHandler(svc, providerKey)
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(recoverer)

	// Provider wallet callbacks, cmd-discriminated.
	r.Post("/callback", h.Callback)

	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	// Static catalog, kept for the operator console.
	r.Get("/games", h.ListGames)
	r.Get("/games/{gameID}", h.GetGame)
	r.Get("/providers", h.ListProviders)
	r.Get("/categories", h.ListCategories)

	r.Get("/users/{userID}/balance", h.UserBalance)
	r.Get("/transactions/count", h.TransactionCount)
	r.Get("/transactions/user/{userID}", h.UserTransactions)
	r.Get("/transactions/user/{userID}/winnings", h.UserWinnings)

	return r
}
