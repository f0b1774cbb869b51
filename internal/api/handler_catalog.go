package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/casino-wallet/internal/repos/users"
	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
)

// The catalog below is static operator-console data; games are hosted
// by the provider, we only reference them.

type game struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Category int    `json:"category"`
	Type     string `json:"type"`
}

var games = []game{
	{1, "Book of Ra", "HABANERO", 51, "slot"},
	{2, "Starburst", "NETENT", 52, "slot"},
	{3, "Blackjack", "HABANERO", 53, "table"},
	{4, "Roulette", "NETENT", 53, "table"},
	{5, "Poker", "HABANERO", 53, "table"},
	{6, "Baccarat", "NETENT", 53, "table"},
	{7, "Mega Moolah", "HABANERO", 51, "slot"},
	{8, "Gonzo's Quest", "NETENT", 52, "slot"},
	{9, "Dead or Alive", "HABANERO", 51, "slot"},
	{10, "Immortal Romance", "NETENT", 52, "slot"},
}

type gameProvider struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GamesCount int    `json:"games_count"`
	Categories []int  `json:"categories"`
}

var gameProviders = []gameProvider{
	{"HABANERO", "Habanero", 5, []int{51, 53}},
	{"NETENT", "NetEnt", 5, []int{52, 53}},
}

type category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var categories = []category{
	{51, "Slots", "Slot machine games"},
	{52, "Video Slots", "Video slot games"},
	{53, "Table Games", "Card and table games"},
	{54, "Live Casino", "Live dealer games"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeData(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
		"total":   total,
	})
}

func parseUserIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "userID")

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid userID")
	}

	return id, nil
}

func (h *HandlerProvider) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HandlerProvider) Stats(w http.ResponseWriter, r *http.Request) {
	txCount, err := h.svc.TransactionCount(r.Context())
	if err != nil {
		slog.Error("stats: count transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	userCount, err := h.svc.UserCount(r.Context())
	if err != nil {
		slog.Error("stats: count users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]int64{
			"total_users":        userCount,
			"total_transactions": txCount,
		},
	})
}

func (h *HandlerProvider) ListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filtered := make([]game, 0, len(games))

	for _, g := range games {
		if p := q.Get("provider"); p != "" && !strings.EqualFold(g.Provider, p) {
			continue
		}

		if c := q.Get("category"); c != "" {
			n, err := strconv.Atoi(c)
			if err != nil || g.Category != n {
				continue
			}
		}

		filtered = append(filtered, g)
	}

	limit := len(filtered)

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n >= 0 && n < limit {
			limit = n
		}
	}

	writeData(w, filtered[:limit], len(filtered))
}

func (h *HandlerProvider) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")

		return
	}

	for _, g := range games {
		if g.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": g})

			return
		}
	}

	writeError(w, http.StatusNotFound, "game not found")
}

func (h *HandlerProvider) ListProviders(w http.ResponseWriter, _ *http.Request) {
	writeData(w, gameProviders, len(gameProviders))
}

func (h *HandlerProvider) ListCategories(w http.ResponseWriter, _ *http.Request) {
	writeData(w, categories, len(categories))
}

func (h *HandlerProvider) UserBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userID in path")

		return
	}

	balance, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")

			return
		}

		slog.Error("get user balance", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"user_id": userID,
			"balance": money(balance),
		},
	})
}

type transactionView struct {
	TransactionID string      `json:"transaction_id"`
	RoundID       string      `json:"round_id"`
	Type          string      `json:"type"`
	BetAmount     json.Number `json:"bet_amount"`
	WinAmount     json.Number `json:"win_amount"`
	Currency      string      `json:"currency"`
	Status        string      `json:"status"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

func toView(rec wallettx.Record) transactionView {
	return transactionView{
		TransactionID: rec.TransactionID,
		RoundID:       rec.RoundID,
		Type:          string(rec.Type),
		BetAmount:     money(rec.BetAmount),
		WinAmount:     money(rec.WinAmount),
		Currency:      rec.Currency,
		Status:        string(rec.Status),
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *HandlerProvider) UserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userID in path")

		return
	}

	recs, err := h.svc.Transactions(r.Context(), userID)
	if err != nil {
		slog.Error("list user transactions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	views := make([]transactionView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, toView(rec))
	}

	writeData(w, views, len(views))
}

func (h *HandlerProvider) UserWinnings(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userID in path")

		return
	}

	totals, err := h.svc.Winnings(r.Context(), userID)
	if err != nil {
		slog.Error("sum user winnings", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"user_id":        userID,
			"total_bets":     money(totals.TotalBets),
			"total_winnings": money(totals.TotalWinnings),
			"net_profit":     money(totals.TotalWinnings.Sub(totals.TotalBets)),
		},
	})
}

func (h *HandlerProvider) TransactionCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.TransactionCount(r.Context())
	if err != nil {
		slog.Error("count transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]int64{"count": n},
	})
}
