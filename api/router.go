package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the API router with all endpoints registered.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/accounts/{account}", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Post("/balance", h.PostAdminSet)
		r.Post("/adjust", h.PostAdminAdjust)
		r.Get("/history", h.GetHistory)
		r.Get("/stats", h.GetStats)
	})

	r.Post("/transfers", h.PostTransfer)
	r.Get("/tax/total", h.GetTaxTotal)

	r.Route("/wagers", func(r chi.Router) {
		r.Post("/", h.PostWager)
		r.Get("/{wagerID}", h.GetWager)
		r.Post("/{wagerID}/accept", h.PostWagerAccept)
		r.Post("/{wagerID}/decline", h.PostWagerDecline)
	})

	r.Route("/markets", func(r chi.Router) {
		r.Post("/", h.PostMarket)
		r.Get("/{marketID}", h.GetMarket)
		r.Post("/{marketID}/options", h.PostMarketOption)
		r.Post("/{marketID}/open", h.PostMarketOpen)
		r.Post("/{marketID}/bets", h.PostMarketBet)
		r.Post("/{marketID}/resolve", h.PostMarketResolve)
		r.Post("/{marketID}/cancel", h.PostMarketCancel)
	})

	return r
}
