package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/summary", h.HandleGetSummary)
		r.Get("/holdings", h.HandleGetHoldings)
		r.Post("/trades", h.HandlePostTrade)
		r.Get("/holdings/{symbol}/can-sell", func(w http.ResponseWriter, r *http.Request) {
			symbol := chi.URLParam(r, "symbol")
			quantity, err := strconv.ParseFloat(r.URL.Query().Get("quantity"), 64)
			if err != nil || quantity <= 0 {
				http.Error(w, "quantity must be a positive number", http.StatusBadRequest)
				return
			}
			h.HandleGetHasStock(w, r, symbol, quantity)
		})
	})
}
