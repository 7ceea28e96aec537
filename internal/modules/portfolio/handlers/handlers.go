// Package handlers provides HTTP handlers for portfolio operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetSummary handles GET /api/portfolio/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio summary")
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrZeroValuePortfolio) {
			status = http.StatusConflict
		}
		http.Error(w, "Failed to build portfolio summary", status)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(summary))
}

// HandleGetHoldings handles GET /api/portfolio/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.HoldingDetails()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build holdings report")
		http.Error(w, "Failed to build holdings report", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(details))
}

// TradeRequest is the body of POST /api/portfolio/trades.
type TradeRequest struct {
	Date     string  `json:"date"`
	Side     string  `json:"side"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// HandlePostTrade handles POST /api/portfolio/trades
func (h *Handler) HandlePostTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	side, ok := domain.ParseTradeSide(req.Side)
	if !ok {
		http.Error(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	if err := h.service.ExecuteTrade(req.Date, side, req.Symbol, req.Quantity, req.Price); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownPosition), errors.Is(err, domain.ErrInsufficientPosition):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Trade execution failed")
			http.Error(w, "Trade execution failed", http.StatusInternalServerError)
		}
		return
	}

	summary, err := h.service.Summary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build post-trade summary")
		http.Error(w, "Trade applied but summary failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope(summary))
}

// HandleGetHasStock handles GET /api/portfolio/holdings/{symbol}/can-sell
func (h *Handler) HandleGetHasStock(w http.ResponseWriter, r *http.Request, symbol string, quantity float64) {
	ok, err := h.service.HasStock(symbol, quantity)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to check holding")
		http.Error(w, "Failed to check holding", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol":   symbol,
		"quantity": quantity,
		"can_sell": ok,
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
