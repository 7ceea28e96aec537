// Package handlers provides HTTP handlers for transaction ledger operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/ledger"
)

// Handler handles ledger HTTP requests.
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler.
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetTransactions handles GET /api/ledger/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Transactions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions")
		http.Error(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	h.writeJSON(w, http.StatusOK, envelope(records))
}

// TransactionRequest is the body of POST /api/ledger/transactions.
type TransactionRequest struct {
	Date     string  `json:"date"`
	Side     string  `json:"side"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// HandlePostTransaction handles POST /api/ledger/transactions
func (h *Handler) HandlePostTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	side, ok := domain.ParseTradeSide(req.Side)
	if !ok {
		http.Error(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	rec := domain.TransactionRecord{
		Date:     req.Date,
		Side:     side,
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
	}
	if err := h.service.Append(rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope(rec))
}

// HandleGetReplay handles GET /api/ledger/replay?include_holdings=true
func (h *Handler) HandleGetReplay(w http.ResponseWriter, r *http.Request) {
	includeHoldings := r.URL.Query().Get("include_holdings") == "true"
	result, err := h.service.Replay(includeHoldings)
	if err != nil {
		h.log.Error().Err(err).Msg("Ledger replay failed")
		http.Error(w, "Ledger replay failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(result))
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
