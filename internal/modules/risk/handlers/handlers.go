// Package handlers provides HTTP handlers for risk metrics operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
)

// Handler handles risk metrics HTTP requests.
type Handler struct {
	service           *portfolio.Service
	defaultConfidence float64
	log               zerolog.Logger
}

// NewHandler creates a new risk metrics handler. defaultConfidence is the
// configured tail probability used when a request does not pass one.
func NewHandler(service *portfolio.Service, defaultConfidence float64, log zerolog.Logger) *Handler {
	if defaultConfidence <= 0 || defaultConfidence >= 1 {
		defaultConfidence = portfolio.DefaultConfidenceLevel
	}
	return &Handler{
		service:           service,
		defaultConfidence: defaultConfidence,
		log:               log.With().Str("handler", "risk").Logger(),
	}
}

// HandleGetMetrics handles GET /api/risk/metrics?confidence_level=0.05
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	cl := h.defaultConfidence
	if raw := r.URL.Query().Get("confidence_level"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			http.Error(w, "confidence_level must be between 0 and 1", http.StatusBadRequest)
			return
		}
		cl = parsed
	}

	report, err := h.service.Risk(cl)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build risk report")
		http.Error(w, "Failed to build risk report", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(report))
}

// HandleGetCovariance handles GET /api/risk/covariance
func (h *Handler) HandleGetCovariance(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.service.Covariance()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build covariance matrix")
		http.Error(w, "Failed to build covariance matrix", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(matrix))
}

// HandleGetCorrelation handles GET /api/risk/correlation
func (h *Handler) HandleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.service.Correlation()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build correlation matrix")
		http.Error(w, "Failed to build correlation matrix", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(matrix))
}

// HandleGetContributions handles GET /api/risk/contributions
func (h *Handler) HandleGetContributions(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Contributions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build risk contributions")
		http.Error(w, "Failed to build risk contributions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(report))
}

// HandleGetImpact handles GET /api/risk/impact/{symbol}
func (h *Handler) HandleGetImpact(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	report, err := h.service.Impact(symbol)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPosition) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build impact report")
		http.Error(w, "Failed to build impact report", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(report))
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
