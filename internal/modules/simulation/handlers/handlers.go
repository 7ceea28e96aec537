// Package handlers provides HTTP handlers for Monte Carlo simulation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/modules/simulation"
)

// Handler handles simulation HTTP requests.
type Handler struct {
	service *simulation.Service
	log     zerolog.Logger
}

// NewHandler creates a new simulation handler.
func NewHandler(service *simulation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "simulation").Logger(),
	}
}

// RunRequest is the body of POST /api/simulation/run.
type RunRequest struct {
	NumPaths int `json:"num_paths"`
	Horizon  int `json:"horizon"`
}

// RunSummary is the run response without the per-path bulk, which is
// served by the paths and metrics endpoints.
type RunSummary struct {
	ID           string  `json:"id"`
	NumPaths     int     `json:"num_paths"`
	Horizon      int     `json:"horizon"`
	InitialValue float64 `json:"initial_value"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
}

// HandlePostRun handles POST /api/simulation/run
func (h *Handler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	run, err := h.service.Run(r.Context(), req.NumPaths, req.Horizon)
	if err != nil {
		h.log.Error().Err(err).Msg("Simulation run failed")
		http.Error(w, "Simulation run failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(RunSummary{
		ID:           run.ID,
		NumPaths:     run.NumPaths,
		Horizon:      run.Horizon,
		InitialValue: run.InitialValue,
		Drift:        run.Drift,
		Volatility:   run.Volatility,
	}))
}

// HandleGetPaths handles GET /api/simulation/paths
func (h *Handler) HandleGetPaths(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(h.service.Paths()))
}

// HandleGetMetrics handles GET /api/simulation/metrics
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(h.service.Metrics()))
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
