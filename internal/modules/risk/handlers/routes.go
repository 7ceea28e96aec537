package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk metrics routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Get("/metrics", h.HandleGetMetrics)
		r.Get("/covariance", h.HandleGetCovariance)
		r.Get("/correlation", h.HandleGetCorrelation)
		r.Get("/contributions", h.HandleGetContributions)
		r.Get("/impact/{symbol}", h.HandleGetImpact)
	})
}
