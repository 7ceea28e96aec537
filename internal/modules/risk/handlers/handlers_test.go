package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
	riskhandlers "github.com/mkarlis/riskfolio/internal/modules/risk/handlers"
	"github.com/mkarlis/riskfolio/internal/modules/universe"
	riskfoliotesting "github.com/mkarlis/riskfolio/internal/testing"
)

func newTestRouter(t *testing.T, defaultConfidence float64) *chi.Mux {
	t.Helper()
	log := zerolog.Nop()

	historyDB, historyCleanup := riskfoliotesting.NewTestDB(t, "history")
	t.Cleanup(historyCleanup)
	portfolioDB, portfolioCleanup := riskfoliotesting.NewTestDB(t, "portfolio")
	t.Cleanup(portfolioCleanup)

	prices := universe.NewPriceRepository(historyDB.Conn(), log)
	require.NoError(t, prices.UpsertDailyPrices(riskfoliotesting.NewDailyPriceFixtures()))

	repo := portfolio.NewRepository(portfolioDB.Conn(), log)
	for _, p := range riskfoliotesting.NewPositionFixtures() {
		require.NoError(t, repo.UpsertPosition(p))
	}

	market := universe.NewMarketDataSource(prices, nil, log)
	svc := portfolio.NewService(repo, prices, market, nil, nil, log)
	require.NoError(t, svc.Hydrate())

	router := chi.NewRouter()
	riskhandlers.NewHandler(svc, defaultConfidence, log).RegisterRoutes(router)
	return router
}

func getMetrics(t *testing.T, router *chi.Mux, target string) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusOK {
		return rec.Code, nil
	}
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body.Data
}

func TestMetricsUsesConfiguredDefaultConfidence(t *testing.T) {
	router := newTestRouter(t, 0.10)

	status, data := getMetrics(t, router, "/risk/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.10, data["confidence_level"])
}

func TestMetricsQueryParamOverridesDefault(t *testing.T) {
	router := newTestRouter(t, 0.10)

	status, data := getMetrics(t, router, "/risk/metrics?confidence_level=0.01")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.01, data["confidence_level"])
}

func TestMetricsRejectsInvalidConfidence(t *testing.T) {
	router := newTestRouter(t, 0.10)

	status, _ := getMetrics(t, router, "/risk/metrics?confidence_level=1.5")
	assert.Equal(t, http.StatusBadRequest, status)
}
