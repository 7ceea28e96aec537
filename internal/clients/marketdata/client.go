// Package marketdata provides clients for external price sources: an
// HTTP client for historical index closes and a WebSocket stream for
// live quotes.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/domain"
)

// Client fetches historical closes from a Yahoo-compatible chart API.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a market data client. baseURL defaults to the public
// Yahoo chart endpoint when empty.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

// chartResponse mirrors the subset of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchIndexCloses fetches daily closes for a symbol over [from, to].
// Null closes in the payload (market holidays) are dropped.
func (c *Client) FetchIndexCloses(ctx context.Context, symbol string, from, to time.Time) (domain.Series, error) {
	endpoint := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Series{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "riskfolio/1.0")

	c.log.Debug().Str("symbol", symbol).Msg("Fetching index closes")
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Series{}, fmt.Errorf("index fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Series{}, fmt.Errorf("index fetch returned status %d", resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Series{}, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if payload.Chart.Error != nil {
		return domain.Series{}, fmt.Errorf("chart API error: %s", payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return domain.Series{}, nil
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	var series domain.Series
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || math.IsNaN(*closes[i]) {
			continue
		}
		series.Dates = append(series.Dates, time.Unix(ts, 0).UTC().Format("2006-01-02"))
		series.Values = append(series.Values, *closes[i])
	}

	c.log.Info().Str("symbol", symbol).Int("observations", series.Len()).Msg("Fetched index closes")
	return series, nil
}
