package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"intraday-exit-lab/internal/domain"
)

// PolygonClient fetches historical minute aggregates from the
// Polygon.io REST API.
type PolygonClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPolygonClient creates a new Polygon.io client.
func NewPolygonClient(apiKey string) *PolygonClient {
	return &PolygonClient{
		apiKey:  apiKey,
		baseURL: "https://api.polygon.io",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// polygonTimespan maps an internal timeframe to the Polygon timespan
// path segment and multiplier.
func polygonTimespan(timeframe string) (multiplier int, timespan string, err error) {
	switch timeframe {
	case domain.Timeframe1Min:
		return 1, "minute", nil
	case domain.Timeframe5Min:
		return 5, "minute", nil
	case domain.Timeframe15Min:
		return 15, "minute", nil
	default:
		return 0, "", fmt.Errorf("unsupported timeframe %q", timeframe)
	}
}

// GetBars fetches aggregates for [startDate, endDate] and maps them to
// domain bars. Timestamps come back in UTC.
func (pc *PolygonClient) GetBars(ctx context.Context, symbol, timeframe string, startDate, endDate time.Time) ([]*domain.Bar, error) {
	multiplier, timespan, err := polygonTimespan(timeframe)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		pc.baseURL,
		symbol,
		multiplier,
		timespan,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create aggregates request: %w", err)
	}

	q := req.URL.Query()
	q.Add("apiKey", pc.apiKey)
	q.Add("adjusted", "true")
	q.Add("sort", "asc")
	q.Add("limit", "50000")
	req.URL.RawQuery = q.Encode()

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch aggregates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("aggregates API status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Status  string `json:"status"`
		Results []struct {
			T int64   `json:"t"` // timestamp ms
			O float64 `json:"o"`
			H float64 `json:"h"`
			L float64 `json:"l"`
			C float64 `json:"c"`
			V float64 `json:"v"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode aggregates response: %w", err)
	}

	// DELAYED is fine for historical data
	if result.Status != "OK" && result.Status != "DELAYED" {
		return nil, fmt.Errorf("aggregates API returned status %s", result.Status)
	}

	bars := make([]*domain.Bar, 0, len(result.Results))
	for _, r := range result.Results {
		bars = append(bars, &domain.Bar{
			Symbol:    symbol,
			Timeframe: timeframe,
			Time:      time.UnixMilli(r.T).UTC(),
			Open:      r.O,
			High:      r.H,
			Low:       r.L,
			Close:     r.C,
			Volume:    r.V,
		})
	}

	return bars, nil
}
