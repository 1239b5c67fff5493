// Package alpaca implements the bar fetcher against the Alpaca market data
// API, at the fixed 15-minute granularity the pipeline consumes.
package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/metrics"
	"github.com/newthinker/straddle/internal/provider"
)

const defaultBaseURL = "https://data.alpaca.markets"

// timeframe is the Alpaca encoding of the pipeline's fixed bar interval.
var timeframe = fmt.Sprintf("%dMin", int(provider.BarInterval/time.Minute))

// Client fetches stock and option bars from Alpaca.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	metrics    *metrics.Registry
}

// New creates a new Alpaca data client. The registry is optional.
func New(apiKey, apiSecret string, reg *metrics.Registry) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		metrics:    reg,
	}
}

// Name identifies the provider.
func (c *Client) Name() string {
	return "alpaca"
}

// StockBars returns 15-minute bars for one stock symbol in [start, end].
// An unknown symbol yields an empty slice.
func (c *Client) StockBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	bars, err := c.fetchBars(ctx, "/v2/stocks/bars", []string{symbol}, start, end)
	if err != nil {
		return nil, err
	}
	return bars[symbol], nil
}

// OptionBars returns 15-minute bars per option symbol in [start, end].
// Symbols absent from the response map to empty slices, not errors.
func (c *Client) OptionBars(ctx context.Context, symbols []string, start, end time.Time) (map[string][]core.Bar, error) {
	return c.fetchBars(ctx, "/v1beta1/options/bars", symbols, start, end)
}

func (c *Client) fetchBars(ctx context.Context, path string, symbols []string, start, end time.Time) (map[string][]core.Bar, error) {
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	q.Set("timeframe", timeframe)
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	q.Set("limit", fmt.Sprintf("%d", provider.MaxBarsPerRequest))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record("error", started)
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.record("error", started)
		body, _ := io.ReadAll(resp.Body)
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("alpaca status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	c.record("ok", started)

	var result barsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("decoding response: %w", err))
	}

	bars := make(map[string][]core.Bar, len(symbols))
	for _, sym := range symbols {
		raw := result.Bars[sym]
		out := make([]core.Bar, 0, len(raw))
		for _, b := range raw {
			out = append(out, core.Bar{Time: b.Time, Close: b.Close})
		}
		bars[sym] = out
	}
	return bars, nil
}

func (c *Client) record(status string, started time.Time) {
	if c.metrics != nil {
		c.metrics.RecordProviderRequest(c.Name(), status, time.Since(started).Seconds())
	}
}

// Alpaca API response types
type barsResponse struct {
	Bars map[string][]barDTO `json:"bars"`
}

type barDTO struct {
	Time  time.Time `json:"t"`
	Open  float64   `json:"o"`
	High  float64   `json:"h"`
	Low   float64   `json:"l"`
	Close float64   `json:"c"`
	Vol   int64     `json:"v"`
}
