// Package marketdata implements the options-chain lister against the
// marketdata.app API.
package marketdata

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
)

const defaultBaseURL = "https://api.marketdata.app"

// Client lists historical option chains from marketdata.app.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	metrics    *metrics.Registry
}

// New creates a new marketdata.app client. The registry is optional.
func New(token string, reg *metrics.Registry) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		metrics:    reg,
	}
}

// Name identifies the provider.
func (c *Client) Name() string {
	return "marketdata"
}

// ListChain returns the option symbols traded for ticker as of a session
// date, restricted to expiries in [from, to]. A response without the
// optionSymbol field surfaces the raw payload as the error.
func (c *Client) ListChain(ctx context.Context, ticker string, asOf, from, to time.Time) ([]string, error) {
	q := url.Values{}
	q.Set("date", asOf.Format("2006-01-02"))
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s/v1/options/chain/%s/?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record("error", started)
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record("error", started)
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("reading response: %w", err))
	}

	var result chainResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.record("error", started)
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("decoding chain response: %w", err))
	}

	// The provider signals errors inside an otherwise-valid JSON body. The
	// raw payload is the most useful thing to report.
	if result.OptionSymbol == nil {
		c.record("error", started)
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("chain payload for %s: %s", ticker, strings.TrimSpace(string(body))))
	}
	c.record("ok", started)

	return result.OptionSymbol, nil
}

func (c *Client) record(status string, started time.Time) {
	if c.metrics != nil {
		c.metrics.RecordProviderRequest(c.Name(), status, time.Since(started).Seconds())
	}
}

type chainResponse struct {
	Status       string   `json:"s"`
	OptionSymbol []string `json:"optionSymbol"`
}
