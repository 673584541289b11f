// Package forex fetches currency exchange rates from the Frankfurter API.
package forex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeError wraps any failure to obtain a rate. Enrichment treats it
// as non-fatal: prices are left empty when no rate is available.
type ExchangeError struct {
	From string
	To   string
	Err  error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange rate %s->%s: %v", e.From, e.To, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Client fetches exchange rates.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a rate client. baseURL has no trailing slash.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// latestResponse is the /latest envelope. Rates are keyed by target
// currency code.
type latestResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate returns the current conversion rate from one currency to another.
func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	q := url.Values{"from": {from}, "to": {to}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, &ExchangeError{From: from, To: to, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, &ExchangeError{From: from, To: to, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &ExchangeError{From: from, To: to, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, &ExchangeError{From: from, To: to, Err: err}
	}

	rate, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, &ExchangeError{From: from, To: to, Err: fmt.Errorf("no rate in response")}
	}
	return rate, nil
}
