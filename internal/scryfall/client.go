// Package scryfall is a client for the Scryfall card catalog API. It covers
// the three lookups the enricher needs: exact card lookup by name, the set
// list, and all regular cards of one set.
//
// The catalog asks clients to stay below roughly ten requests per second,
// so the client spaces consecutive requests by a configurable throttle.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// NotFoundError is returned when an exact name lookup has no match.
type NotFoundError struct {
	Name    string
	SetCode string
}

func (e *NotFoundError) Error() string {
	if e.SetCode != "" {
		return fmt.Sprintf("card not found: %q in set %s", e.Name, e.SetCode)
	}
	return fmt.Sprintf("card not found: %q", e.Name)
}

// Client calls the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	throttle   time.Duration

	mu   sync.Mutex
	last time.Time
}

// New creates a catalog client. baseURL has no trailing slash. throttle is
// the minimum spacing between consecutive requests; zero disables it.
func New(baseURL string, timeout, throttle time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		throttle:   throttle,
	}
}

// wait blocks until the throttle window since the previous request has
// passed, or ctx is done.
func (c *Client) wait(ctx context.Context) error {
	if c.throttle <= 0 {
		return nil
	}

	c.mu.Lock()
	next := c.last.Add(c.throttle)
	now := time.Now()
	if next.After(now) {
		c.last = next
	} else {
		c.last = now
	}
	c.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// getJSON performs a throttled GET and decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errStatusNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog response: %w", err)
	}
	return nil
}

var errStatusNotFound = fmt.Errorf("not found")

// Named looks up a card by its exact name, optionally scoped to a set code.
func (c *Client) Named(ctx context.Context, name, setCode string) (*Card, error) {
	q := url.Values{"exact": {name}}
	if setCode != "" {
		q.Set("set", strings.ToLower(setCode))
	}

	var card Card
	err := c.getJSON(ctx, c.baseURL+"/cards/named?"+q.Encode(), &card)
	if err == errStatusNotFound {
		return nil, &NotFoundError{Name: name, SetCode: setCode}
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// setList is the catalog's /sets envelope.
type setList struct {
	Data []Set `json:"data"`
}

// Sets returns the saleable sets, newest release first.
func (c *Client) Sets(ctx context.Context) ([]Set, error) {
	var list setList
	if err := c.getJSON(ctx, c.baseURL+"/sets", &list); err != nil {
		return nil, err
	}
	return filterSets(list.Data), nil
}

// cardPage is one page of the catalog's paginated search envelope.
type cardPage struct {
	Data     []Card `json:"data"`
	HasMore  bool   `json:"has_more"`
	NextPage string `json:"next_page"`
}

// SetCards returns every regular card of a set: paper-legal, non-token,
// non-promo, non-digital, and not an art-series or token layout.
func (c *Client) SetCards(ctx context.Context, setCode string) ([]Card, error) {
	q := url.Values{"q": {fmt.Sprintf("e:%s game:paper -is:token -promo", strings.ToLower(setCode))}}
	next := c.baseURL + "/cards/search?" + q.Encode()

	var cards []Card
	for next != "" {
		var page cardPage
		err := c.getJSON(ctx, next, &page)
		if err == errStatusNotFound {
			// An empty search result is a 404 in this API.
			break
		}
		if err != nil {
			return nil, err
		}

		for _, card := range page.Data {
			if card.Digital || card.Layout == "token" || card.Layout == "art_series" {
				continue
			}
			cards = append(cards, card)
		}

		next = ""
		if page.HasMore {
			next = page.NextPage
		}
	}
	return cards, nil
}
