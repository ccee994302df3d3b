// Package quote implements the market-data client: HTTP quote fetching, an
// optional WebSocket tick feed, and a best-ask mirror fed by that feed.
//
// Client.FetchQuotes is the single operation spec.md §4.1/§9 asks for:
// symbols in, MarketQuote values out, no retries (retry policy belongs to
// the scan loop), decimal strings parsed without passing through float64.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"cross-price-arb/pkg/types"
)

// NetworkError wraps a transient failure (connect error, 5xx, timeout) —
// the "Network" kind of spec.md §7. Callers skip the affected symbol and
// continue; this error is never fatal to the scan loop.
type NetworkError struct {
	Symbol string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.Symbol, e.Err)
}
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError wraps a malformed payload — the "Parse" kind of spec.md §7.
type ParseError struct {
	Symbol string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.Symbol, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }

// gammaQuote is the JSON shape returned per-symbol by the gamma-style quote
// endpoint. Prices arrive as strings and are parsed with decimal.NewFromString,
// never strconv.ParseFloat, so the hot path never touches binary float.
type gammaQuote struct {
	Symbol           string `json:"symbol"`
	UpPrice          string `json:"up_price"`
	DownPrice        string `json:"down_price"`
	SecondsRemaining int64  `json:"seconds_remaining"`
	UpTokenID        string `json:"up_token_id"`
	DownTokenID      string `json:"down_token_id"`
}

// Client fetches MarketQuote snapshots from a remote gamma-style service.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds a quote client with a 5-second per-request deadline
// (spec.md §4.1) and no automatic retries — retry policy lives in the loop.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second)

	return &Client{http: http, logger: logger.With("component", "quote-client")}
}

// FetchQuotes issues one GET per symbol and returns a quote for every symbol
// that responded successfully; failures are omitted, not propagated, per
// spec.md §4.1. errs carries the per-symbol failures for stats/logging.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]types.MarketQuote, []error) {
	quotes := make([]types.MarketQuote, 0, len(symbols))
	var errs []error

	for _, symbol := range symbols {
		q, err := c.fetchOne(ctx, symbol)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		quotes = append(quotes, q)
	}

	return quotes, errs
}

func (c *Client) fetchOne(ctx context.Context, symbol string) (types.MarketQuote, error) {
	var raw gammaQuote
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&raw).
		ForceContentType("application/json").
		Get("/markets/quote")
	if err != nil {
		return types.MarketQuote{}, &NetworkError{Symbol: symbol, Err: err}
	}
	if resp.StatusCode() >= 500 {
		return types.MarketQuote{}, &NetworkError{Symbol: symbol, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() != 200 {
		return types.MarketQuote{}, &ParseError{Symbol: symbol, Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())}
	}

	up, err := decimal.NewFromString(raw.UpPrice)
	if err != nil {
		return types.MarketQuote{}, &ParseError{Symbol: symbol, Err: fmt.Errorf("up_price: %w", err)}
	}
	down, err := decimal.NewFromString(raw.DownPrice)
	if err != nil {
		return types.MarketQuote{}, &ParseError{Symbol: symbol, Err: fmt.Errorf("down_price: %w", err)}
	}

	return types.MarketQuote{
		Symbol:           raw.Symbol,
		UpPrice:          up,
		DownPrice:        down,
		SecondsRemaining: raw.SecondsRemaining,
		UpTokenID:        raw.UpTokenID,
		DownTokenID:      raw.DownTokenID,
		ObservedAt:       time.Now(),
	}, nil
}
