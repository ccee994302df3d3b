package quote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFetchQuotesParsesValidResponses(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		json.NewEncoder(w).Encode(gammaQuote{
			Symbol:           symbol,
			UpPrice:          "0.45",
			DownPrice:        "0.50",
			SecondsRemaining: 120,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	quotes, errs := c.FetchQuotes(context.Background(), []string{"BTC-15m-1"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	if quotes[0].Symbol != "BTC-15m-1" {
		t.Errorf("symbol = %q, want BTC-15m-1", quotes[0].Symbol)
	}
	if !quotes[0].UpPrice.Equal(d("0.45")) {
		t.Errorf("up_price = %s, want 0.45", quotes[0].UpPrice)
	}
}

func TestFetchQuotesSkipsFailedSymbolsAndReportsErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "BAD" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(gammaQuote{Symbol: symbol, UpPrice: "0.45", DownPrice: "0.50", SecondsRemaining: 120})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	quotes, errs := c.FetchQuotes(context.Background(), []string{"GOOD", "BAD"})
	if len(quotes) != 1 {
		t.Fatalf("expected 1 successful quote, got %d", len(quotes))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var netErr *NetworkError
	if !asNetworkError(errs[0], &netErr) {
		t.Errorf("expected a NetworkError for a 500 response, got %T: %v", errs[0], errs[0])
	}
}

func TestFetchQuotesReportsParseErrorOnMalformedPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gammaQuote{Symbol: "X", UpPrice: "not-a-number", DownPrice: "0.50"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	quotes, errs := c.FetchQuotes(context.Background(), []string{"X"})
	if len(quotes) != 0 {
		t.Fatalf("expected no quotes on malformed price, got %d", len(quotes))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var parseErr *ParseError
	if !asParseError(errs[0], &parseErr) {
		t.Errorf("expected a ParseError for malformed up_price, got %T: %v", errs[0], errs[0])
	}
}

func asNetworkError(err error, target **NetworkError) bool {
	if e, ok := err.(*NetworkError); ok {
		*target = e
		return true
	}
	return false
}

func asParseError(err error, target **ParseError) bool {
	if e, ok := err.(*ParseError); ok {
		*target = e
		return true
	}
	return false
}
