// Package discovery enumerates tradable short-horizon binary markets and
// maintains the working set the detector scans every pass.
//
// Grounded on market/scanner.go's fetchMarkets (paginated GET against the
// Gamma API) and filterMarkets (active/closed/accepting-orders predicate),
// generalized to spec.md §4.2's still-trading/resolving/expired partition
// and cadence alignment instead of liquidity/volume/spread scoring (that
// scoring belonged to the market-making strategy; the arbitrage detector has
// its own ranking in internal/arb).
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
)

// gammaMarket is the subset of the Gamma API's market-index response needed
// to build the working set.
type gammaMarket struct {
	Symbol          string `json:"symbol"`
	Active          bool   `json:"active"`
	Closed          bool   `json:"closed"`
	AcceptingOrders bool   `json:"acceptingOrders"`
	EndDate         string `json:"endDate"`
}

// Entry is one market in the working set, with its seconds-to-resolution
// recomputed as of the most recent refresh.
type Entry struct {
	Symbol           string
	SecondsRemaining int64
	EndDate          time.Time
}

// Discovery maintains the working set of tradable markets, refreshed once
// refreshInterval has elapsed (see ShouldRefresh). It is driven by the loop; Refresh is not safe to call
// concurrently with itself (single-task model, spec.md §5).
type Discovery struct {
	http            *resty.Client
	cadence         time.Duration // canonical market duration (e.g. 15m), for alignment
	refreshInterval time.Duration
	logger          *slog.Logger

	workingSet  []Entry
	lastRefresh time.Time
}

// New builds a Discovery against the given Gamma-style base URL.
func New(baseURL string, cadence, refreshInterval time.Duration, logger *slog.Logger) *Discovery {
	return &Discovery{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
		cadence:         cadence,
		refreshInterval: refreshInterval,
		logger:          logger.With("component", "discovery"),
	}
}

// ShouldRefresh reports whether RefreshInterval has elapsed since the last
// successful Refresh.
func (d *Discovery) ShouldRefresh(now time.Time) bool {
	return d.lastRefresh.IsZero() || now.Sub(d.lastRefresh) >= d.refreshInterval
}

// WorkingSet returns the current set of still-trading markets.
func (d *Discovery) WorkingSet() []Entry {
	return d.workingSet
}

// Refresh fetches the active-market index, partitions it into
// still-trading / resolving / expired, and replaces the working set with
// the still-trading markets, their SecondsRemaining recomputed against now.
// Expired markets are dropped without side effects (spec.md §4.2).
func (d *Discovery) Refresh(ctx context.Context) error {
	markets, err := d.fetchActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("discovery refresh: %w", err)
	}

	now := time.Now()
	trading, resolving, expired := partition(markets, now)
	d.logger.Info("discovery refresh",
		"trading", len(trading),
		"resolving", len(resolving),
		"expired", len(expired),
	)

	entries := make([]Entry, 0, len(trading))
	for _, m := range trading {
		endDate, _ := time.Parse(time.RFC3339, m.EndDate)
		aligned := alignToCadence(endDate, d.cadence)
		entries = append(entries, Entry{
			Symbol:           m.Symbol,
			SecondsRemaining: int64(aligned.Sub(now).Seconds()),
			EndDate:          aligned,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Symbol < entries[j].Symbol })

	d.workingSet = entries
	d.lastRefresh = now
	return nil
}

func (d *Discovery) fetchActiveMarkets(ctx context.Context) ([]gammaMarket, error) {
	var markets []gammaMarket
	resp, err := d.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"active": "true", "closed": "false"}).
		SetResult(&markets).
		ForceContentType("application/json").
		Get("/markets")
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch markets: status %d", resp.StatusCode())
	}
	return markets, nil
}

// partition splits the raw index into still-trading, resolving (past end
// date but not yet closed upstream), and expired (closed, inactive, not
// accepting orders, or with an unparseable end date) buckets.
func partition(markets []gammaMarket, now time.Time) (trading, resolving, expired []gammaMarket) {
	for _, m := range markets {
		if m.Closed {
			expired = append(expired, m)
			continue
		}
		endDate, err := time.Parse(time.RFC3339, m.EndDate)
		if err != nil {
			expired = append(expired, m)
			continue
		}
		switch {
		case !m.Active || !m.AcceptingOrders:
			expired = append(expired, m)
		case endDate.Before(now):
			resolving = append(resolving, m)
		default:
			trading = append(trading, m)
		}
	}
	return trading, resolving, expired
}

// alignToCadence snaps an end date up to the canonical market cadence (e.g.
// the next 15-minute boundary at or after it), matching how 15-minute crypto markets are
// listed with a fixed schedule rather than an arbitrary timestamp.
func alignToCadence(endDate time.Time, cadence time.Duration) time.Time {
	if cadence <= 0 || endDate.IsZero() {
		return endDate
	}
	unix := endDate.Unix()
	cadenceSecs := int64(cadence.Seconds())
	aligned := (unix / cadenceSecs) * cadenceSecs
	if unix%cadenceSecs != 0 {
		aligned += cadenceSecs
	}
	return time.Unix(aligned, 0).UTC()
}
