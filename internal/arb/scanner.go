// Package arb implements CrossPriceScanner, the opportunity detector.
//
// Grounded on market/scanner.go's scan/rankMarkets (per-pass cache, filter,
// score, sort) generalized to spec.md §4.3's validity predicate and rank
// order, and on original_source/src/scanner/mod.rs for the field set of a
// detected opportunity. The bounded per-pass fan-out (spec.md §5: "bounded
// task group that awaits all completions") uses sourcegraph/conc/pool
// instead of a hand-rolled WaitGroup+semaphore.
package arb

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"cross-price-arb/internal/config"
	"cross-price-arb/internal/discovery"
	"cross-price-arb/internal/quote"
	"cross-price-arb/pkg/types"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Scanner consumes a working set of markets and produces ranked
// CrossPriceOpp values against a bound CrossPriceConfig.
type Scanner struct {
	client *quote.Client
	cfg    config.CrossPriceConfig
	logger *slog.Logger

	// minSpread/maxSpread/feeRate are cfg's float64 thresholds converted to
	// decimal once at construction, rather than per-evaluate() call —
	// config thresholds come from YAML/flags as float64 (spec.md §9's "never
	// convert prices through binary floating point" binds the hot-path price
	// arithmetic, not one-time config parsing), but there is no reason to
	// repeat the conversion on every quote.
	minSpread decimal.Decimal
	maxSpread decimal.Decimal
	feeRate   decimal.Decimal

	stats types.ScannerStats
}

// New builds a Scanner bound to cfg. cfg is validated by the caller
// (config.CrossPriceConfig.Validate) before construction — an invalid
// config is a Config error, fatal to the loop, never surfaced here.
func New(client *quote.Client, cfg config.CrossPriceConfig, logger *slog.Logger) *Scanner {
	return &Scanner{
		client:    client,
		cfg:       cfg,
		logger:    logger.With("component", "cross-price-scanner"),
		minSpread: decimal.NewFromFloat(cfg.MinSpread),
		maxSpread: decimal.NewFromFloat(cfg.MaxSpread),
		feeRate:   decimal.NewFromFloat(cfg.FeeRate),
	}
}

// Stats returns a snapshot of the monotonic scan counters.
func (s *Scanner) Stats() types.ScannerStats { return s.stats }

// RecordTrade increments the trades-entered counter. Called by the loop
// after a successful Trader.Enter, keeping entry bookkeeping with the
// detector that proposed the trade (mirrors the Rust original's
// scanner.record_trade).
func (s *Scanner) RecordTrade() { s.stats.TradesEntered++ }

// ScanAll fetches the freshest quote for every market in the working set (at
// most once per pass, bounded to cfg.MaxConcurrent concurrent fetches),
// filters by validity and spread window, and returns opportunities ranked
// by descending spread, then ascending seconds remaining, then ascending
// symbol (spec.md §4.3, §8 property 4).
func (s *Scanner) ScanAll(ctx context.Context, workingSet []discovery.Entry) ([]types.CrossPriceOpp, error) {
	s.stats.ScanCount++
	s.stats.LastScanAt = time.Now()

	symbols := make([]string, len(workingSet))
	for i, e := range workingSet {
		symbols[i] = e.Symbol
	}

	quotes := s.fetchAll(ctx, symbols)

	opps := make([]types.CrossPriceOpp, 0, len(quotes))
	for _, q := range quotes {
		opp, ok := s.evaluate(q)
		if !ok {
			continue
		}
		opps = append(opps, opp)
	}

	s.stats.OpportunitiesSeen += int64(len(opps))
	rankOpps(opps)
	return opps, nil
}

// fetchAll fans out one fetch per symbol bounded to cfg.MaxConcurrent
// in-flight requests, and awaits all completions before returning — the
// "bounded task group" of spec.md §5.
func (s *Scanner) fetchAll(ctx context.Context, symbols []string) []types.MarketQuote {
	if len(symbols) == 0 {
		return nil
	}

	quotesCh := make(chan types.MarketQuote, len(symbols))
	p := pool.New().WithMaxGoroutines(s.cfg.MaxConcurrent)

	for _, sym := range symbols {
		sym := sym
		p.Go(func() {
			qs, errs := s.client.FetchQuotes(ctx, []string{sym})
			for range errs {
				s.stats.ClientErrors++
				s.logger.Warn("quote fetch failed", "symbol", sym)
			}
			for _, q := range qs {
				quotesCh <- q
			}
		})
	}
	p.Wait()
	close(quotesCh)

	quotes := make([]types.MarketQuote, 0, len(symbols))
	for q := range quotesCh {
		quotes = append(quotes, q)
	}
	return quotes
}

// evaluate applies the validity predicate and spread window to a single
// quote, returning a CrossPriceOpp if it passes.
func (s *Scanner) evaluate(q types.MarketQuote) (types.CrossPriceOpp, bool) {
	minSecs := int64(s.cfg.MinTimeRemaining.Seconds())
	maxSecs := int64(s.cfg.MaxTimeRemaining.Seconds())

	if !q.IsValidForTrading(minSecs, maxSecs) {
		return types.CrossPriceOpp{}, false
	}
	// Defend against a configuration-invalidating quote (e.g. up_price > 1)
	// slipping through a malformed upstream payload (spec.md §4.3 failure
	// semantics).
	if q.UpPrice.GreaterThan(one) || q.DownPrice.GreaterThan(one) {
		s.logger.Warn("dropping out-of-range quote", "symbol", q.Symbol)
		return types.CrossPriceOpp{}, false
	}

	totalCost := q.UpPrice.Add(q.DownPrice)
	spread := one.Sub(totalCost).Sub(s.feeRate.Mul(totalCost))

	if spread.LessThan(s.minSpread) || spread.GreaterThan(s.maxSpread) {
		return types.CrossPriceOpp{}, false
	}

	// expected_profit_usd = 100 * spread / total_cost
	expectedProfit := hundred.Mul(spread).Div(totalCost)

	return types.CrossPriceOpp{
		Symbol:            q.Symbol,
		UpPrice:           q.UpPrice,
		DownPrice:         q.DownPrice,
		TotalCost:         totalCost,
		Spread:            spread,
		SecondsRemaining:  q.SecondsRemaining,
		UpTokenID:         q.UpTokenID,
		DownTokenID:       q.DownTokenID,
		ExpectedProfitUSD: expectedProfit,
		DetectedAt:        time.Now(),
	}, true
}

// rankOpps sorts in place by descending spread, then ascending seconds
// remaining, then ascending symbol — the deterministic tie-break spec.md §9
// adds over the original implementation's spread-only ranking.
func rankOpps(opps []types.CrossPriceOpp) {
	sort.Slice(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if !a.Spread.Equal(b.Spread) {
			return a.Spread.GreaterThan(b.Spread)
		}
		if a.SecondsRemaining != b.SecondsRemaining {
			return a.SecondsRemaining < b.SecondsRemaining
		}
		return a.Symbol < b.Symbol
	})
}
