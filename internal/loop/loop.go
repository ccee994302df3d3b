// Package loop implements ArbitrageLoop, the single-task scheduler that
// drives discovery, scanning, paper entries, settlement, and reporting.
//
// The orchestration shape — wire subsystems once in New, own one context for
// the whole run, shut down cleanly on cancellation — is grounded on
// engine.Engine's New/Start/Stop lifecycle, but the concurrency model is
// simplified to match spec.md §5: one goroutine, no market-slot fan-out, no
// WS-event routing tables. The single tick order (settle → refresh-if-due →
// scan → rank → enter in rank order → report → sleep) follows
// original_source/src/loop/mod.rs's run_once.
package loop

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"cross-price-arb/internal/arb"
	"cross-price-arb/internal/config"
	"cross-price-arb/internal/discovery"
	"cross-price-arb/internal/paper"
	"cross-price-arb/internal/risk"
	"cross-price-arb/pkg/types"
)

// Reporter receives a snapshot after every pass. The dashboard's Hub and the
// CLI's stdout printer both implement this.
type Reporter interface {
	Report(opps []types.CrossPriceOpp, stats types.ScannerStats, summary types.TraderSummary)
}

// Loop ties discovery, the detector, the paper trader, and the risk guard
// into one scheduled pass. It is not safe for concurrent use — spec.md §5's
// single-task model means exactly one goroutine ever calls RunOnce/Run.
type Loop struct {
	discovery *discovery.Discovery
	scanner   *arb.Scanner
	trader    *paper.Trader
	guard     *risk.Guard
	settler   paper.SettlementSource
	reporter  Reporter
	cfg       config.LoopConfig
	logger    *slog.Logger

	initialBalance decimal.Decimal
	maxPosition    decimal.Decimal
	oneShot        bool
}

// New wires a Loop. oneShot runs exactly one pass and returns (`paper`
// without --live); otherwise Run repeats until ctx is cancelled
// (`paper --live`). The `scan` command does not use a Loop. maxPosition is the detector's configured ceiling on a single
// entry's committed capital (spec.md §4.5: min(max_position, balance*0.2)).
func New(
	disc *discovery.Discovery,
	scanner *arb.Scanner,
	trader *paper.Trader,
	guard *risk.Guard,
	settler paper.SettlementSource,
	reporter Reporter,
	cfg config.LoopConfig,
	initialBalance decimal.Decimal,
	maxPosition decimal.Decimal,
	oneShot bool,
	logger *slog.Logger,
) *Loop {
	return &Loop{
		discovery:      disc,
		scanner:        scanner,
		trader:         trader,
		guard:          guard,
		settler:        settler,
		reporter:       reporter,
		cfg:            cfg,
		initialBalance: initialBalance,
		maxPosition:    maxPosition,
		oneShot:        oneShot,
		logger:         logger.With("component", "loop"),
	}
}

// Run drives the scheduled loop until ctx is cancelled or, in one-shot
// mode, after the first pass completes. Every suspension point (refresh,
// scan, sleep) checks ctx first so cancellation never blocks behind a slow
// network call.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := l.runOnce(ctx); err != nil {
			l.logger.Error("pass failed", "error", err)
		}

		if l.oneShot {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.SleepInterval):
		}
	}
}

// runOnce executes the settle → refresh-if-due → scan → enter → report
// sequence once.
func (l *Loop) runOnce(ctx context.Context) error {
	l.trader.SettleDue(ctx, l.settler)

	now := time.Now()
	if l.discovery.ShouldRefresh(now) {
		if err := l.discovery.Refresh(ctx); err != nil {
			return err
		}
	}

	opps, err := l.scanner.ScanAll(ctx, l.discovery.WorkingSet())
	if err != nil {
		return err
	}

	l.enterRanked(now, opps)

	summary := l.trader.Summary(l.initialBalance)
	if l.reporter != nil {
		l.reporter.Report(opps, l.scanner.Stats(), summary)
	}
	return nil
}

// enterRanked walks opportunities in rank order (already sorted by
// arb.Scanner) and enters each one the risk guard allows, sizing every
// entry via paper.PositionSize against the trader's current cash balance
// (spec.md §4.5: size shrinks as the bankroll does, never grows past it).
func (l *Loop) enterRanked(now time.Time, opps []types.CrossPriceOpp) {
	for _, opp := range opps {
		size := paper.PositionSize(l.trader.Balance(), l.maxPosition)
		if size.IsZero() {
			continue
		}

		if !l.guardAllows(now, size) {
			l.logger.Warn("risk guard active, skipping remaining opportunities this pass")
			return
		}

		if l.trader.Enter(opp, size) {
			l.scanner.RecordTrade()
		}
	}
}

// guardAllows consults the risk guard for a candidate entry of size,
// against current aggregate exposure and the trader's realized PnL. That
// PnL is the total since the trader started; it is not reset at a day
// boundary.
func (l *Loop) guardAllows(now time.Time, size decimal.Decimal) bool {
	if l.guard == nil {
		return true
	}
	summary := l.trader.Summary(l.initialBalance)
	return l.guard.Allow(now, l.trader.OpenExposure(), size, summary.RealizedPnL)
}
