// Package risk provides a lightweight exposure and daily-loss safety net
// consulted before the paper trader opens a new position.
//
// Adapted from risk/manager.go's aggregate exposure tracking and cooldown
// window, trimmed down: entries here are individually risk-free (cash is
// debited up front, shares can never go negative), so the only thing left
// to guard against is the detector finding too many "opportunities" at
// once — a sign of a bad feed more than a real arbitrage — and drawing
// down the simulated bankroll too fast. Unlike the teacher's Manager, this
// runs synchronously on the loop's own goroutine: no report channel, no
// background ticker, consistent with the single-task model the rest of
// this repo follows.
package risk

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Limits bounds the guard's behavior.
type Limits struct {
	MaxAggregateExposure decimal.Decimal // ceiling on sum of open PositionSizeUSD
	MaxDailyLoss         decimal.Decimal // cooldown trigger, positive value
	CooldownAfter        time.Duration
}

// Guard tracks aggregate exposure and realized PnL against Limits and
// reports whether a new entry is currently allowed.
type Guard struct {
	limits Limits
	logger *slog.Logger

	cooldownUntil time.Time
}

// NewGuard builds a Guard with the given limits.
func NewGuard(limits Limits, logger *slog.Logger) *Guard {
	return &Guard{limits: limits, logger: logger.With("component", "risk-guard")}
}

// Allow reports whether a new entry of sizeUSD is permitted given the
// current aggregate exposure across open positions and the realized PnL
// booked so far today. now is passed explicitly so cooldown expiry is
// testable without wall-clock sleeps.
func (g *Guard) Allow(now time.Time, aggregateExposure, sizeUSD, realizedPnLToday decimal.Decimal) bool {
	if !g.cooldownUntil.IsZero() && now.Before(g.cooldownUntil) {
		return false
	}

	if realizedPnLToday.IsNegative() && realizedPnLToday.Abs().GreaterThan(g.limits.MaxDailyLoss) {
		g.trip(now, "max daily loss breached")
		return false
	}

	projected := aggregateExposure.Add(sizeUSD)
	if projected.GreaterThan(g.limits.MaxAggregateExposure) {
		return false
	}

	return true
}

// Tripped reports whether the cooldown is currently active.
func (g *Guard) Tripped(now time.Time) bool {
	return !g.cooldownUntil.IsZero() && now.Before(g.cooldownUntil)
}

func (g *Guard) trip(now time.Time, reason string) {
	g.cooldownUntil = now.Add(g.limits.CooldownAfter)
	g.logger.Error("risk guard tripped", "reason", reason, "cooldown_until", g.cooldownUntil)
}
