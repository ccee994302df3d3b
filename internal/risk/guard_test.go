package risk

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLimits() Limits {
	return Limits{
		MaxAggregateExposure: decimal.NewFromInt(500),
		MaxDailyLoss:         decimal.NewFromInt(100),
		CooldownAfter:        15 * time.Minute,
	}
}

func TestAllowWithinLimits(t *testing.T) {
	t.Parallel()

	g := NewGuard(testLimits(), testLogger())
	now := time.Now()

	if !g.Allow(now, decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.Zero) {
		t.Error("expected entry within exposure and loss limits to be allowed")
	}
}

func TestAllowRejectsOverExposure(t *testing.T) {
	t.Parallel()

	g := NewGuard(testLimits(), testLogger())
	now := time.Now()

	if g.Allow(now, decimal.NewFromInt(480), decimal.NewFromInt(50), decimal.Zero) {
		t.Error("expected entry that would exceed max aggregate exposure to be rejected")
	}
}

func TestAllowTripsOnDailyLoss(t *testing.T) {
	t.Parallel()

	g := NewGuard(testLimits(), testLogger())
	now := time.Now()

	if g.Allow(now, decimal.Zero, decimal.NewFromInt(10), decimal.NewFromInt(-150)) {
		t.Error("expected entry to be rejected once daily loss exceeds the limit")
	}
	if !g.Tripped(now) {
		t.Error("expected guard to be tripped after a daily-loss breach")
	}
}

func TestCooldownExpires(t *testing.T) {
	t.Parallel()

	g := NewGuard(testLimits(), testLogger())
	now := time.Now()

	g.Allow(now, decimal.Zero, decimal.NewFromInt(10), decimal.NewFromInt(-150))
	if !g.Tripped(now.Add(time.Minute)) {
		t.Error("expected guard to still be tripped before cooldown elapses")
	}
	if g.Tripped(now.Add(16 * time.Minute)) {
		t.Error("expected guard to clear after cooldown elapses")
	}
}
