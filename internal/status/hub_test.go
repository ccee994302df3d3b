package status

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"cross-price-arb/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedProvider struct {
	positions []types.PaperPosition
}

func (p fixedProvider) Positions() []types.PaperPosition { return p.positions }

func TestReportStoresAndExposesSnapshot(t *testing.T) {
	t.Parallel()

	provider := fixedProvider{positions: []types.PaperPosition{{Symbol: "BTC-15m-1"}}}
	h := NewHub(provider, testLogger())

	opps := []types.CrossPriceOpp{{Symbol: "BTC-15m-1", Spread: decimal.NewFromFloat(0.05)}}
	stats := types.ScannerStats{ScanCount: 3}
	summary := types.TraderSummary{CashBalance: decimal.NewFromInt(950)}

	h.Report(opps, stats, summary)

	snap := h.LatestSnapshot()
	if snap.Stats.ScanCount != 3 {
		t.Errorf("Stats.ScanCount = %d, want 3", snap.Stats.ScanCount)
	}
	if len(snap.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity in snapshot, got %d", len(snap.Opportunities))
	}
	if len(snap.Positions) != 1 {
		t.Fatalf("expected snapshot to carry the provider's open positions, got %d", len(snap.Positions))
	}
	if snap.Timestamp.IsZero() {
		t.Error("expected snapshot to have a non-zero timestamp")
	}
}

func TestReportWithNilProviderLeavesPositionsEmpty(t *testing.T) {
	t.Parallel()

	h := NewHub(nil, testLogger())
	h.Report(nil, types.ScannerStats{}, types.TraderSummary{})

	snap := h.LatestSnapshot()
	if len(snap.Positions) != 0 {
		t.Errorf("expected no positions with a nil provider, got %d", len(snap.Positions))
	}
}

func TestLatestSnapshotBeforeAnyReportIsZeroValue(t *testing.T) {
	t.Parallel()

	h := NewHub(fixedProvider{}, testLogger())
	snap := h.LatestSnapshot()
	if !snap.Timestamp.IsZero() {
		t.Error("expected zero-value snapshot before any Report call")
	}
}
