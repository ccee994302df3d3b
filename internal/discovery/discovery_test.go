package discovery

import (
	"testing"
	"time"
)

func TestPartitionTrading(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := gammaMarket{
		Symbol: "BTC-15m-1", Active: true, Closed: false, AcceptingOrders: true,
		EndDate: now.Add(5 * time.Minute).Format(time.RFC3339),
	}

	trading, resolving, expired := partition([]gammaMarket{m}, now)
	if len(trading) != 1 || len(resolving) != 0 || len(expired) != 0 {
		t.Fatalf("expected 1 trading market, got trading=%d resolving=%d expired=%d", len(trading), len(resolving), len(expired))
	}
}

func TestPartitionResolving(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := gammaMarket{
		Symbol: "BTC-15m-1", Active: true, Closed: false, AcceptingOrders: true,
		EndDate: now.Add(-time.Minute).Format(time.RFC3339),
	}

	trading, resolving, expired := partition([]gammaMarket{m}, now)
	if len(trading) != 0 || len(resolving) != 1 || len(expired) != 0 {
		t.Fatalf("expected 1 resolving market, got trading=%d resolving=%d expired=%d", len(trading), len(resolving), len(expired))
	}
}

func TestPartitionExpiredWhenClosed(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := gammaMarket{Symbol: "BTC-15m-1", Closed: true}

	_, _, expired := partition([]gammaMarket{m}, now)
	if len(expired) != 1 {
		t.Fatalf("expected closed market to be expired, got %d", len(expired))
	}
}

func TestPartitionExpiredWhenNotAcceptingOrders(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := gammaMarket{
		Symbol: "BTC-15m-1", Active: true, AcceptingOrders: false,
		EndDate: now.Add(5 * time.Minute).Format(time.RFC3339),
	}

	_, _, expired := partition([]gammaMarket{m}, now)
	if len(expired) != 1 {
		t.Fatalf("expected not-accepting-orders market to be expired, got %d", len(expired))
	}
}

func TestPartitionExpiredOnMalformedEndDate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := gammaMarket{Symbol: "BTC-15m-1", Active: true, AcceptingOrders: true, EndDate: "not-a-date"}

	_, _, expired := partition([]gammaMarket{m}, now)
	if len(expired) != 1 {
		t.Fatalf("expected malformed end date market to be expired, got %d", len(expired))
	}
}

func TestAlignToCadence(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 7, 30, 0, time.UTC)
	got := alignToCadence(base, 15*time.Minute)

	want := time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("alignToCadence() = %v, want %v", got, want)
	}
}

func TestAlignToCadenceExactBoundary(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)
	got := alignToCadence(base, 15*time.Minute)

	if !got.Equal(base) {
		t.Errorf("alignToCadence() = %v, want unchanged %v", got, base)
	}
}

func TestShouldRefresh(t *testing.T) {
	t.Parallel()

	d := &Discovery{refreshInterval: time.Minute}
	now := time.Now()

	if !d.ShouldRefresh(now) {
		t.Error("expected ShouldRefresh to be true before any refresh has happened")
	}

	d.lastRefresh = now
	if d.ShouldRefresh(now.Add(30 * time.Second)) {
		t.Error("expected ShouldRefresh to be false within the refresh interval")
	}
	if !d.ShouldRefresh(now.Add(2 * time.Minute)) {
		t.Error("expected ShouldRefresh to be true after the refresh interval elapses")
	}
}
