// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the scanner — quotes, filter
// config, detected opportunities, paper positions, and ledger records. It has
// no dependencies on internal packages, so it can be imported by any layer.
// Every price, size, and monetary field is a decimal.Decimal: prices and
// spreads never touch binary floating point on the hot path.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Market lifecycle
// ————————————————————————————————————————————————————————————————————————

// MarketState classifies a discovered market relative to its resolution time.
type MarketState string

const (
	StateTrading   MarketState = "trading"   // accepting orders, time remains
	StateResolving MarketState = "resolving" // past expiry, outcome not yet confirmed
	StateExpired   MarketState = "expired"   // resolved and pruned from the working set
)

// PositionStatus is the lifecycle state of a PaperPosition.
type PositionStatus string

const (
	Open      PositionStatus = "open"
	Settled   PositionStatus = "settled"
	Cancelled PositionStatus = "cancelled"
)

// Side identifies which outcome token of a binary market an amount refers to.
type Side string

const (
	Up   Side = "UP"
	Down Side = "DOWN"
)

// SignatureType identifies the signing scheme for the CTF exchange contract.
// Paper trading signs nothing; all three values exist so a live-execution
// path can reuse OrderSignData without a schema change.
type SignatureType uint8

const (
	SigEOA        SignatureType = 0
	SigProxy      SignatureType = 1
	SigGnosisSafe SignatureType = 2
)

// ————————————————————————————————————————————————————————————————————————
// Quotes
// ————————————————————————————————————————————————————————————————————————

// MarketQuote is a snapshot of one binary market's best-ask prices on both
// outcome tokens, as returned by the market-data client.
type MarketQuote struct {
	Symbol           string          // stable identifier, e.g. "BTC-15m-123"
	UpPrice          decimal.Decimal // best ask for the UP token, in [0,1]
	DownPrice        decimal.Decimal // best ask for the DOWN token, in [0,1]
	SecondsRemaining int64           // seconds until resolution, >= 0
	UpTokenID        string          // opaque CLOB token id for UP
	DownTokenID      string          // opaque CLOB token id for DOWN
	ObservedAt       time.Time       // wall-clock time the quote was fetched
}

// IsValidForTrading reports whether q satisfies the validity predicate of
// spec.md §3 against the given time window. Price bounds and positivity are
// always checked; the time window is supplied separately because discovery
// and the detector apply it independently (discovery aligns a working set,
// the detector re-validates per CrossPriceConfig at scan time).
func (q MarketQuote) IsValidForTrading(minTimeRemaining, maxTimeRemaining int64) bool {
	if !q.UpPrice.IsPositive() || !q.DownPrice.IsPositive() {
		return false
	}
	total := q.UpPrice.Add(q.DownPrice)
	if total.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return false
	}
	if q.SecondsRemaining < minTimeRemaining || q.SecondsRemaining > maxTimeRemaining {
		return false
	}
	return true
}

// ————————————————————————————————————————————————————————————————————————
// Detector output
// ————————————————————————————————————————————————————————————————————————

// CrossPriceOpp is a single detected arbitrage opportunity. Once constructed
// it is never mutated — detector output is an immutable, ranked value list.
type CrossPriceOpp struct {
	Symbol            string
	UpPrice           decimal.Decimal
	DownPrice         decimal.Decimal
	TotalCost         decimal.Decimal // UpPrice + DownPrice
	Spread            decimal.Decimal // 1 - TotalCost - fee_rate*TotalCost
	SecondsRemaining  int64
	UpTokenID         string
	DownTokenID       string
	ExpectedProfitUSD decimal.Decimal // spread scaled to a $100 notional
	DetectedAt        time.Time
}

// IsValid re-checks the opportunity is still actionable at dispatch time
// (prices are non-negative, total cost still below payout). Used by the
// paper trader and the loop to defend against a stale opportunity surviving
// past the scan pass that produced it.
func (o CrossPriceOpp) IsValid() bool {
	if o.UpPrice.IsNegative() || o.DownPrice.IsNegative() {
		return false
	}
	return o.TotalCost.LessThan(decimal.NewFromInt(1))
}

// ————————————————————————————————————————————————————————————————————————
// Paper trading
// ————————————————————————————————————————————————————————————————————————

// PaperPosition is a simulated holding opened by CrossPricePaperTrader.Enter.
// It is mutated exactly once, by Settle or explicit cancellation; after
// reaching a terminal Status it is immutable.
type PaperPosition struct {
	ID               int64
	Symbol           string
	UpShares         decimal.Decimal
	DownShares       decimal.Decimal
	EntryUpPrice     decimal.Decimal
	EntryDownPrice   decimal.Decimal
	EntryTotalCost   decimal.Decimal
	PositionSizeUSD  decimal.Decimal
	OpenedAt         time.Time
	ExpiresAt        time.Time
	Status           PositionStatus
	RealizedPnL      decimal.Decimal
	WinningSide      Side // set by Settle; zero value before settlement
}

// CompletedTrade is the read-only ledger record written on every terminal
// position transition (settlement or cancellation).
type CompletedTrade struct {
	PositionID      int64
	Symbol          string
	EntryUpPrice    decimal.Decimal
	EntryDownPrice  decimal.Decimal
	PositionSizeUSD decimal.Decimal
	ExitPayoutUSD   decimal.Decimal
	RealizedPnL     decimal.Decimal
	OpenedAt        time.Time
	ClosedAt        time.Time
	WinningSide     Side
}

// ScannerStats holds monotonic detector counters and the time of the last
// scan.
type ScannerStats struct {
	ScanCount         int64
	OpportunitiesSeen int64
	TradesEntered     int64
	ClientErrors      int64
	LastScanAt        time.Time
}

// TraderSummary holds monotonic trader counters plus derived ratios.
type TraderSummary struct {
	InitialBalance decimal.Decimal
	CashBalance    decimal.Decimal
	OpenPositions  int
	TradeCount     int
	Wins           int
	Losses         int
	RealizedPnL    decimal.Decimal
	WinRate        decimal.Decimal
}

// ————————————————————————————————————————————————————————————————————————
// Order signing (secondary core concern — §4.6)
// ————————————————————————————————————————————————————————————————————————

// OrderSignData is the twelve-field EIP-712 Order struct signed for
// potential live execution. Field encoding is byte-exact per spec.md §6:
// uint256 fields are 32-byte big-endian, addresses are left-padded to 32
// bytes, Side/SignatureType are left-padded single bytes.
type OrderSignData struct {
	Salt          string // decimal string, fits a uint256
	Maker         string // 0x-prefixed address
	Signer        string // 0x-prefixed address
	Taker         string // 0x-prefixed address, zero address = open order
	TokenID       string // decimal string, fits a uint256
	MakerAmount   string // decimal string, fits a uint256
	TakerAmount   string // decimal string, fits a uint256
	Expiration    string // unix timestamp as decimal string, "0" = no expiry
	Nonce         string // decimal string
	FeeRateBps    string // decimal string
	OrderSide     uint8  // 0 = BUY, 1 = SELL
	SignatureType SignatureType
}
