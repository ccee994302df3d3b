// Package paper implements CrossPricePaperTrader, a simulated ledger that
// enters both outcome legs of a detected opportunity at their observed ask
// prices and settles them against the winning side at resolution.
//
// Grounded on the teacher's position/pnl bookkeeping (no live order
// placement, no book impact — a position is just cash debited against
// shares credited) generalized to a two-leg entry per spec.md §4.4, and on
// original_source/src/trader/mod.rs for the settlement payout rule: the
// winning side pays out $1/share, the losing side $0/share.
package paper

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"cross-price-arb/internal/config"
	"cross-price-arb/internal/quote"
	"cross-price-arb/pkg/types"
)

var (
	one      = decimal.NewFromInt(1)
	zero     = decimal.Zero
	sharesDP = int32(4) // share quantities truncate to 4 decimal places
)

// SettlementSource resolves which side won a symbol once its window has
// expired. NewQuoteSettlementSource adapts the quote client and the tick
// Book into one: it prefers a fresh REST quote and falls back to a recent
// tick from the Book.
type SettlementSource interface {
	Settle(ctx context.Context, symbol string) (winningSide types.Side, ok bool)
}

// Trader is the paper-trading ledger. It is driven by the loop; Enter and
// Settle are not safe to call concurrently with each other (single-task
// model, spec.md §5).
type Trader struct {
	cfg    config.PaperConfig
	logger *slog.Logger

	cash       decimal.Decimal
	nextID     int64
	positions  map[int64]*types.PaperPosition
	bySymbol   map[string]int64 // open position id per symbol, enforces one open position per symbol
	trades     []types.CompletedTrade
	wins       int
	losses     int
	realizedPL decimal.Decimal
}

// New builds a Trader seeded with cfg.InitialBalance of simulated cash.
func New(cfg config.PaperConfig, logger *slog.Logger) *Trader {
	return &Trader{
		cfg:       cfg,
		logger:    logger.With("component", "paper-trader"),
		cash:      decimal.NewFromFloat(cfg.InitialBalance),
		positions: make(map[int64]*types.PaperPosition),
		bySymbol:  make(map[string]int64),
	}
}

// Enter opens a two-leg position against opp sized at sizeUSD, buying the
// same number of shares on both the UP and DOWN legs (spec.md §3/§4.4:
// up_shares = down_shares = size_usd / total_cost) so the settlement payout
// never falls short of committed capital regardless of which side wins. It
// refuses the trade (returning false) if: sizeUSD is below the configured
// minimum, a position on the symbol is already open, the opportunity has
// gone stale (IsValid), or cash is insufficient — cash conservation is
// never violated (spec.md §8 property 1).
func (t *Trader) Enter(opp types.CrossPriceOpp, sizeUSD decimal.Decimal) bool {
	if sizeUSD.LessThan(decimal.NewFromFloat(t.cfg.MinPosition)) {
		t.logger.Debug("position size below minimum, skipping", "symbol", opp.Symbol)
		return false
	}
	if _, open := t.bySymbol[opp.Symbol]; open {
		return false
	}
	if !opp.IsValid() {
		t.logger.Warn("opportunity stale at entry, skipping", "symbol", opp.Symbol)
		return false
	}
	if sizeUSD.GreaterThan(t.cash) {
		t.logger.Warn("insufficient cash for position, skipping", "symbol", opp.Symbol, "size", sizeUSD)
		return false
	}

	shares := sizeUSD.Div(opp.TotalCost).Truncate(sharesDP)
	entryCost := shares.Mul(opp.TotalCost)

	t.nextID++
	pos := &types.PaperPosition{
		ID:              t.nextID,
		Symbol:          opp.Symbol,
		UpShares:        shares,
		DownShares:      shares,
		EntryUpPrice:    opp.UpPrice,
		EntryDownPrice:  opp.DownPrice,
		EntryTotalCost:  entryCost,
		PositionSizeUSD: sizeUSD,
		OpenedAt:        time.Now(),
		ExpiresAt:       time.Now().Add(time.Duration(opp.SecondsRemaining) * time.Second),
		Status:          types.Open,
	}

	t.cash = t.cash.Sub(entryCost)
	t.positions[pos.ID] = pos
	t.bySymbol[opp.Symbol] = pos.ID

	t.logger.Info("paper position opened",
		"symbol", pos.Symbol, "size_usd", sizeUSD, "shares", shares)
	return true
}

// SettleDue scans open positions whose ExpiresAt has passed, resolves each
// via src, and credits the payout back to cash. A position whose symbol
// cannot be resolved (src.Settle reports !ok) is left open for the next
// pass rather than guessed at.
func (t *Trader) SettleDue(ctx context.Context, src SettlementSource) {
	now := time.Now()
	for id, pos := range t.positions {
		if pos.Status != types.Open || pos.ExpiresAt.After(now) {
			continue
		}
		side, ok := src.Settle(ctx, pos.Symbol)
		if !ok {
			continue
		}
		t.settlePosition(id, side)
	}
}

func (t *Trader) settlePosition(id int64, winningSide types.Side) {
	pos := t.positions[id]

	var payout decimal.Decimal
	switch winningSide {
	case types.Up:
		payout = pos.UpShares.Mul(one)
	case types.Down:
		payout = pos.DownShares.Mul(one)
	default:
		payout = zero
	}

	pnl := payout.Sub(pos.EntryTotalCost)

	pos.Status = types.Settled
	pos.RealizedPnL = pnl
	pos.WinningSide = winningSide

	t.cash = t.cash.Add(payout)
	t.realizedPL = t.realizedPL.Add(pnl)
	if pnl.IsPositive() {
		t.wins++
	} else if pnl.IsNegative() {
		t.losses++
	}

	t.trades = append(t.trades, types.CompletedTrade{
		PositionID:      pos.ID,
		Symbol:          pos.Symbol,
		EntryUpPrice:    pos.EntryUpPrice,
		EntryDownPrice:  pos.EntryDownPrice,
		PositionSizeUSD: pos.PositionSizeUSD,
		ExitPayoutUSD:   payout,
		RealizedPnL:     pnl,
		OpenedAt:        pos.OpenedAt,
		ClosedAt:        time.Now(),
		WinningSide:     winningSide,
	})

	delete(t.bySymbol, pos.Symbol)
	t.logger.Info("paper position settled",
		"symbol", pos.Symbol, "winning_side", winningSide, "pnl", pnl)
}

// Balance returns the current simulated cash balance.
func (t *Trader) Balance() decimal.Decimal { return t.cash }

// OpenExposure sums PositionSizeUSD across every open position — the
// aggregate exposure figure the risk guard checks before a new entry.
func (t *Trader) OpenExposure() decimal.Decimal {
	total := zero
	for _, p := range t.positions {
		if p.Status == types.Open {
			total = total.Add(p.PositionSizeUSD)
		}
	}
	return total
}

// Trades returns the completed-trade ledger in settlement order.
func (t *Trader) Trades() []types.CompletedTrade { return t.trades }

// Positions returns every open position, for the dashboard snapshot.
func (t *Trader) Positions() []types.PaperPosition {
	open := make([]types.PaperPosition, 0, len(t.positions))
	for _, p := range t.positions {
		if p.Status == types.Open {
			open = append(open, *p)
		}
	}
	return open
}

// Summary aggregates the trader's lifetime performance.
func (t *Trader) Summary(initialBalance decimal.Decimal) types.TraderSummary {
	open := 0
	for _, p := range t.positions {
		if p.Status == types.Open {
			open++
		}
	}

	winRate := zero
	if total := t.wins + t.losses; total > 0 {
		winRate = decimal.NewFromInt(int64(t.wins)).Div(decimal.NewFromInt(int64(total)))
	}

	return types.TraderSummary{
		InitialBalance: initialBalance,
		CashBalance:    t.cash,
		OpenPositions:  open,
		TradeCount:     len(t.trades),
		Wins:           t.wins,
		Losses:         t.losses,
		RealizedPnL:    t.realizedPL,
		WinRate:        winRate,
	}
}

// PositionSize computes the dollar size for a new entry per spec.md §4.5:
// min(max_position, cash*0.2), floored at zero once cash is exhausted.
func PositionSize(cash, maxPosition decimal.Decimal) decimal.Decimal {
	capped := maxPosition
	fraction := cash.Mul(decimal.NewFromFloat(0.2))
	if fraction.LessThan(capped) {
		capped = fraction
	}
	if capped.IsNegative() {
		return zero
	}
	return capped
}

// quoteSettlementSource adapts a quote.Client plus an optional tick Book
// into a SettlementSource: prefer a fresh REST quote, fall back to the
// Book's last tick for the symbol if it is no more than two minutes old. The
// tick's age is measured from now, not from the position's ExpiresAt.
type quoteSettlementSource struct {
	client *quote.Client
	book   *quote.Book
}

// NewQuoteSettlementSource builds the default SettlementSource used by the
// loop.
func NewQuoteSettlementSource(client *quote.Client, book *quote.Book) SettlementSource {
	return &quoteSettlementSource{client: client, book: book}
}

func (s *quoteSettlementSource) Settle(ctx context.Context, symbol string) (types.Side, bool) {
	quotes, _ := s.client.FetchQuotes(ctx, []string{symbol})
	if len(quotes) == 1 {
		return resolveSide(quotes[0].UpPrice, quotes[0].DownPrice), true
	}

	if s.book != nil {
		if up, down, ok := s.book.Last(symbol, 2*time.Minute); ok {
			return resolveSide(up, down), true
		}
	}
	return "", false
}

// resolveSide picks whichever side's ask is nearer to $1 — the resolved
// outcome token converges to $1, the losing token to $0, as the market
// settles (spec.md open question, resolved: no independent oracle is in
// scope for paper trading).
func resolveSide(up, down decimal.Decimal) types.Side {
	if up.GreaterThanOrEqual(down) {
		return types.Up
	}
	return types.Down
}
