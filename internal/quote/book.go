// book.go mirrors the best-ask price for both outcome tokens of every
// tracked symbol, fed by Stream's tick events. It exists purely as a
// fallback: the detector's REST fetch (Client.FetchQuotes) is always the
// authoritative source for a scan pass, and the loop's settlement step
// consults Book only when its settlement-time REST fetch returns no quote.
package quote

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// bookEntry is the last tick observed for one symbol.
type bookEntry struct {
	upPrice   decimal.Decimal
	downPrice decimal.Decimal
	updated   time.Time
}

// Book is a concurrency-safe mirror of the latest tick per symbol.
type Book struct {
	mu      sync.RWMutex
	entries map[string]bookEntry
}

// NewBook creates an empty mirror.
func NewBook() *Book {
	return &Book{entries: make(map[string]bookEntry)}
}

// ApplyTick records the latest observed prices for a symbol. Malformed price
// strings are dropped silently; the REST path remains authoritative.
func (b *Book) ApplyTick(symbol, upPrice, downPrice string) {
	up, err1 := decimal.NewFromString(upPrice)
	down, err2 := decimal.NewFromString(downPrice)
	if err1 != nil || err2 != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[symbol] = bookEntry{upPrice: up, downPrice: down, updated: time.Now()}
}

// Last returns the most recent tick for a symbol if one exists and is no
// older than maxAge; otherwise ok is false and both prices are zero.
func (b *Book) Last(symbol string, maxAge time.Duration) (up, down decimal.Decimal, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, found := b.entries[symbol]
	if !found || time.Since(e.updated) > maxAge {
		return decimal.Zero, decimal.Zero, false
	}
	return e.upPrice, e.downPrice, true
}
