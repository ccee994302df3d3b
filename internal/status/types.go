// Package status implements the optional read-only dashboard: an HTTP/WS
// server that publishes scanner and trader state for external observation.
// Disabled by default (config.DashboardConfig.Enabled); nothing here
// affects the scan loop's behavior.
//
// Adapted from internal/api's Hub/Client/Server/Handlers/Snapshot shape,
// repointed at ScannerStats/TraderSummary/CrossPriceOpp/PaperPosition
// instead of per-market quote and fill events — there is no per-market fan
// out here, only a single aggregate snapshot per pass.
package status

import (
	"time"

	"cross-price-arb/pkg/types"
)

// Snapshot is the full dashboard payload, rebuilt every pass and pushed to
// every connected client.
type Snapshot struct {
	Timestamp     time.Time             `json:"timestamp"`
	Stats         types.ScannerStats    `json:"stats"`
	Summary       types.TraderSummary   `json:"summary"`
	Opportunities []types.CrossPriceOpp `json:"opportunities"`
	Positions     []types.PaperPosition `json:"positions"`
}

// Event wraps a Snapshot (or, in the future, finer-grained events) for
// broadcast over the WebSocket channel.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Provider supplies the parts of a Snapshot the loop's Report call doesn't
// carry. paper.Trader satisfies it directly.
type Provider interface {
	Positions() []types.PaperPosition
}
