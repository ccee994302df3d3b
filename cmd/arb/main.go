// Cross-price arbitrage scanner — scans Polymarket's short-horizon binary
// crypto markets for UP/DOWN price pairs that sum to less than $1, and
// either prints what it finds (scan) or paper-trades it (paper).
//
// Architecture:
//
//	cmd/arb/main.go     — entry point: cobra commands, config load, signal handling
//	internal/config     — YAML + env configuration, validated before use
//	internal/quote      — REST quote client, optional WS tick feed, best-ask mirror
//	internal/discovery  — working-set refresh: trading/resolving/expired partition
//	internal/arb        — CrossPriceScanner: detector, ranking, stats
//	internal/paper       — CrossPricePaperTrader: ledger, settlement
//	internal/loop        — ArbitrageLoop: scheduling, one-shot vs continuous
//	internal/signer      — EIP-712 auth/order signing (secondary, no live orders placed)
//	internal/risk        — aggregate exposure / daily-loss safety net
//	internal/status      — optional read-only dashboard (HTTP + WebSocket)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cross-price-arb/internal/arb"
	"cross-price-arb/internal/config"
	"cross-price-arb/internal/discovery"
	"cross-price-arb/internal/loop"
	"cross-price-arb/internal/paper"
	"cross-price-arb/internal/quote"
	"cross-price-arb/internal/risk"
	"cross-price-arb/internal/status"
	"cross-price-arb/pkg/types"
)

var cfgPath string

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to config file")
	rootCmd.AddCommand(scanCmd, paperCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arb",
	Short: "Cross-Price Arbitrage Scanner",
	Long:  "Cross-Price Arbitrage Scanner — scans Polymarket binary markets for guaranteed-profit UP/DOWN pairs.",
	// ArbitraryArgs routes an unknown subcommand to Run (help, exit 0)
	// instead of cobra's "unknown command" error.
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Cross-Price Arbitrage Scanner")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  scan   - One-time scan for opportunities")
		fmt.Println("  paper  - Run paper trading simulation (add --live for continuous)")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  arb scan")
		fmt.Println("  arb paper --live")
	},
}

var liveFlag bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "One-time scan for cross-price arbitrage opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context())
	},
}

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Run the cross-price arbitrage paper trading simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPaper(cmd.Context(), liveFlag)
	},
}

func init() {
	paperCmd.Flags().BoolVarP(&liveFlag, "live", "l", false, "run continuously instead of a single pass")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runScan loads the wider scan-mode config and runs exactly one pass,
// printing ranked opportunities and the scanner's summary stats.
func runScan(ctx context.Context) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.CrossPrice = config.ScanDefaults()
	if err := cfg.CrossPrice.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("scanning for cross-price arbitrage opportunities")

	quoteClient := quote.NewClient(cfg.API.GammaBaseURL, logger)
	disc := discovery.New(cfg.API.GammaBaseURL, 15*time.Minute, cfg.Loop.RefreshInterval, logger)
	scanner := arb.New(quoteClient, cfg.CrossPrice, logger)

	if err := disc.Refresh(ctx); err != nil {
		return fmt.Errorf("discovery refresh: %w", err)
	}

	opps, err := scanner.ScanAll(ctx, disc.WorkingSet())
	if err != nil {
		logger.Error("scan error", "error", err)
	}

	if len(opps) == 0 {
		logger.Info("no opportunities found at this time")
		logger.Info("this is normal — spreads are usually tight (< 0.5%)")
	} else {
		fmt.Printf("\nFound %d opportunities:\n\n", len(opps))
		hundred := decimal.NewFromInt(100)
		for _, opp := range opps {
			fmt.Printf(
				"%s | Up: %s¢ + Down: %s¢ = %s¢ | Spread: %s%% | %ds left\n",
				opp.Symbol,
				opp.UpPrice.Mul(hundred).StringFixed(1),
				opp.DownPrice.Mul(hundred).StringFixed(1),
				opp.TotalCost.Mul(hundred).StringFixed(1),
				opp.Spread.Mul(hundred).StringFixed(2),
				opp.SecondsRemaining,
			)
			fmt.Printf("   Expected profit on $100: $%s\n\n", opp.ExpectedProfitUSD.StringFixed(2))
		}
	}

	fmt.Println(formatScannerStats(scanner.Stats()))
	return nil
}

// runPaper loads the paper-mode config and runs the full loop, either once
// (default) or continuously until SIGINT/SIGTERM (--live).
func runPaper(ctx context.Context, live bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.CrossPrice = config.PaperDefaults()
	if err := cfg.CrossPrice.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("starting cross-price arbitrage paper trading")
	logger.Info("initial balance", "usd", cfg.Paper.InitialBalance)
	mode := "single scan"
	if live {
		mode = "live (continuous)"
	}
	logger.Info("mode", "value", mode)

	quoteClient := quote.NewClient(cfg.API.GammaBaseURL, logger)
	book := quote.NewBook()
	disc := discovery.New(cfg.API.GammaBaseURL, 15*time.Minute, cfg.Loop.RefreshInterval, logger)
	scanner := arb.New(quoteClient, cfg.CrossPrice, logger)
	trader := paper.New(cfg.Paper, logger)
	settler := paper.NewQuoteSettlementSource(quoteClient, book)

	guard := risk.NewGuard(risk.Limits{
		MaxAggregateExposure: decimal.NewFromFloat(cfg.Risk.MaxAggregateExposure),
		MaxDailyLoss:         decimal.NewFromFloat(cfg.Risk.MaxDailyLoss),
		CooldownAfter:        cfg.Risk.CooldownAfter,
	}, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream := quote.NewStream(cfg.API.WSMarketURL, book, logger)
	go func() {
		if err := stream.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("tick stream failed", "error", err)
		}
	}()
	go subscribeWorkingSet(runCtx, disc, stream, cfg.Loop.ScanInterval, logger)
	defer stream.Close()

	var dashServer *status.Server
	var hub *status.Hub
	if cfg.Dashboard.Enabled {
		hub = status.NewHub(trader, logger)
		dashServer = status.NewServer(cfg.Dashboard, hub, logger)
		go func() {
			if err := dashServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	reporter := stdoutReporter{trader: trader, hub: hub}

	l := loop.New(
		disc, scanner, trader, guard, settler, reporter,
		cfg.Loop, decimal.NewFromFloat(cfg.Paper.InitialBalance),
		decimal.NewFromFloat(cfg.CrossPrice.MaxPosition), !live, logger,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	err = l.Run(runCtx)

	if dashServer != nil {
		if stopErr := dashServer.Stop(); stopErr != nil {
			logger.Error("failed to stop dashboard", "error", stopErr)
		}
	}

	if err != nil && runCtx.Err() == nil {
		return err
	}
	return nil
}

// subscribeWorkingSet keeps the tick stream subscribed to whatever
// discovery is currently tracking, polling at the scan cadence so a market
// entering the working set gets its ticks flowing into the best-ask mirror
// before the next scan pass needs them. A Subscribe failure just means the
// stream hasn't finished (re)connecting yet; Stream.Run resubscribes to
// everything tracked so far once it reconnects, so this loop keeps polling
// rather than giving up.
func subscribeWorkingSet(ctx context.Context, disc *discovery.Discovery, stream *quote.Stream, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		working := disc.WorkingSet()
		if len(working) > 0 {
			symbols := make([]string, len(working))
			for i, e := range working {
				symbols[i] = e.Symbol
			}
			if err := stream.Subscribe(symbols); err != nil {
				logger.Debug("tick stream subscribe deferred", "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// stdoutReporter prints a status block after every pass, mirroring the
// original CLI's trader.summary()/scanner.summary() prints, and forwards the
// pass to the dashboard hub when the dashboard is enabled.
type stdoutReporter struct {
	trader *paper.Trader
	hub    *status.Hub
}

func (r stdoutReporter) Report(opps []types.CrossPriceOpp, stats types.ScannerStats, summary types.TraderSummary) {
	if r.hub != nil {
		r.hub.Report(opps, stats, summary)
	}
	fmt.Println()
	fmt.Println(formatTraderSummary(summary))
	fmt.Println(formatScannerStats(stats))
}

func formatTraderSummary(s types.TraderSummary) string {
	return fmt.Sprintf(
		"Portfolio: $%s cash | %d open | %d trades (%d won, %d lost, %s%% win rate) | Realized P&L: $%s",
		s.CashBalance.StringFixed(2),
		s.OpenPositions,
		s.TradeCount,
		s.Wins,
		s.Losses,
		s.WinRate.Mul(decimal.NewFromInt(100)).StringFixed(1),
		s.RealizedPnL.StringFixed(2),
	)
}

func formatScannerStats(s types.ScannerStats) string {
	return fmt.Sprintf(
		"Scanner: %d scans | %d opportunities seen | %d trades entered | %d client errors",
		s.ScanCount, s.OpportunitiesSeen, s.TradesEntered, s.ClientErrors,
	)
}
