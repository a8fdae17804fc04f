package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"solana-curve-maker/internal/backtest"
	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/engine"
	"solana-curve-maker/internal/logging"
	chstore "solana-curve-maker/internal/storage/clickhouse"
	"solana-curve-maker/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/engine.yaml", "Engine config (strategy, market cap rules, limits)")
	mint := flag.String("mint", "", "Mint to backtest (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	from := flag.String("from", "", "Start time, RFC3339 (default: 24h before -to)")
	to := flag.String("to", "", "End time, RFC3339 (default: now)")
	quote := flag.Float64("quote", 10, "Starting SOL balance")
	supply := flag.Float64("supply", 1_000_000_000, "Token supply in UI units")
	complete := flag.Bool("complete", true, "Treat the bonding curve as completed so sell rules may fire")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verify := flag.Bool("verify", false, "Run the replay twice and check both runs agree")
	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *mint == "" {
		logger.Fatal("--mint is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	end := time.Now().UTC()
	if *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			logger.Fatalf("Invalid --to: %v", err)
		}
		end = t
	}
	begin := end.Add(-24 * time.Hour)
	if *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			logger.Fatalf("Invalid --from: %v", err)
		}
		begin = t
	}

	provider, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	zl, err := logging.New(provider.Current().Logging)
	if err != nil {
		logger.Fatalf("Build logger: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Connect to clickhouse: %v", err)
	}
	defer conn.Close()

	candles, err := chstore.NewCandleStore(conn).GetRange(ctx, *mint, begin.UnixMilli(), end.UnixMilli())
	if err != nil {
		logger.Fatalf("Load candles: %v", err)
	}
	logger.Printf("Replaying %d candles for %s from %s to %s",
		len(candles), *mint, begin.Format(time.RFC3339), end.Format(time.RFC3339))

	opts := backtest.Options{
		Mint:         *mint,
		Candles:      candles,
		Config:       provider,
		QuoteBalance: *quote,
		SupplyUI:     *supply,
		Complete:     *complete,
		Logger:       zl,
	}
	res, err := backtest.Run(ctx, opts)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}

	if *verify {
		again, err := backtest.Run(ctx, opts)
		if err != nil {
			logger.Fatalf("Verification run failed: %v", err)
		}
		report := verification.CompareRuns(res, again)
		if !report.OK() {
			for _, d := range report.Divergences {
				logger.Printf("Divergence %s: expected %v, got %v", d.Field, d.Expected, d.Actual)
			}
			for _, r := range report.Results {
				for _, d := range r.Divergences {
					logger.Printf("Divergence %s.%s: expected %v, got %v", r.ID, d.Field, d.Expected, d.Actual)
				}
			}
			logger.Fatalf("Backtest is not deterministic: %d of %d trades diverged", report.Divergent, report.Total)
		}
		logger.Printf("Verified: %d trades reproduced", report.Matched)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(output))
		return
	}
	printResults(res)
}

func printResults(r *backtest.Results) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Mint:               %s\n", r.Mint)
	fmt.Printf("Cycles:             %d\n", r.Cycles)
	fmt.Printf("Trades:             %d\n", len(r.Trades))
	fmt.Println()

	fmt.Println("Outcomes:")
	outcomes := make([]string, 0, len(r.Outcomes))
	for o := range r.Outcomes {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Printf("  %-18s %d\n", o+":", r.Outcomes[engine.Outcome(o)])
	}
	fmt.Println()

	fmt.Println("Balances:")
	fmt.Printf("  Start Quote:      %.6f SOL\n", r.StartQuote)
	fmt.Printf("  Final Quote:      %.6f SOL\n", r.FinalQuote)
	fmt.Printf("  Final Tokens:     %.2f\n", r.FinalTokens)
	fmt.Printf("  Final Price:      %.10f SOL\n", r.FinalPrice)
	fmt.Printf("  Final Value:      %.6f SOL\n", r.FinalValue)
	fmt.Println()

	fmt.Println("Performance:")
	fmt.Printf("  Return:           %.2f%%\n", r.ReturnPercent)
	fmt.Printf("  Max Drawdown:     %.2f%%\n", r.MaxDrawdownPercent)

	if len(r.Trades) > 0 {
		fmt.Println()
		fmt.Println("Trades:")
		for _, t := range r.Trades {
			fmt.Printf("  %s  %-4s %-18s %.6f @ %.10f\n",
				t.At.Format(time.RFC3339), t.Action, t.Rule, t.Amount, t.Price)
		}
	}
}
