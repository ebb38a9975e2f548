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

	"intraday-exit-lab/internal/backtest"
	"intraday-exit-lab/internal/config"
	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/marketdata"
	"intraday-exit-lab/internal/metrics"
	"intraday-exit-lab/internal/storage"
	chstore "intraday-exit-lab/internal/storage/clickhouse"
	"intraday-exit-lab/internal/storage/memory"
	"intraday-exit-lab/internal/storage/migrations"
	pgstore "intraday-exit-lab/internal/storage/postgres"
	"intraday-exit-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to backtest config JSON (required)")
	fromStr := flag.String("from", "", "Start of signal range, RFC3339 (required)")
	toStr := flag.String("to", "", "End of signal range, RFC3339 (required)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (defaults to POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (defaults to CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	migrate := flag.Bool("migrate", false, "Run schema migrations before the backtest")

	// Behavior
	testMode := flag.Bool("test-mode", false, "Exact-level fills and no session filter")
	verify := flag.Bool("verify", false, "Re-resolve stored trades for this config and report divergences instead of running")

	// Output
	outputJSON := flag.Bool("json", false, "Output the trade records as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	var from, to time.Time
	if !*verify {
		if *fromStr == "" || *toStr == "" {
			logger.Fatal("--from and --to are required")
		}
		var err error
		from, err = time.Parse(time.RFC3339, *fromStr)
		if err != nil {
			logger.Fatalf("invalid --from: %v", err)
		}
		to, err = time.Parse(time.RFC3339, *toStr)
		if err != nil {
			logger.Fatalf("invalid --to: %v", err)
		}
	}

	// DSN flags fall back to the environment
	env := config.LoadEnv()
	if *postgresDSN == "" {
		*postgresDSN = env.PostgresDSN
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = env.ClickhouseDSN
	}

	// Load backtest parameters
	cfg, err := config.LoadBacktestConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	var barStore storage.BarStore = memory.NewBarStore()
	var signalStore storage.EntrySignalStore = memory.NewEntrySignalStore()
	var tradeStore storage.TradeRecordStore = memory.NewTradeRecordStore()

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory (entry signals and trade records)")
		}
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required when not using --use-memory (bars)")
		}

		// PostgreSQL for entry signals and trade records
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("run postgres migrations: %v", err)
			}
		}

		signalStore = pgstore.NewEntrySignalStore(pool)
		tradeStore = pgstore.NewTradeRecordStore(pool)

		// ClickHouse for bars
		var conn *chstore.Conn
		if *migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, *clickhouseDSN)
		}
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()

		barStore = chstore.NewBarStore(conn)
	}

	// Create runner
	runner, err := backtest.NewRunner(backtest.RunnerOptions{
		Provider:    marketdata.NewProvider(barStore),
		SignalStore: signalStore,
		TradeStore:  tradeStore,
		Config:      cfg,
		TestMode:    *testMode,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("invalid backtest config: %v", err)
	}

	if *verify {
		verifier := verification.NewReplayVerifier(tradeStore, signalStore, runner)
		report, err := verifier.VerifyStrategy(ctx)
		if err != nil {
			logger.Fatalf("verification failed: %v", err)
		}
		printVerification(report)
		if report.DivergentTrades > 0 {
			os.Exit(1)
		}
		return
	}

	logger.Printf("Running backtest: strategy=%s from=%s to=%s",
		runner.StrategyID(), from.Format(time.RFC3339), to.Format(time.RFC3339))

	results, err := runner.Run(ctx, from, to)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(results.Trades, "", "  ")
		fmt.Println(string(output))
	} else {
		printSummary(runner.StrategyID(), results)
	}
}

// printVerification outputs a human-readable verification report.
func printVerification(report *verification.VerificationReport) {
	fmt.Println()
	fmt.Println("=== Verification Result ===")
	fmt.Printf("Trades:     %d\n", report.TotalTrades)
	fmt.Printf("Matched:    %d\n", report.MatchedTrades)
	fmt.Printf("Divergent:  %d\n", report.DivergentTrades)

	for _, result := range report.Results {
		if result.Match {
			continue
		}
		fmt.Printf("\n%s:\n", result.TradeID)
		for _, d := range result.Divergences {
			fmt.Printf("  %-16s stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
		}
	}
}

// printSummary outputs a human-readable run summary.
func printSummary(strategyID string, results *backtest.Results) {
	summary := metrics.Compute(strategyID, results.Trades, len(results.Unresolved))

	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Strategy:            %s\n", summary.StrategyID)
	fmt.Printf("Trades:              %d\n", summary.TotalTrades)
	fmt.Printf("Unresolved:          %d\n", summary.Unresolved)
	if summary.TotalTrades == 0 {
		return
	}

	fmt.Printf("Win Rate:            %.2f%%\n", summary.WinRate*100)
	fmt.Printf("Mean Return:         %.4f%%\n", summary.ReturnMean*100)
	fmt.Printf("Median Return:       %.4f%%\n", summary.ReturnMedian*100)
	fmt.Printf("Max Drawdown:        %.4f%%\n", summary.MaxDrawdown*100)
	fmt.Printf("Avg Hold (minutes):  %.1f\n", summary.AvgHoldMinutes)
	fmt.Println()

	reasons := make([]string, 0, len(summary.ExitReasonCounts))
	for reason := range summary.ExitReasonCounts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	fmt.Println("Exit reasons:")
	for _, reason := range reasons {
		fmt.Printf("  %-14s %d\n", reason, summary.ExitReasonCounts[domain.ExitReason(reason)])
	}
}
