package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"intraday-exit-lab/internal/config"
	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/marketdata"
	"intraday-exit-lab/internal/normalization"
	"intraday-exit-lab/internal/observability"
	"intraday-exit-lab/internal/storage"
	chstore "intraday-exit-lab/internal/storage/clickhouse"
	"intraday-exit-lab/internal/storage/memory"
	"intraday-exit-lab/internal/storage/migrations"
)

// polygonWSEndpoint is the delayed-data cluster; real-time needs a paid plan.
const polygonWSEndpoint = "wss://delayed.polygon.io/stocks"

// flushInterval bounds how long a live bar sits in the write buffer.
const flushInterval = 15 * time.Second

// flushBatchSize triggers an early flush when the buffer fills.
const flushBatchSize = 500

func main() {
	// Parse flags
	mode := flag.String("mode", "live", "Ingestion mode: live or backfill")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (defaults to SYMBOLS)")
	timeframe := flag.String("timeframe", "", "Bar timeframe: 1m, 5m, 15m (defaults to TIMEFRAME)")
	apiKey := flag.String("api-key", "", "Polygon API key (defaults to POLYGON_API_KEY)")
	wsEndpoint := flag.String("ws-endpoint", polygonWSEndpoint, "Polygon WebSocket endpoint for live mode")
	fromStr := flag.String("from", "", "Start date for backfill (YYYY-MM-DD)")
	toStr := flag.String("to", "", "End date for backfill (YYYY-MM-DD)")
	resample := flag.String("resample", "", "Comma-separated timeframes to derive after backfill (5m, 15m)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (defaults to CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	// Flags fall back to the environment
	env := config.LoadEnv()
	if *apiKey == "" {
		*apiKey = env.PolygonAPIKey
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = env.ClickhouseDSN
	}
	if *timeframe == "" {
		*timeframe = env.Timeframe
	}
	symbols := env.Symbols
	if *symbolsFlag != "" {
		symbols = parseCommaList(*symbolsFlag)
	}

	if *apiKey == "" {
		logger.Fatal("--api-key or POLYGON_API_KEY is required")
	}
	if len(symbols) == 0 {
		logger.Fatal("--symbols or SYMBOLS is required")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
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

	// Create bar store
	var barStore storage.BarStore = memory.NewBarStore()
	if !*useMemory {
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required when not using --use-memory")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
	}

	// Run based on mode
	var err error
	switch *mode {
	case "live":
		err = runLive(ctx, logger, *wsEndpoint, *apiKey, symbols, barStore)
	case "backfill":
		err = runBackfill(ctx, logger, *apiKey, symbols, *timeframe, *fromStr, *toStr, parseCommaList(*resample), barStore)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runLive consumes minute aggregates over WebSocket and batches them
// into the bar store.
func runLive(ctx context.Context, logger *log.Logger, wsEndpoint, apiKey string, symbols []string, barStore storage.BarStore) error {
	stream, err := marketdata.NewAggregateStream(ctx, wsEndpoint, apiKey, symbols, nil)
	if err != nil {
		return fmt.Errorf("connect to aggregate stream: %w", err)
	}
	defer stream.Close()

	logger.Printf("Streaming minute bars for %v", symbols)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	pending := make([]*domain.Bar, 0, flushBatchSize)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := barStore.InsertBulk(ctx, pending); err != nil {
			logger.Printf("store %d bars: %v", len(pending), err)
			observability.RecordIngestionError("store")
		} else {
			observability.RecordBarsStored(len(pending))
			observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case <-ticker.C:
			flush()
		case bar, ok := <-stream.Bars():
			if !ok {
				flush()
				return nil
			}
			observability.RecordBarIngested(bar.Symbol)
			pending = append(pending, bar)
			if len(pending) >= flushBatchSize {
				flush()
			}
		}
	}
}

// runBackfill fetches historical bars over REST, one symbol at a time,
// then derives any requested coarser timeframes from the stored minute
// bars.
func runBackfill(ctx context.Context, logger *log.Logger, apiKey string, symbols []string, timeframe, fromStr, toStr string, resample []string, barStore storage.BarStore) error {
	if fromStr == "" || toStr == "" {
		return fmt.Errorf("--from and --to are required for backfill mode")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("--to is before --from")
	}

	client := marketdata.NewPolygonClient(apiKey)

	for _, symbol := range symbols {
		logger.Printf("Backfilling %s %s bars: %s to %s", symbol, timeframe, fromStr, toStr)

		bars, err := client.GetBars(ctx, symbol, timeframe, from, to)
		if err != nil {
			observability.RecordIngestionError("fetch")
			return fmt.Errorf("fetch bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			logger.Printf("No bars returned for %s", symbol)
			continue
		}

		if err := barStore.InsertBulk(ctx, bars); err != nil {
			observability.RecordIngestionError("store")
			return fmt.Errorf("store bars for %s: %w", symbol, err)
		}

		observability.RecordBarsStored(len(bars))
		logger.Printf("Stored %d bars for %s", len(bars), symbol)
	}

	if len(resample) > 0 && timeframe != domain.Timeframe1Min {
		return fmt.Errorf("--resample requires 1m source bars, got %s", timeframe)
	}
	resampler := normalization.NewRunner(barStore)
	for _, target := range resample {
		for _, symbol := range symbols {
			n, err := resampler.ResampleRange(ctx, symbol, target, from, to.Add(24*time.Hour))
			if err != nil {
				return fmt.Errorf("resample %s to %s: %w", symbol, target, err)
			}
			logger.Printf("Derived %d %s bars for %s", n, target, symbol)
		}
	}

	observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
	return nil
}

// parseCommaList parses a comma-separated list and trims whitespace.
func parseCommaList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
