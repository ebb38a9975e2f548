// Package main provides an HTTP server over stored backtest results:
// trade records and entry signals are queryable as JSON, and reports
// are rendered on demand as Markdown or CSV.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"intraday-exit-lab/internal/config"
	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/observability"
	"intraday-exit-lab/internal/reporting"
	"intraday-exit-lab/internal/storage"
	pgstore "intraday-exit-lab/internal/storage/postgres"
)

// Server serves stored backtest results over HTTP.
type Server struct {
	signalStore storage.EntrySignalStore
	tradeStore  storage.TradeRecordStore
	generator   *reporting.Generator
	logger      *log.Logger
	started     time.Time
}

func main() {
	// Parse flags (env vars as defaults)
	env := config.LoadEnv()
	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", env.PostgresDSN, "PostgreSQL connection string")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn or POSTGRES_DSN is required")
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

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	tradeStore := pgstore.NewTradeRecordStore(pool)
	s := &Server{
		signalStore: pgstore.NewEntrySignalStore(pool),
		tradeStore:  tradeStore,
		generator:   reporting.NewGenerator(tradeStore),
		logger:      logger,
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/signals", s.handleSignals)
	mux.HandleFunc("/api/report", s.handleReport)

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("Listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status  string    `json:"status"`
	Uptime  string    `json:"uptime"`
	Started time.Time `json:"started"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:  "running",
		Uptime:  time.Since(s.started).String(),
		Started: s.started,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleTrades returns trade records filtered by strategy_id or symbol.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	strategyID := r.URL.Query().Get("strategy_id")
	symbol := r.URL.Query().Get("symbol")
	if strategyID == "" && symbol == "" {
		httpError(w, http.StatusBadRequest, "strategy_id or symbol query parameter is required")
		return
	}

	var trades []*domain.TradeRecord
	var err error
	if strategyID != "" {
		trades, err = s.tradeStore.GetByStrategyID(r.Context(), strategyID)
	} else {
		trades, err = s.tradeStore.GetBySymbol(r.Context(), symbol)
	}
	if err != nil {
		s.logger.Printf("load trades: %v", err)
		httpError(w, http.StatusInternalServerError, "load trades failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// handleSignals returns entry signals in a time range.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "to must be RFC3339")
		return
	}

	signals, err := s.signalStore.GetByTimeRange(r.Context(), from, to)
	if err != nil {
		s.logger.Printf("load signals: %v", err)
		httpError(w, http.StatusInternalServerError, "load signals failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signals)
}

// handleReport renders a backtest report for a strategy. format=csv
// returns the trade table; anything else returns Markdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	strategyID := r.URL.Query().Get("strategy_id")
	if strategyID == "" {
		httpError(w, http.StatusBadRequest, "strategy_id query parameter is required")
		return
	}

	unresolved := 0
	if u := r.URL.Query().Get("unresolved"); u != "" {
		n, err := strconv.Atoi(u)
		if err != nil || n < 0 {
			httpError(w, http.StatusBadRequest, "unresolved must be a non-negative integer")
			return
		}
		unresolved = n
	}

	report, err := s.generator.Generate(r.Context(), strategyID, unresolved)
	if err != nil {
		s.logger.Printf("generate report: %v", err)
		httpError(w, http.StatusInternalServerError, "generate report failed")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, reporting.RenderTradesCSV(report.Trades))
		return
	}

	w.Header().Set("Content-Type", "text/markdown")
	fmt.Fprint(w, reporting.RenderMarkdown(report))
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
