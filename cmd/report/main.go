package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"intraday-exit-lab/internal/config"
	"intraday-exit-lab/internal/reporting"
	pgstore "intraday-exit-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	strategyID := flag.String("strategy-id", "", "Strategy pipeline ID to report on (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (defaults to POSTGRES_DSN)")
	outputDir := flag.String("output-dir", "", "Output directory (default: print markdown to stdout)")
	unresolved := flag.Int("unresolved", 0, "Count of unresolved signals to include in the summary")
	flag.Parse()

	ctx := context.Background()

	// Validate flags
	if *strategyID == "" {
		fmt.Fprintln(os.Stderr, "Error: --strategy-id is required")
		os.Exit(1)
	}

	env := config.LoadEnv()
	if *postgresDSN == "" {
		*postgresDSN = env.PostgresDSN
	}
	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn or POSTGRES_DSN is required")
		os.Exit(1)
	}

	// Connect to PostgreSQL
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Generate the report
	gen := reporting.NewGenerator(pgstore.NewTradeRecordStore(pool))
	report, err := gen.Generate(ctx, *strategyID, *unresolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	markdown := reporting.RenderMarkdown(report)

	// Print to stdout when no output directory is given
	if *outputDir == "" {
		fmt.Print(markdown)
		return
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing markdown report: %v\n", err)
		os.Exit(1)
	}

	csvPath := filepath.Join(*outputDir, "TRADES.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderTradesCSV(report.Trades)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing trades CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}
