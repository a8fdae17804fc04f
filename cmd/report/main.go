package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/reporting"
	pgstore "solana-curve-maker/internal/storage/postgres"
	"solana-curve-maker/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Engine config; supplies the asset list and postgres DSN")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	mints := flag.String("mint", "", "Comma-separated mints (default: enabled assets from config)")
	verify := flag.Bool("verify", false, "Check every execution row for consistency; exit 2 on divergence")
	flag.Parse()

	ctx := context.Background()

	dsn := *postgresDSN
	var assets []string
	if *configPath != "" {
		provider, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg := provider.Current()
		if dsn == "" {
			dsn = cfg.Storage.PostgresDSN
		}
		for _, a := range cfg.EnabledAssets() {
			assets = append(assets, a.Mint)
		}
	}
	if *mints != "" {
		assets = splitMints(*mints)
	}

	// Validate flags
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn (or storage.postgres_dsn in --config) is required")
		os.Exit(1)
	}
	if len(assets) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no mints given; use --mint or --config")
		os.Exit(1)
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	executions := pgstore.NewExecutionStore(pool)
	gen := reporting.NewGenerator(executions)
	if err := writeReports(ctx, gen, assets, *outputDir, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating reports: %v\n", err)
		os.Exit(1)
	}

	if *verify {
		ok, err := verifyAudit(ctx, verification.NewAuditVerifier(executions), assets, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error verifying executions: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(2)
		}
	}
}

// verifyAudit prints one line per mint plus every divergence, and reports
// whether all rows were consistent.
func verifyAudit(ctx context.Context, v *verification.AuditVerifier, mints []string, out io.Writer) (bool, error) {
	ok := true
	for _, mint := range mints {
		report, err := v.VerifyMint(ctx, mint)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Verified %s: %d/%d rows consistent\n", mint, report.Matched, report.Total)
		for _, r := range report.Results {
			for _, d := range r.Divergences {
				fmt.Fprintf(out, "  %s %s: expected %v, got %v\n", r.ID, d.Field, d.Expected, d.Actual)
			}
		}
		ok = ok && report.OK()
	}
	return ok, nil
}

// writeReports renders one Markdown and one CSV file per mint into dir.
func writeReports(ctx context.Context, gen *reporting.Generator, mints []string, dir string, out io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	fmt.Fprintln(out, "Execution reports generated successfully:")
	for _, mint := range mints {
		r, err := gen.Generate(ctx, mint)
		if err != nil {
			return err
		}

		mdPath := filepath.Join(dir, "EXECUTIONS_"+mint+".md")
		if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", mdPath, err)
		}
		csvPath := filepath.Join(dir, "EXECUTIONS_"+mint+".csv")
		if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(r.Executions)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}

		fmt.Fprintf(out, "  - %s (%d settlements)\n", mdPath, r.Summary.Total)
		fmt.Fprintf(out, "  - %s\n", csvPath)
	}
	return nil
}

func splitMints(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
