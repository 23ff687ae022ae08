package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyluth/warren/internal/ingest"
	"github.com/dyluth/warren/internal/logging"
	"github.com/dyluth/warren/internal/printer"
)

var (
	ingestPort        int
	ingestCSV         string
	ingestDatabaseURL string
	ingestRateLimit   float64
	ingestBurst       int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the response collection service",
}

var ingestServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept finished wide rows over HTTP",
	Long: `Serve POST /api/appendRow and GET /api/health.

Configuration is read from the environment (PORT, INGEST_SECRET, CSV_DIR,
CSV_FILE, DATABASE_URL, RATE_LIMIT, RATE_BURST); flags override it. Rows are
appended to the CSV file, inserted into Postgres, or both.

Examples:
  INGEST_SECRET=s3cret warren ingest serve --port 3000 --csv data/responses.csv
  INGEST_SECRET=s3cret warren ingest serve --database-url postgres://localhost/warren`,
	Args: cobra.NoArgs,
	RunE: runIngestServe,
}

func init() {
	ingestServeCmd.Flags().IntVar(&ingestPort, "port", 0, "Port to listen on (overrides PORT)")
	ingestServeCmd.Flags().StringVar(&ingestCSV, "csv", "", "CSV file path (overrides CSV_DIR and CSV_FILE)")
	ingestServeCmd.Flags().StringVar(&ingestDatabaseURL, "database-url", "", "Postgres DSN (overrides DATABASE_URL)")
	ingestServeCmd.Flags().Float64Var(&ingestRateLimit, "rate-limit", 0, "Accepted appends per second, 0 disables (overrides RATE_LIMIT)")
	ingestServeCmd.Flags().IntVar(&ingestBurst, "burst", 0, "Rate limit burst (overrides RATE_BURST)")

	ingestCmd.AddCommand(ingestServeCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestServe(cmd *cobra.Command, args []string) error {
	cfg, err := ingest.ReadServiceConfig()
	if err != nil {
		return printer.Error("invalid ingest configuration", err.Error())
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = ingestPort
	}
	if ingestCSV != "" {
		cfg.CSVPath = filepath.Clean(ingestCSV)
	}
	if ingestDatabaseURL != "" {
		cfg.DatabaseURL = ingestDatabaseURL
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.RateLimit = ingestRateLimit
	}
	if cmd.Flags().Changed("burst") {
		cfg.RateBurst = ingestBurst
	}
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid ingest configuration", err.Error(),
			"Set CSV_FILE or DATABASE_URL, or pass --csv or --database-url")
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Info("Collecting rows on %s\n", cfg.Addr())
	if err := ingest.Serve(ctx, cfg, logging.Component(log, "ingest")); err != nil {
		return printer.ErrorWithContext("ingest service failed", err.Error(),
			map[string]string{"addr": cfg.Addr()})
	}
	return nil
}
