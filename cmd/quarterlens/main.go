// quarterlens — Quarterly results screener for Indian equities
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rsampath/quarterlens/api"
	"github.com/rsampath/quarterlens/internal/calendar"
	"github.com/rsampath/quarterlens/internal/config"
	"github.com/rsampath/quarterlens/internal/logger"
	"github.com/rsampath/quarterlens/internal/resolver"
	"github.com/rsampath/quarterlens/internal/scrape"
	"github.com/rsampath/quarterlens/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quarterlens",
	Short: "quarterlens — quarterly results screener for Indian equities",
	Long: `quarterlens scrapes quarterly financial results for Indian-listed
companies, computes QoQ/YoY growth, resolves company names to NSE
symbols, tracks the exchange's forthcoming-results calendar, and
serves everything over a small HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := logger.InitWithConfig(logger.LogConfig{
			Level:           cfg.Logging.Level,
			Format:          cfg.Logging.Format,
			DetailedLogging: cfg.Logging.Detailed,
			TracingEnabled:  cfg.Logging.Tracing,
			ServiceVersion:  version,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(upcomingCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quarterlens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = logger.Shutdown(ctx)
		}()

		srv, err := api.NewServer(cfg)
		if err != nil {
			return fmt.Errorf("failed to build server: %w", err)
		}

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("🌐 Starting quarterlens API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Scrape Command ---

var scrapeCmd = &cobra.Command{
	Use:   "scrape [symbols...]",
	Short: "Fetch quarterly results for one or more symbols",
	Long: `Fetch quarterly results from the screener site and print them as JSON.

Examples:
  quarterlens scrape TCS
  quarterlens scrape RELIANCE INFY HDFCBANK`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		screener := scrape.NewScreener(scrape.Options{
			BaseURL:     cfg.Scraper.BaseURL,
			Timeout:     time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
			BatchDelay:  time.Duration(cfg.Scraper.BatchDelayMs) * time.Millisecond,
			MaxQuarters: cfg.Scraper.MaxQuarters,
			CacheTTL:    time.Duration(cfg.Scraper.CacheTTL) * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if len(args) == 1 {
			symbol := utils.NormalizeSymbol(args[0])
			fmt.Printf("🔍 Fetching %s\n", symbol)
			report, err := screener.FetchReport(ctx, symbol)
			if err != nil {
				return err
			}
			return printJSON(report)
		}

		fmt.Printf("🔍 Fetching %d symbols\n", len(args))
		results, errs := screener.FetchBatch(ctx, args, func(symbol string, done, total int, err error) {
			if err != nil {
				fmt.Printf("  [%d/%d] ❌ %s: %v\n", done, total, symbol, err)
				return
			}
			fmt.Printf("  [%d/%d] ✅ %s\n", done, total, symbol)
		})

		fmt.Printf("\n✅ %d succeeded, ❌ %d failed\n\n", len(results), len(errs))
		return printJSON(map[string]interface{}{
			"results": results,
			"errors":  errs,
		})
	},
}

// --- Upcoming Command ---

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List companies with quarterly results due",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		index := resolver.NewIndex(resolver.IndexOptions{
			URL:       cfg.Index.EquityListURL,
			HomeURL:   cfg.Index.HomeURL,
			Timeout:   time.Duration(cfg.Index.TimeoutSeconds) * time.Second,
			BatchSize: cfg.Index.BatchSize,
		})

		fmt.Println("📇 Loading symbol index...")
		if err := index.Load(ctx); err != nil {
			return fmt.Errorf("failed to load symbol index: %w", err)
		}
		fmt.Printf("   %d companies indexed\n\n", index.Size())

		cal := calendar.New(calendar.Options{
			URL:            cfg.Calendar.URL,
			AllowedDomains: cfg.Calendar.AllowedDomains,
			Timeout:        time.Duration(cfg.Calendar.TimeoutSeconds) * time.Second,
			CacheTTL:       time.Duration(cfg.Calendar.CacheTTL) * time.Second,
		}, resolver.New(index))

		results, err := cal.Upcoming(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("📅 No upcoming results found")
			return nil
		}

		fmt.Printf("📅 Upcoming results (%d companies)\n\n", len(results))
		fmt.Printf("  %-8s %-12s %-12s %s\n", "CODE", "SYMBOL", "DATE", "COMPANY")
		for _, r := range results {
			fmt.Printf("  %-8s %-12s %-12s %s\n", r.Code, r.Symbol, r.Date, r.Company)
		}
		return nil
	},
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
