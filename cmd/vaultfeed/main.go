package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "vaultfeed",
		Short:        "Cross-chain vault activity feed",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the activity API",
		RunE:  runServe,
	}

	addIndexerFlags(serveCmd.Flags())
	addEnrichmentFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Int("default-limit", 50, "default per-type limit for /api/activity")
	serveCmd.Flags().Int("max-limit", 3000, "maximum per-type limit for /api/activity")
	serveCmd.Flags().Int("initial-limit", 500, "per-type limit of the initial feed")
	serveCmd.Flags().Int("background-limit", 3000, "per-type limit of the background refresh")
	serveCmd.Flags().Bool("background-enabled", true, "fetch a larger batch after each reload")
	serveCmd.Flags().Duration("reload-interval", 30*time.Second, "feed reload interval, 0 disables")
	serveCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the strategy name store")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch recent activity once and archive it",
		RunE:  runFetch,
	}

	addIndexerFlags(fetchCmd.Flags())
	addEnrichmentFlags(fetchCmd.Flags())
	fetchCmd.Flags().Int("limit", 500, "per-type, per-chain event limit")
	fetchCmd.Flags().String("scope", "all", "event types to fetch (all, user, vault)")
	fetchCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path, empty to skip")
	fetchCmd.Flags().String("pg-dsn", "", "Postgres DSN for the event archive")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Render a feed view from archived events",
		RunE:  runShow,
	}

	showCmd.Flags().String("in", "./data/events.jsonl", "input events JSONL")
	showCmd.Flags().String("view", "user", "view (user, vault)")
	showCmd.Flags().String("vault", "", "only events of this vault address")
	showCmd.Flags().Int64("chain", 0, "only events of this chain id, 0 means all")
	showCmd.Flags().String("type", "", "only events of this type")
	showCmd.Flags().Bool("show-redundant", false, "keep debt updates caused by withdrawals")
	showCmd.Flags().Int("limit-per-category", 0, "cap on events in the view, 0 means none")
	showCmd.Flags().Int("page", 1, "page number")
	showCmd.Flags().Int("page-size", 50, "rows per page")
	showCmd.Flags().String("format", "table", "output format (table, json)")
	showCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(showCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addIndexerFlags(flags *pflag.FlagSet) {
	flags.String("envio-url", "http://localhost:8080/v1/graphql", "indexer GraphQL endpoint")
	flags.Duration("envio-timeout", 30*time.Second, "indexer request timeout")
	flags.StringSlice("chains", nil, "chain ids to query (comma-separated), empty means all supported")
	flags.Int("max-retries", 3, "maximum retry attempts per indexer query")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.Duration("query-cache-ttl", 30*time.Second, "indexer response cache TTL, 0 disables expiry")
	flags.Int("query-cache-size", 64, "indexer response cache entries, 0 disables the cache")
}

func addEnrichmentFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "per-chain RPC URLs (comma-separated chainId=url)")
	flags.Float64("rpc-rps", 10, "RPC requests per second per chain, 0 disables limiting")
	flags.Int("rpc-burst", 10, "RPC burst per chain")
	flags.Int("strategy-max-requests", 24, "strategy names resolved before the first render")
	flags.Duration("strategy-timeout", 3*time.Second, "deadline of the first-render name prefetch")
	flags.Int("strategy-concurrency", 8, "concurrent name lookups, shared across chains")
	flags.Int("name-cache-size", 4096, "strategy name cache entries")
	flags.Duration("name-cache-ttl", 24*time.Hour, "strategy name cache TTL")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
