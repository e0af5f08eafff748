package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FetchConfig holds configuration for the fetch command.
type FetchConfig struct {
	Indexer    IndexerConfig
	Enrichment EnrichmentConfig
	Chains     []int64
	Limit      int
	Scope      string
	Out        string
	PGDSN      string
	LogLevel   string
}

// LoadFetch merges config file, environment variables, and flags into FetchConfig.
func LoadFetch(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v := viper.New()
	setIndexerDefaults(v)
	setEnrichmentDefaults(v)
	v.SetDefault("limit", 500)
	v.SetDefault("scope", "all")
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return FetchConfig{}, err
	}

	indexer, err := indexerConfig(v)
	if err != nil {
		return FetchConfig{}, err
	}
	enrichment, err := enrichmentConfig(v)
	if err != nil {
		return FetchConfig{}, err
	}
	chains, err := getChainIDs(v, "chains")
	if err != nil {
		return FetchConfig{}, err
	}

	cfg := FetchConfig{
		Indexer:    indexer,
		Enrichment: enrichment,
		Chains:     chains,
		Limit:      v.GetInt("limit"),
		Scope:      v.GetString("scope"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
		LogLevel:   v.GetString("log-level"),
	}
	if cfg.Limit < 1 {
		return FetchConfig{}, fmt.Errorf("limit must be positive, got %d", cfg.Limit)
	}
	switch cfg.Scope {
	case "all", "user", "vault":
	default:
		return FetchConfig{}, fmt.Errorf("scope must be all, user or vault, got %q", cfg.Scope)
	}
	if cfg.Out == "" && cfg.PGDSN == "" {
		return FetchConfig{}, fmt.Errorf("out or pg-dsn is required")
	}
	return cfg, nil
}
