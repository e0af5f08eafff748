package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vaultScope/internal/vaults"
)

const envPrefix = "VAULTFEED"

// IndexerConfig configures the GraphQL indexer client.
type IndexerConfig struct {
	URL          string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	CacheTTL     time.Duration
	CacheSize    int
}

// EnrichmentConfig configures strategy name lookups.
type EnrichmentConfig struct {
	RPCURLs       map[int64]string
	RPS           float64
	Burst         int
	MaxRequests   int
	Timeout       time.Duration
	Concurrency   int
	NameCacheSize int
	NameCacheTTL  time.Duration
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Indexer           IndexerConfig
	Enrichment        EnrichmentConfig
	Chains            []int64
	Listen            string
	DefaultLimit      int
	MaxLimit          int
	InitialLimit      int
	BackgroundLimit   int
	BackgroundEnabled bool
	ReloadInterval    time.Duration
	PGDSN             string
	LogLevel          string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v := viper.New()
	setIndexerDefaults(v)
	setEnrichmentDefaults(v)
	v.SetDefault("listen", ":8080")
	v.SetDefault("default-limit", 50)
	v.SetDefault("max-limit", 3000)
	v.SetDefault("initial-limit", 500)
	v.SetDefault("background-limit", 3000)
	v.SetDefault("background-enabled", true)
	v.SetDefault("reload-interval", 30*time.Second)
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return ServeConfig{}, err
	}

	indexer, err := indexerConfig(v)
	if err != nil {
		return ServeConfig{}, err
	}
	enrichment, err := enrichmentConfig(v)
	if err != nil {
		return ServeConfig{}, err
	}
	chains, err := getChainIDs(v, "chains")
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Indexer:           indexer,
		Enrichment:        enrichment,
		Chains:            chains,
		Listen:            v.GetString("listen"),
		DefaultLimit:      v.GetInt("default-limit"),
		MaxLimit:          v.GetInt("max-limit"),
		InitialLimit:      v.GetInt("initial-limit"),
		BackgroundLimit:   v.GetInt("background-limit"),
		BackgroundEnabled: v.GetBool("background-enabled"),
		ReloadInterval:    v.GetDuration("reload-interval"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}
	if cfg.MaxLimit < 1 {
		return ServeConfig{}, fmt.Errorf("max-limit must be positive, got %d", cfg.MaxLimit)
	}
	if cfg.DefaultLimit < 1 || cfg.DefaultLimit > cfg.MaxLimit {
		return ServeConfig{}, fmt.Errorf("default-limit must be within [1, %d], got %d", cfg.MaxLimit, cfg.DefaultLimit)
	}
	if cfg.InitialLimit < 1 {
		return ServeConfig{}, fmt.Errorf("initial-limit must be positive, got %d", cfg.InitialLimit)
	}

	return cfg, nil
}

func readConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}
	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func setIndexerDefaults(v *viper.Viper) {
	v.SetDefault("envio-url", "http://localhost:8080/v1/graphql")
	v.SetDefault("envio-timeout", 30*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("query-cache-ttl", 30*time.Second)
	v.SetDefault("query-cache-size", 64)
}

func setEnrichmentDefaults(v *viper.Viper) {
	v.SetDefault("rpc-rps", 10.0)
	v.SetDefault("rpc-burst", 10)
	v.SetDefault("strategy-max-requests", 24)
	v.SetDefault("strategy-timeout", 3*time.Second)
	v.SetDefault("strategy-concurrency", 8)
	v.SetDefault("name-cache-size", 4096)
	v.SetDefault("name-cache-ttl", 24*time.Hour)
}

func indexerConfig(v *viper.Viper) (IndexerConfig, error) {
	cfg := IndexerConfig{
		URL:          strings.TrimSpace(v.GetString("envio-url")),
		Timeout:      v.GetDuration("envio-timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		CacheTTL:     v.GetDuration("query-cache-ttl"),
		CacheSize:    v.GetInt("query-cache-size"),
	}
	if cfg.URL == "" {
		return IndexerConfig{}, fmt.Errorf("envio-url is required")
	}
	return cfg, nil
}

func enrichmentConfig(v *viper.Viper) (EnrichmentConfig, error) {
	urls, err := getChainURLMap(v, "rpc")
	if err != nil {
		return EnrichmentConfig{}, err
	}
	return EnrichmentConfig{
		RPCURLs:       urls,
		RPS:           v.GetFloat64("rpc-rps"),
		Burst:         v.GetInt("rpc-burst"),
		MaxRequests:   v.GetInt("strategy-max-requests"),
		Timeout:       v.GetDuration("strategy-timeout"),
		Concurrency:   v.GetInt("strategy-concurrency"),
		NameCacheSize: v.GetInt("name-cache-size"),
		NameCacheTTL:  v.GetDuration("name-cache-ttl"),
	}, nil
}

// getChainIDs parses a list of supported chain ids; an unset or empty list
// selects every supported chain.
func getChainIDs(v *viper.Viper, key string) ([]int64, error) {
	items := getStringSlice(v, key)
	if len(items) == 0 {
		return append([]int64(nil), vaults.SupportedChainIDs...), nil
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid %s entry %q", key, item)
		}
		if !vaults.IsSupported(id) {
			return nil, fmt.Errorf("%s entry %d is not covered by the indexer", key, id)
		}
		out = append(out, id)
	}
	return out, nil
}

func getChainURLMap(v *viper.Viper, key string) (map[int64]string, error) {
	raw := getStringMap(v, key)
	out := make(map[int64]string, len(raw))
	for k, url := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s chain id %q", key, k)
		}
		out[id] = url
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
