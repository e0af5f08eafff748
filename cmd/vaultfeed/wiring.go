package main

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"vaultScope/internal/activity"
	"vaultScope/internal/cache"
	"vaultScope/internal/chain"
	"vaultScope/internal/config"
	"vaultScope/internal/envio"
	"vaultScope/internal/storage/postgres"
	"vaultScope/internal/strategy"
)

// pipeline is the indexer client, the name resolver and the activity service
// built from one configuration. close releases RPC clients and the pg pool.
type pipeline struct {
	activity *activity.Service
	names    *strategy.Service
	store    *postgres.Store
	close    func()
}

func buildPipeline(ctx context.Context, indexerCfg config.IndexerConfig, enrichCfg config.EnrichmentConfig, chains []int64, pgDSN string, logger *zap.Logger) (*pipeline, error) {
	var memo *cache.LRU[string, envio.Activity]
	if indexerCfg.CacheSize > 0 {
		memo = cache.NewLRU[string, envio.Activity](indexerCfg.CacheSize, indexerCfg.CacheTTL)
	}
	envioClient, err := envio.NewClient(envio.Config{
		URL:        indexerCfg.URL,
		Timeout:    indexerCfg.Timeout,
		MaxRetries: indexerCfg.MaxRetries,
		Backoff:    indexerCfg.RetryBackoff,
	}, memo, logger)
	if err != nil {
		return nil, fmt.Errorf("indexer client: %w", err)
	}

	registry := chain.NewRegistry(chain.RegistryConfig{
		RPCURLs: enrichCfg.RPCURLs,
		RPS:     enrichCfg.RPS,
		Burst:   enrichCfg.Burst,
	}, logger)

	var (
		store     *postgres.Store
		nameStore strategy.Store
	)
	if pgDSN != "" {
		store, err = postgres.NewStore(ctx, pgDSN)
		if err != nil {
			registry.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			registry.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		nameStore = store
	}

	names := strategy.NewService(
		strategy.NewContractResolver(registry),
		cache.NewLRU[string, string](enrichCfg.NameCacheSize, enrichCfg.NameCacheTTL),
		nameStore,
		strategy.Config{
			MaxRequests: enrichCfg.MaxRequests,
			Timeout:     enrichCfg.Timeout,
			Concurrency: enrichCfg.Concurrency,
		},
		logger,
	)

	logger.Info("pipeline ready",
		zap.String("envio_url", indexerCfg.URL),
		zap.Int64s("chains", chains),
		zap.Int64s("rpc_chains", registry.ChainIDs()),
		zap.Bool("pg", store != nil),
		zap.String("pg_dsn", redactDSN(pgDSN)),
	)

	return &pipeline{
		activity: activity.NewService(envioClient, names, nil, chains, logger),
		names:    names,
		store:    store,
		close: func() {
			registry.Close()
			if store != nil {
				store.Close()
			}
		},
	}, nil
}

// redactDSN hides the password of a connection URL.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "redacted"
	}
	if u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
