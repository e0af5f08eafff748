package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultScope/internal/activity"
	"vaultScope/internal/config"
	"vaultScope/internal/storage"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg.Indexer, cfg.Enrichment, cfg.Chains, cfg.PGDSN, logger)
	if err != nil {
		return err
	}
	defer p.close()

	scope, err := activity.ParseScope(cfg.Scope)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := p.activity.RecentScope(ctx, scope, cfg.Limit, cfg.Chains)
	if err != nil {
		return fmt.Errorf("fetch activity: %w", err)
	}

	var sinks []storage.Storage
	if cfg.Out != "" {
		archive := storage.NewJsonlStorage(cfg.Out)
		if err := archive.PutStrategyNames(ctx, res.StrategyNames); err != nil {
			return fmt.Errorf("store strategy names: %w", err)
		}
		sinks = append(sinks, archive)
	}
	if p.store != nil {
		sinks = append(sinks, p.store)
	}
	for _, sink := range sinks {
		if err := sink.PutEventBatch(ctx, res.Events); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
	}

	logger.Info("fetch complete",
		zap.String("scope", string(scope)),
		zap.Int64s("chains", cfg.Chains),
		zap.Int("limit", cfg.Limit),
		zap.Int("events", len(res.Events)),
		zap.Int("strategy_names", len(res.StrategyNames)),
		zap.String("out", cfg.Out),
		zap.Bool("pg", p.store != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
