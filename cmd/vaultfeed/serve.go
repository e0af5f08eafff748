package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultScope/internal/config"
	"vaultScope/internal/feed"
	"vaultScope/internal/server"
	"vaultScope/internal/vaults"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	session := feed.NewSession(feed.SessionConfig{
		BackgroundEnabled: cfg.BackgroundEnabled,
		BackgroundLimit:   cfg.BackgroundLimit,
	}, p.activity, nil, logger)
	defer session.Close()

	reload := func() {
		res, err := p.activity.Initial(ctx, cfg.InitialLimit, cfg.Chains)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("load feed failed", zap.Int("limit", cfg.InitialLimit), zap.Error(err))
			}
			return
		}
		session.Reset(ctx, res.Events, res.StrategyNames)
		logger.Info("feed loaded",
			zap.Int("events", len(res.Events)),
			zap.Int("strategy_names", len(res.StrategyNames)),
		)
	}
	reload()

	if cfg.ReloadInterval > 0 {
		go reloadLoop(ctx, cfg.ReloadInterval, reload)
	}

	api := server.New(p.activity, session, vaults.Default(), server.Config{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Chains:       cfg.Chains,
	}, logger)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server start",
			zap.String("listen", cfg.Listen),
			zap.Int64s("chains", cfg.Chains),
			zap.Int("initial_limit", cfg.InitialLimit),
			zap.Int("background_limit", cfg.BackgroundLimit),
			zap.Bool("background_enabled", cfg.BackgroundEnabled),
			zap.Duration("reload_interval", cfg.ReloadInterval),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func reloadLoop(ctx context.Context, interval time.Duration, reload func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reload()
		}
	}
}
