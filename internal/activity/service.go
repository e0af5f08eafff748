// Package activity assembles the newest-first cross-chain event feed from the
// indexer and attaches strategy names.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vaultScope/internal/envio"
	"vaultScope/internal/feed"
	"vaultScope/internal/model"
	"vaultScope/internal/strategy"
)

// Source fetches raw per-type batches from the indexer.
type Source interface {
	RecentActivity(ctx context.Context, limit int, chainIDs []int64) (envio.Activity, error)
	RecentUserTransactions(ctx context.Context, limit int, chainIDs []int64) (envio.Activity, error)
	RecentVaultManagement(ctx context.Context, limit int, chainIDs []int64) (envio.Activity, error)
	UserActivity(ctx context.Context, owner string, chainIDs []int64) (envio.Activity, error)
	VaultActivity(ctx context.Context, vault string, limit, offset int, chainIDs []int64) (envio.Activity, error)
}

// Scope selects the event types of a recent feed.
type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeUser  Scope = "user"
	ScopeVault Scope = "vault"
)

// ParseScope reads a scope name. Empty selects ScopeAll.
func ParseScope(raw string) (Scope, error) {
	switch s := Scope(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeUser, ScopeVault:
		return s, nil
	default:
		return "", fmt.Errorf("invalid scope %q", raw)
	}
}

// NameResolver attaches strategy display names.
type NameResolver interface {
	Lookup(ctx context.Context, reqs []model.StrategyNameRequest) model.StrategyNames
	Prefetch(ctx context.Context, events []model.Event) model.StrategyNames
}

// Result is one assembled feed.
type Result struct {
	Events        []model.Event       `json:"events"`
	StrategyNames model.StrategyNames `json:"strategyNames"`
}

// Service builds feeds. It implements feed.Loader for the configured chains.
type Service struct {
	source Source
	names  NameResolver
	sorter *feed.Sorter
	chains []int64
	logger *zap.Logger
}

// NewService builds a Service. chains is the default chain set for Load.
func NewService(source Source, names NameResolver, sorter *feed.Sorter, chains []int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sorter == nil {
		sorter = feed.NewSorter(nil)
	}
	return &Service{source: source, names: names, sorter: sorter, chains: chains, logger: logger}
}

// Recent fetches up to limit events per type and chain, merges them newest
// first and resolves every referenced strategy name. An indexer failure
// fails the call; name lookups never do.
func (s *Service) Recent(ctx context.Context, limit int, chainIDs []int64) (Result, error) {
	return s.RecentScope(ctx, ScopeAll, limit, chainIDs)
}

// RecentScope is Recent restricted to user transactions or to vault
// management events.
func (s *Service) RecentScope(ctx context.Context, scope Scope, limit int, chainIDs []int64) (Result, error) {
	var query func(context.Context, int, []int64) (envio.Activity, error)
	switch scope {
	case ScopeAll, "":
		query = s.source.RecentActivity
	case ScopeUser:
		query = s.source.RecentUserTransactions
	case ScopeVault:
		query = s.source.RecentVaultManagement
	default:
		return Result{}, fmt.Errorf("invalid scope %q", scope)
	}
	events, err := s.fetch(ctx, chainIDs, func(chains []int64) (envio.Activity, error) {
		return query(ctx, limit, chains)
	})
	if err != nil {
		return Result{}, err
	}
	return s.withNames(ctx, events), nil
}

// UserHistory returns every deposit and withdrawal of owner, newest first.
func (s *Service) UserHistory(ctx context.Context, owner string, chainIDs []int64) (Result, error) {
	events, err := s.fetch(ctx, chainIDs, func(chains []int64) (envio.Activity, error) {
		return s.source.UserActivity(ctx, owner, chains)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Events: events, StrategyNames: model.StrategyNames{}}, nil
}

// VaultHistory returns one page of a vault's deposits and withdrawals,
// newest first.
func (s *Service) VaultHistory(ctx context.Context, vault string, limit, offset int, chainIDs []int64) (Result, error) {
	events, err := s.fetch(ctx, chainIDs, func(chains []int64) (envio.Activity, error) {
		return s.source.VaultActivity(ctx, vault, limit, offset, chains)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Events: events, StrategyNames: model.StrategyNames{}}, nil
}

func (s *Service) withNames(ctx context.Context, events []model.Event) Result {
	names := model.StrategyNames{}
	if s.names != nil {
		names = s.names.Lookup(ctx, strategy.ExtractRequests(events))
	}
	return Result{Events: events, StrategyNames: names}
}

// Initial is Recent for the first render: names come from a bounded
// prefetch that gives up at its deadline.
func (s *Service) Initial(ctx context.Context, limit int, chainIDs []int64) (Result, error) {
	events, err := s.fetch(ctx, chainIDs, func(chains []int64) (envio.Activity, error) {
		return s.source.RecentActivity(ctx, limit, chains)
	})
	if err != nil {
		return Result{}, err
	}
	names := model.StrategyNames{}
	if s.names != nil {
		names = s.names.Prefetch(ctx, events)
	}
	return Result{Events: events, StrategyNames: names}, nil
}

// Load implements feed.Loader over the default chains.
func (s *Service) Load(ctx context.Context, limit int) ([]model.Event, model.StrategyNames, error) {
	res, err := s.Recent(ctx, limit, s.chains)
	if err != nil {
		return nil, nil, err
	}
	return res.Events, res.StrategyNames, nil
}

func (s *Service) fetch(ctx context.Context, chainIDs []int64, query func([]int64) (envio.Activity, error)) ([]model.Event, error) {
	if len(chainIDs) == 0 {
		chainIDs = s.chains
	}
	start := time.Now()
	raw, err := query(chainIDs)
	if err != nil {
		return nil, err
	}
	events := s.sorter.NewestFirst(raw.Events())
	s.logger.Debug("activity fetched",
		zap.Int64s("chains", chainIDs),
		zap.Int("events", len(events)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return events, nil
}
