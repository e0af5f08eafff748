// Package strategy resolves display names for strategy contracts referenced
// by vault management events.
package strategy

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vaultScope/internal/cache"
	"vaultScope/internal/chain"
	"vaultScope/internal/metrics"
	"vaultScope/internal/model"
)

const (
	DefaultMaxRequests = 24
	DefaultTimeout     = 3 * time.Second
	DefaultConcurrency = 8
)

// Resolver looks up one strategy name.
type Resolver interface {
	StrategyName(ctx context.Context, chainID int64, address string) (string, error)
}

// Store persists resolved names across restarts.
type Store interface {
	LoadStrategyNames(ctx context.Context, keys []string) (model.StrategyNames, error)
	SaveStrategyNames(ctx context.Context, names model.StrategyNames) error
}

// Config bounds the synchronous prefetch.
type Config struct {
	MaxRequests int
	Timeout     time.Duration
	// Concurrency caps lookups in flight across all chains.
	Concurrency int
}

// Service batches strategy name lookups. Cache and store are optional.
type Service struct {
	resolver Resolver
	cache    *cache.LRU[string, string]
	store    Store
	cfg      Config
	logger   *zap.Logger
}

// NewService fills zero config fields with defaults.
func NewService(resolver Resolver, names *cache.LRU[string, string], store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, cache: names, store: store, cfg: cfg, logger: logger}
}

// ExtractRequests collects one request per distinct strategy referenced by
// debt updates, strategy reports and strategy changes. Events whose chain
// cannot be determined are skipped.
func ExtractRequests(events []model.Event) []model.StrategyNameRequest {
	seen := make(map[string]struct{})
	var out []model.StrategyNameRequest
	for _, e := range events {
		se, ok := e.(model.StrategyEvent)
		if !ok {
			continue
		}
		address := strings.TrimSpace(se.StrategyAddress())
		if address == "" {
			continue
		}
		chainID, ok := model.ResolveChainID(e)
		if !ok {
			continue
		}
		req := model.StrategyNameRequest{ChainID: chainID, StrategyAddress: address}
		key := req.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, req)
	}
	return out
}

// Prefetch resolves names for the strategies in events, processing at most
// MaxRequests of them. If the batch does not finish within Timeout an empty
// mapping is returned and outstanding lookups are cancelled.
func (s *Service) Prefetch(ctx context.Context, events []model.Event) model.StrategyNames {
	reqs := ExtractRequests(events)
	if len(reqs) == 0 {
		return model.StrategyNames{}
	}
	if len(reqs) > s.cfg.MaxRequests {
		reqs = reqs[:s.cfg.MaxRequests]
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result := make(chan model.StrategyNames, 1)
	go func() {
		result <- s.Lookup(ctx, reqs)
	}()

	select {
	case names := <-result:
		return names
	case <-ctx.Done():
		metrics.StrategyPrefetchTimeouts.Inc()
		s.logger.Warn("strategy name prefetch timed out",
			zap.Int("requests", len(reqs)),
			zap.Duration("timeout", s.cfg.Timeout),
			zap.Error(ctx.Err()),
		)
		return model.StrategyNames{}
	}
}

// Lookup resolves every request concurrently. A failed or empty lookup only
// omits its own key; Lookup itself never fails.
func (s *Service) Lookup(ctx context.Context, reqs []model.StrategyNameRequest) model.StrategyNames {
	names := make(model.StrategyNames)
	pending := s.fromCache(dedupe(reqs), names)
	pending = s.fromStore(ctx, pending, names)
	if len(pending) == 0 {
		return names
	}

	byChain := make(map[int64][]int)
	for i, req := range pending {
		byChain[req.ChainID] = append(byChain[req.ChainID], i)
	}

	resolved := make([]string, len(pending))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for chainID, idx := range byChain {
		for _, i := range idx {
			g.Go(func() error {
				resolved[i] = s.resolveOne(ctx, chainID, pending[i].StrategyAddress)
				return nil
			})
		}
	}
	_ = g.Wait()

	fresh := make(model.StrategyNames)
	for i, name := range resolved {
		if name == "" {
			continue
		}
		fresh[pending[i].Key()] = name
	}
	names.Merge(fresh)

	if ctx.Err() != nil || len(fresh) == 0 {
		return names
	}
	if s.cache != nil {
		for k, v := range fresh {
			s.cache.Put(k, v)
		}
	}
	if s.store != nil {
		if err := s.store.SaveStrategyNames(ctx, fresh); err != nil {
			s.logger.Warn("persist strategy names failed", zap.Int("names", len(fresh)), zap.Error(err))
		}
	}
	return names
}

func (s *Service) resolveOne(ctx context.Context, chainID int64, address string) string {
	label := strconv.FormatInt(chainID, 10)
	name, err := s.resolver.StrategyName(ctx, chainID, address)
	switch {
	case errors.Is(err, chain.ErrUnsupportedChain):
		metrics.StrategyLookupsTotal.WithLabelValues(label, "unsupported").Inc()
		return ""
	case err != nil:
		metrics.StrategyLookupsTotal.WithLabelValues(label, "failed").Inc()
		if ctx.Err() == nil {
			s.logger.Debug("strategy name lookup failed",
				zap.Int64("chain_id", chainID),
				zap.String("strategy", address),
				zap.Error(err),
			)
		}
		return ""
	case name == "":
		metrics.StrategyLookupsTotal.WithLabelValues(label, "empty").Inc()
		return ""
	}
	metrics.StrategyLookupsTotal.WithLabelValues(label, "resolved").Inc()
	return name
}

func (s *Service) fromCache(reqs []model.StrategyNameRequest, names model.StrategyNames) []model.StrategyNameRequest {
	if s.cache == nil {
		return reqs
	}
	pending := reqs[:0:0]
	for _, req := range reqs {
		if name, ok := s.cache.Get(req.Key()); ok && name != "" {
			names[req.Key()] = name
			metrics.StrategyLookupsTotal.WithLabelValues(strconv.FormatInt(req.ChainID, 10), "cached").Inc()
			continue
		}
		pending = append(pending, req)
	}
	return pending
}

func (s *Service) fromStore(ctx context.Context, reqs []model.StrategyNameRequest, names model.StrategyNames) []model.StrategyNameRequest {
	if s.store == nil || len(reqs) == 0 {
		return reqs
	}
	keys := make([]string, len(reqs))
	for i, req := range reqs {
		keys[i] = req.Key()
	}
	stored, err := s.store.LoadStrategyNames(ctx, keys)
	if err != nil {
		s.logger.Warn("load stored strategy names failed", zap.Int("keys", len(keys)), zap.Error(err))
		return reqs
	}
	pending := reqs[:0:0]
	for _, req := range reqs {
		if name := stored[req.Key()]; name != "" {
			names[req.Key()] = name
			if s.cache != nil {
				s.cache.Put(req.Key(), name)
			}
			continue
		}
		pending = append(pending, req)
	}
	return pending
}

func dedupe(reqs []model.StrategyNameRequest) []model.StrategyNameRequest {
	seen := make(map[string]struct{}, len(reqs))
	out := make([]model.StrategyNameRequest, 0, len(reqs))
	for _, req := range reqs {
		if strings.TrimSpace(req.StrategyAddress) == "" {
			continue
		}
		key := req.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, req)
	}
	return out
}
