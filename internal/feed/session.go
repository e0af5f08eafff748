package feed

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"vaultScope/internal/metrics"
	"vaultScope/internal/model"
)

// Loader fetches a newest-first batch of events and their strategy names.
type Loader interface {
	Load(ctx context.Context, limit int) ([]model.Event, model.StrategyNames, error)
}

// SessionConfig controls background refresh.
type SessionConfig struct {
	BackgroundEnabled bool
	BackgroundLimit   int
}

// Session holds the displayed event set and strategy names. After each Reset
// it may fetch one larger batch in the background and fold it in.
type Session struct {
	cfg    SessionConfig
	loader Loader
	sorter *Sorter
	logger *zap.Logger

	mu               sync.RWMutex
	events           []model.Event
	names            model.StrategyNames
	generation       uint64
	cancel           context.CancelFunc
	backgroundLoaded bool
}

// NewSession builds a Session. loader may be nil when background refresh is disabled.
func NewSession(cfg SessionConfig, loader Loader, sorter *Sorter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sorter == nil {
		sorter = defaultSorter
	}
	return &Session{
		cfg:    cfg,
		loader: loader,
		sorter: sorter,
		logger: logger,
		names:  make(model.StrategyNames),
	}
}

// Reset replaces the displayed set with a newest-first initial batch. Strategy
// names accumulate across resets. Any
// background refresh still running for the previous set is cancelled and its
// result discarded. The returned channel closes once the background refresh
// for this set has finished, or immediately when none is started.
func (s *Session) Reset(ctx context.Context, events []model.Event, names model.StrategyNames) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.events = slices.Clone(events)
	s.names.Merge(names)
	s.backgroundLoaded = false

	done := make(chan struct{})
	if !s.shouldRefresh(len(events)) {
		close(done)
		return done
	}

	refreshCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.refresh(refreshCtx, s.generation, done)
	return done
}

func (s *Session) shouldRefresh(initial int) bool {
	return s.cfg.BackgroundEnabled && s.loader != nil && s.cfg.BackgroundLimit > initial
}

func (s *Session) refresh(ctx context.Context, generation uint64, done chan struct{}) {
	defer close(done)

	events, names, err := s.loader.Load(ctx, s.cfg.BackgroundLimit)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			metrics.RefreshTotal.WithLabelValues("cancelled").Inc()
			return
		}
		metrics.RefreshTotal.WithLabelValues("failed").Inc()
		s.logger.Error("background refresh failed", zap.Error(err), zap.Int("limit", s.cfg.BackgroundLimit))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || ctx.Err() != nil {
		metrics.RefreshTotal.WithLabelValues("superseded").Inc()
		return
	}
	if len(events) == 0 {
		metrics.RefreshTotal.WithLabelValues("empty").Inc()
		return
	}

	merged := s.sorter.MergeIncremental(s.events, events)
	slices.Reverse(merged)
	s.events = merged
	s.names.Merge(names)
	s.backgroundLoaded = true
	metrics.RefreshTotal.WithLabelValues("applied").Inc()

	s.logger.Info("background refresh applied",
		zap.Int("incoming", len(events)),
		zap.Int("displayed", len(merged)),
		zap.Int("strategy_names", len(s.names)),
	)
}

// Snapshot returns copies of the displayed events (newest first) and names.
func (s *Session) Snapshot() ([]model.Event, model.StrategyNames) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events), s.names.Clone()
}

// BackgroundLoaded reports whether the larger batch has been applied to the current set.
func (s *Session) BackgroundLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backgroundLoaded
}

// View applies q to the displayed set.
func (s *Session) View(q ViewQuery, tracked VaultSet) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Apply(s.events, q, tracked)
}

// Close cancels any in-flight background refresh.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
