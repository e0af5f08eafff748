package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vaultScope/internal/model"
)

type fakeLoader struct {
	mu     sync.Mutex
	calls  []int
	events []model.Event
	names  model.StrategyNames
	err    error
	block  chan struct{}
}

func (f *fakeLoader) Load(ctx context.Context, limit int) ([]model.Event, model.StrategyNames, error) {
	f.mu.Lock()
	f.calls = append(f.calls, limit)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.events, f.names, nil
}

func (f *fakeLoader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh did not finish")
	}
}

func TestSessionAppliesBackgroundBatch(t *testing.T) {
	initial := NewestFirst([]model.Event{deposit("1_100_0", "1000", "0xa"), deposit("1_101_0", "1010", "0xb")})
	loader := &fakeLoader{
		events: NewestFirst([]model.Event{
			deposit("1_101_0", "1010", "0xb"),
			deposit("1_90_0", "900", "0xc"),
			transfer("8453_5_0", "1020", "0xd"),
		}),
		names: model.StrategyNames{"1:0x5": "Background"},
	}
	s := NewSession(SessionConfig{BackgroundEnabled: true, BackgroundLimit: 3000}, loader, nil, zap.NewNop())
	defer s.Close()

	waitDone(t, s.Reset(context.Background(), initial, model.StrategyNames{"1:0x4": "Initial"}))

	events, names := s.Snapshot()
	assert.Equal(t, []string{"8453_5_0", "1_101_0", "1_100_0", "1_90_0"}, ids(events))
	assert.Equal(t, "Initial", names["1:0x4"])
	assert.Equal(t, "Background", names["1:0x5"])
	assert.True(t, s.BackgroundLoaded())
	assert.Equal(t, []int{3000}, loader.calls)
}

func TestSessionSkipsRefreshWhenLimitNotLarger(t *testing.T) {
	loader := &fakeLoader{}
	s := NewSession(SessionConfig{BackgroundEnabled: true, BackgroundLimit: 2}, loader, nil, nil)

	initial := []model.Event{deposit("1_1_0", "1", ""), deposit("1_2_0", "2", "")}
	waitDone(t, s.Reset(context.Background(), initial, nil))
	assert.Zero(t, loader.callCount())

	disabled := NewSession(SessionConfig{BackgroundLimit: 3000}, loader, nil, nil)
	waitDone(t, disabled.Reset(context.Background(), initial, nil))
	assert.Zero(t, loader.callCount())
}

func TestSessionResetKeepsKnownNames(t *testing.T) {
	s := NewSession(SessionConfig{}, nil, nil, nil)

	waitDone(t, s.Reset(context.Background(), nil, model.StrategyNames{"1:0xa": "Lender A"}))
	waitDone(t, s.Reset(context.Background(), []model.Event{deposit("1_1_0", "1", "")}, nil))
	waitDone(t, s.Reset(context.Background(), nil, model.StrategyNames{"8453:0xb": "Lender B", "1:0xa": ""}))

	_, names := s.Snapshot()
	assert.Equal(t, model.StrategyNames{"1:0xa": "Lender A", "8453:0xb": "Lender B"}, names)
}

func TestSessionCancelledRefreshIsSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	loader := &fakeLoader{block: make(chan struct{})}
	s := NewSession(SessionConfig{BackgroundEnabled: true, BackgroundLimit: 100}, loader, nil, zap.New(core))

	first := s.Reset(context.Background(), []model.Event{deposit("1_1_0", "1", "")}, nil)
	require.Eventually(t, func() bool { return loader.callCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Close()
	waitDone(t, first)

	events, _ := s.Snapshot()
	assert.Equal(t, []string{"1_1_0"}, ids(events))
	assert.False(t, s.BackgroundLoaded())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestSessionResetSupersedesRunningRefresh(t *testing.T) {
	loader := &fakeLoader{
		block:  make(chan struct{}),
		events: []model.Event{deposit("1_50_0", "500", "0xold")},
	}
	s := NewSession(SessionConfig{BackgroundEnabled: true, BackgroundLimit: 100}, loader, nil, nil)
	defer s.Close()

	first := s.Reset(context.Background(), []model.Event{deposit("1_1_0", "1", "")}, nil)
	require.Eventually(t, func() bool { return loader.callCount() == 1 }, time.Second, 5*time.Millisecond)

	second := s.Reset(context.Background(), []model.Event{deposit("1_2_0", "2", "")}, nil)
	waitDone(t, first)

	events, _ := s.Snapshot()
	assert.Equal(t, []string{"1_2_0"}, ids(events))

	close(loader.block)
	waitDone(t, second)
	events, _ = s.Snapshot()
	assert.Equal(t, []string{"1_50_0", "1_2_0"}, ids(events))
}

func TestSessionLogsFailedRefresh(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	loader := &fakeLoader{err: errors.New("indexer down")}
	s := NewSession(SessionConfig{BackgroundEnabled: true, BackgroundLimit: 100}, loader, nil, zap.New(core))

	waitDone(t, s.Reset(context.Background(), nil, nil))
	assert.Equal(t, 1, logs.FilterMessage("background refresh failed").Len())
	events, _ := s.Snapshot()
	assert.Empty(t, events)
}
