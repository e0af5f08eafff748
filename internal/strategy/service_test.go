package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultScope/internal/cache"
	"vaultScope/internal/chain"
	"vaultScope/internal/model"
)

const (
	stratA = "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
	stratB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

type fakeResolver struct {
	mu    sync.Mutex
	names map[string]string
	errs  map[string]error
	delay time.Duration
	calls int
}

func (f *fakeResolver) StrategyName(ctx context.Context, chainID int64, address string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	key := model.StrategyKey(chainID, address)
	if err := f.errs[key]; err != nil {
		return "", err
	}
	return f.names[key], nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memStore struct {
	mu    sync.Mutex
	names model.StrategyNames
}

func (m *memStore) LoadStrategyNames(_ context.Context, keys []string) (model.StrategyNames, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(model.StrategyNames)
	for _, k := range keys {
		if v, ok := m.names[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStore) SaveStrategyNames(_ context.Context, names model.StrategyNames) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names.Merge(names)
	return nil
}

func debtEvent(id, strategy string) model.Event {
	parsed := model.ParseEventID(id)
	return model.DebtUpdatedEvent{
		Envelope: model.Envelope{ID: id, ChainID: parsed.ChainID},
		Strategy: strategy,
	}
}

func TestExtractRequests(t *testing.T) {
	events := []model.Event{
		debtEvent("1_1_0", stratA),
		debtEvent("1_2_0", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		model.StrategyReportedEvent{Envelope: model.Envelope{ID: "8453_1_0"}, Strategy: stratA},
		model.StrategyChangedEvent{Envelope: model.Envelope{ID: "1_3_0"}, Strategy: ""},
		model.DepositEvent{Envelope: model.Envelope{ID: "1_4_0"}},
		model.DebtUpdatedEvent{Envelope: model.Envelope{ID: "bad"}, Strategy: stratB},
	}

	reqs := ExtractRequests(events)
	require.Len(t, reqs, 2)
	assert.Equal(t, "1:0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", reqs[0].Key())
	assert.Equal(t, "8453:0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", reqs[1].Key())
}

func TestLookupIsolatesFailures(t *testing.T) {
	resolver := &fakeResolver{
		names: map[string]string{model.StrategyKey(1, stratA): "Morpho Lender"},
		errs:  map[string]error{model.StrategyKey(1, stratB): errors.New("execution reverted")},
	}
	svc := NewService(resolver, nil, nil, Config{}, nil)

	names := svc.Lookup(context.Background(), []model.StrategyNameRequest{
		{ChainID: 1, StrategyAddress: stratA},
		{ChainID: 1, StrategyAddress: stratB},
	})
	assert.Equal(t, model.StrategyNames{model.StrategyKey(1, stratA): "Morpho Lender"}, names)
}

func TestLookupOmitsEmptyAndUnsupported(t *testing.T) {
	resolver := &fakeResolver{
		names: map[string]string{model.StrategyKey(1, stratA): ""},
		errs:  map[string]error{model.StrategyKey(56, stratB): chain.ErrUnsupportedChain},
	}
	svc := NewService(resolver, nil, nil, Config{}, nil)

	names := svc.Lookup(context.Background(), []model.StrategyNameRequest{
		{ChainID: 1, StrategyAddress: stratA},
		{ChainID: 56, StrategyAddress: stratB},
	})
	assert.Empty(t, names)
}

func TestLookupUsesCacheAndStore(t *testing.T) {
	resolver := &fakeResolver{names: map[string]string{model.StrategyKey(1, stratA): "Resolved"}}
	names := cache.NewLRU[string, string](16, time.Minute)
	store := &memStore{names: model.StrategyNames{model.StrategyKey(8453, stratB): "Stored"}}
	svc := NewService(resolver, names, store, Config{}, nil)

	reqs := []model.StrategyNameRequest{
		{ChainID: 1, StrategyAddress: stratA},
		{ChainID: 8453, StrategyAddress: stratB},
	}
	first := svc.Lookup(context.Background(), reqs)
	assert.Equal(t, "Resolved", first[model.StrategyKey(1, stratA)])
	assert.Equal(t, "Stored", first[model.StrategyKey(8453, stratB)])
	assert.Equal(t, 1, resolver.callCount())
	assert.Equal(t, "Resolved", store.names[model.StrategyKey(1, stratA)])

	second := svc.Lookup(context.Background(), reqs)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, resolver.callCount())
}

func TestPrefetchTimesOutWithEmptyMapping(t *testing.T) {
	resolver := &fakeResolver{
		names: map[string]string{model.StrategyKey(1, stratA): "Slow"},
		delay: time.Second,
	}
	names := cache.NewLRU[string, string](16, time.Minute)
	svc := NewService(resolver, names, nil, Config{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	out := svc.Prefetch(context.Background(), []model.Event{debtEvent("1_1_0", stratA)})
	assert.Empty(t, out)
	assert.NotNil(t, out)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.Eventually(t, func() bool { return resolver.callCount() == 1 }, time.Second, 5*time.Millisecond)
	_, cached := names.Get(model.StrategyKey(1, stratA))
	assert.False(t, cached)
}

func TestPrefetchCapsRequests(t *testing.T) {
	resolver := &fakeResolver{names: map[string]string{}}
	var events []model.Event
	for i := 0; i < 30; i++ {
		addr := fmt.Sprintf("0x%040x", i+1)
		resolver.names[model.StrategyKey(1, addr)] = fmt.Sprintf("Strategy %d", i)
		events = append(events, debtEvent(fmt.Sprintf("1_%d_0", i), addr))
	}
	svc := NewService(resolver, nil, nil, Config{MaxRequests: 24}, nil)

	out := svc.Prefetch(context.Background(), events)
	assert.Len(t, out, 24)
	assert.Equal(t, 24, resolver.callCount())
}

func TestPrefetchNoStrategies(t *testing.T) {
	resolver := &fakeResolver{}
	svc := NewService(resolver, nil, nil, Config{}, nil)
	out := svc.Prefetch(context.Background(), []model.Event{model.DepositEvent{Envelope: model.Envelope{ID: "1_1_0"}}})
	assert.Empty(t, out)
	assert.Zero(t, resolver.callCount())
}
