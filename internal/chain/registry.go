package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrUnsupportedChain is returned for a chain with no configured RPC endpoint.
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrChainMismatch is returned when an endpoint serves a different chain.
	ErrChainMismatch = errors.New("chain id mismatch")
)

// DefaultRPCURLs are public endpoints used when no override is configured.
var DefaultRPCURLs = map[int64]string{
	1:     "https://cloudflare-eth.com",
	10:    "https://mainnet.optimism.io",
	137:   "https://polygon-rpc.com",
	8453:  "https://mainnet.base.org",
	42161: "https://arb1.arbitrum.io/rpc",
}

// RegistryConfig configures per-chain endpoints and rate limits.
type RegistryConfig struct {
	RPCURLs map[int64]string
	RPS     float64
	Burst   int
}

// Registry lazily dials one client per chain and reuses it. It is owned by
// the caller and must be closed.
type Registry struct {
	urls   map[int64]string
	rps    float64
	burst  int
	logger *zap.Logger

	mu      sync.Mutex
	dial    func(ctx context.Context, chainID int64, url string, limiter *Limiter) (Caller, func(), error)
	callers map[int64]Caller
	closers []func()
}

// NewRegistry merges cfg.RPCURLs over DefaultRPCURLs.
func NewRegistry(cfg RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	urls := make(map[int64]string, len(DefaultRPCURLs)+len(cfg.RPCURLs))
	for id, url := range DefaultRPCURLs {
		urls[id] = url
	}
	for id, url := range cfg.RPCURLs {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		urls[id] = url
	}
	return &Registry{
		urls:    urls,
		rps:     cfg.RPS,
		burst:   cfg.Burst,
		logger:  logger,
		callers: make(map[int64]Caller),
		dial:    dialClient,
	}
}

// dialClient connects to url and checks that it serves chainID.
func dialClient(ctx context.Context, chainID int64, url string, limiter *Limiter) (Caller, func(), error) {
	client, err := NewClient(ctx, url, limiter)
	if err != nil {
		return nil, nil, err
	}
	got, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("read chain id: %w", err)
	}
	if got.Cmp(big.NewInt(chainID)) != 0 {
		client.Close()
		return nil, nil, fmt.Errorf("%w: endpoint reports %s", ErrChainMismatch, got)
	}
	return client, client.Close, nil
}

// Supports reports whether chainID has an endpoint.
func (r *Registry) Supports(chainID int64) bool {
	_, ok := r.urls[chainID]
	return ok
}

// ChainIDs lists configured chains in ascending order.
func (r *Registry) ChainIDs() []int64 {
	ids := make([]int64, 0, len(r.urls))
	for id := range r.urls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Caller returns the client for chainID, dialing it on first use.
func (r *Registry) Caller(ctx context.Context, chainID int64) (Caller, error) {
	url, ok := r.urls[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.callers[chainID]; ok {
		return c, nil
	}
	c, closer, err := r.dial(ctx, chainID, url, NewLimiter(chainID, r.rps, r.burst))
	if err != nil {
		return nil, fmt.Errorf("dial chain %d: %w", chainID, err)
	}
	r.callers[chainID] = c
	if closer != nil {
		r.closers = append(r.closers, closer)
	}
	r.logger.Debug("rpc client dialed", zap.Int64("chain_id", chainID))
	return c, nil
}

// Close releases every dialed client.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, closeFn := range r.closers {
		closeFn()
	}
	r.closers = nil
	r.callers = make(map[int64]Caller)
}
