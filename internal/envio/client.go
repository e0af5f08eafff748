// Package envio queries the hosted event indexer over GraphQL.
package envio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vaultScope/internal/cache"
	"vaultScope/internal/metrics"
	"vaultScope/internal/retry"
)

// ErrQuery marks a failed indexer query. The whole batch is discarded.
var ErrQuery = errors.New("indexer query failed")

// Config configures the indexer client.
type Config struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Client runs indexer queries. Results are memoized in an optional cache.
type Client struct {
	gql        *graphql.Client
	memo       *cache.LRU[string, Activity]
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewClient builds a client for cfg.URL. memo may be nil.
func NewClient(cfg Config, memo *cache.LRU[string, Activity], logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("envio url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		gql:        graphql.NewClient(cfg.URL, graphql.WithHTTPClient(httpClient)),
		memo:       memo,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     logger,
	}, nil
}

// RecentActivity returns the newest events of every type on chainIDs.
func (c *Client) RecentActivity(ctx context.Context, limit int, chainIDs []int64) (Activity, error) {
	return c.fanOut(ctx, ScopeRecent, chainIDs, func(chains []int64) map[string]interface{} {
		return map[string]interface{}{"limit": limit, "chainIds": chains}
	})
}

// RecentUserTransactions returns the newest deposits, withdrawals and transfers.
func (c *Client) RecentUserTransactions(ctx context.Context, limit int, chainIDs []int64) (Activity, error) {
	return c.fanOut(ctx, ScopeUser, chainIDs, func(chains []int64) map[string]interface{} {
		return map[string]interface{}{"limit": limit, "chainIds": chains}
	})
}

// RecentVaultManagement returns the newest management events.
func (c *Client) RecentVaultManagement(ctx context.Context, limit int, chainIDs []int64) (Activity, error) {
	return c.fanOut(ctx, ScopeVaultMgmt, chainIDs, func(chains []int64) map[string]interface{} {
		return map[string]interface{}{"limit": limit, "chainIds": chains}
	})
}

// UserActivity returns the full deposit and withdrawal history of owner, oldest first.
func (c *Client) UserActivity(ctx context.Context, owner string, chainIDs []int64) (Activity, error) {
	vars := map[string]interface{}{"userAddress": strings.ToLower(strings.TrimSpace(owner)), "chainIds": chainIDs}
	return c.run(ctx, ScopeUserActivity, vars)
}

// VaultActivity returns one page of deposits and withdrawals for vault.
func (c *Client) VaultActivity(ctx context.Context, vault string, limit, offset int, chainIDs []int64) (Activity, error) {
	vars := map[string]interface{}{
		"vaultAddress": strings.ToLower(strings.TrimSpace(vault)),
		"limit":        limit,
		"offset":       offset,
		"chainIds":     chainIDs,
	}
	return c.run(ctx, ScopeVaultActivity, vars)
}

// fanOut issues one query per chain when more than one chain is requested,
// since the indexer does not order results across chains. Any chain failing
// fails the whole call.
func (c *Client) fanOut(ctx context.Context, scope Scope, chainIDs []int64, vars func([]int64) map[string]interface{}) (Activity, error) {
	if len(chainIDs) <= 1 {
		return c.run(ctx, scope, vars(chainIDs))
	}

	results := make([]Activity, len(chainIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, chainID := range chainIDs {
		g.Go(func() error {
			res, err := c.run(gctx, scope, vars([]int64{chainID}))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Activity{}, err
	}

	var merged Activity
	for _, res := range results {
		merged.Append(res)
	}
	return merged, nil
}

func (c *Client) run(ctx context.Context, scope Scope, vars map[string]interface{}) (Activity, error) {
	query, ok := Query(scope)
	if !ok {
		return Activity{}, fmt.Errorf("%w: unknown scope %q", ErrQuery, scope)
	}

	key := memoKey(scope, vars)
	if c.memo != nil {
		if cached, ok := c.memo.Get(key); ok {
			metrics.IndexerCacheHits.Inc()
			return cached, nil
		}
	}

	chainLabel := chainsLabel(vars["chainIds"])
	start := time.Now()
	var out Activity
	err := retry.Do(ctx, c.maxRetries, c.backoff, func(ctx context.Context) error {
		req := graphql.NewRequest(query)
		for k, v := range vars {
			req.Var(k, v)
		}
		var resp Activity
		if err := c.gql.Run(ctx, req, &resp); err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return err
		}
		out = resp
		return nil
	})
	metrics.IndexerQueryLatency.WithLabelValues(string(scope), chainLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Activity{}, err
		}
		metrics.IndexerQueryErrors.WithLabelValues(string(scope), chainLabel).Inc()
		c.logger.Error("indexer query failed",
			zap.String("scope", string(scope)),
			zap.String("chains", chainLabel),
			zap.Error(err),
		)
		return Activity{}, fmt.Errorf("%w: %s chains=%s: %v", ErrQuery, scope, chainLabel, err)
	}

	if c.memo != nil {
		c.memo.Put(key, out)
	}
	c.logger.Debug("indexer query",
		zap.String("scope", string(scope)),
		zap.String("chains", chainLabel),
		zap.Int("records", out.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func chainsLabel(v interface{}) string {
	ids, _ := v.([]int64)
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func memoKey(scope Scope, vars map[string]interface{}) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, vars[k])
	}
	return b.String()
}
