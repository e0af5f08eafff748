package chain

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"vaultScope/internal/metrics"
)

// Limiter is a token bucket shared by all calls to one chain.
type Limiter struct {
	limiter *rate.Limiter
	chain   string
}

// NewLimiter allows rps calls per second with the given burst.
// A non-positive rps disables limiting.
func NewLimiter(chainID int64, rps float64, burst int) *Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		chain:   strconv.FormatInt(chainID, 10),
	}
}

// Wait blocks until one call is allowed or ctx is done. A nil Limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	r := l.limiter.Reserve()
	if !r.OK() {
		return errors.New("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}
	metrics.RPCRateLimitWaits.WithLabelValues(l.chain).Inc()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// ClassifyError maps a call error to a metric status label.
func ClassifyError(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout"):
		return "timeout"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return "rate_limited"
	case strings.Contains(lower, "execution reverted"):
		return "reverted"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof"):
		return "network_error"
	default:
		return "error"
	}
}
