// Package server exposes the feed over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vaultScope/internal/activity"
	"vaultScope/internal/feed"
	"vaultScope/internal/metrics"
	"vaultScope/internal/model"
	"vaultScope/internal/vaults"
)

// Feed assembles fresh activity feeds and address histories.
type Feed interface {
	RecentScope(ctx context.Context, scope activity.Scope, limit int, chainIDs []int64) (activity.Result, error)
	UserHistory(ctx context.Context, owner string, chainIDs []int64) (activity.Result, error)
	VaultHistory(ctx context.Context, vault string, limit, offset int, chainIDs []int64) (activity.Result, error)
}

// Session is the live displayed feed.
type Session interface {
	View(q feed.ViewQuery, tracked feed.VaultSet) feed.Page
	Snapshot() ([]model.Event, model.StrategyNames)
	BackgroundLoaded() bool
}

// Config bounds result sizes and names the chains the server answers for.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	// Chains is the allow-list and fallback for chainIds. Empty means every
	// supported chain.
	Chains []int64
}

// Server serves the activity API.
type Server struct {
	feed    Feed
	session Session
	vaults  *vaults.Registry
	cfg     Config
	logger  *zap.Logger
}

// New builds a Server. session may be nil, in which case /api/feed is not served.
func New(f Feed, session Session, registry *vaults.Registry, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = vaults.Default()
	}
	if cfg.MaxLimit < 1 {
		cfg.MaxLimit = 3000
	}
	if cfg.DefaultLimit < 1 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(50, cfg.MaxLimit)
	}
	return &Server{feed: f, session: session, vaults: registry, cfg: cfg, logger: logger}
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/activity", s.instrument("activity", http.HandlerFunc(s.handleActivity)))
	if s.session != nil {
		mux.Handle("GET /api/feed", s.instrument("feed", http.HandlerFunc(s.handleFeed)))
	}
	mux.Handle("GET /api/vaults", s.instrument("vaults", http.HandlerFunc(s.handleVaults)))
	mux.Handle("GET /api/vaults/{address}/activity", s.instrument("vault_activity", http.HandlerFunc(s.handleVaultActivity)))
	mux.Handle("GET /api/users/{address}/activity", s.instrument("user_activity", http.HandlerFunc(s.handleUserActivity)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type activityResponse struct {
	Events        []model.Event       `json:"events"`
	StrategyNames model.StrategyNames `json:"strategyNames"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := activity.ParseScope(q.Get("scope"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	limit := ParseLimit(q.Get("limit"), s.cfg.DefaultLimit, s.cfg.MaxLimit)
	chains := vaults.ParseChainIDs(q.Get("chainIds"), s.cfg.Chains)

	res, err := s.feed.RecentScope(r.Context(), scope, limit, chains)
	if err != nil {
		s.logger.Error("fetch recent activity failed",
			zap.String("scope", string(scope)),
			zap.Int("limit", limit),
			zap.Int64s("chains", chains),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch activity"})
		return
	}
	writeActivity(w, res)
}

func (s *Server) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r)
	if !ok {
		return
	}
	chains := vaults.ParseChainIDs(r.URL.Query().Get("chainIds"), s.cfg.Chains)

	res, err := s.feed.UserHistory(r.Context(), owner, chains)
	if err != nil {
		s.logger.Error("fetch user activity failed",
			zap.String("user", owner),
			zap.Int64s("chains", chains),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user activity"})
		return
	}
	writeActivity(w, res)
}

func (s *Server) handleVaultActivity(w http.ResponseWriter, r *http.Request) {
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	vault, tracked := s.vaults.Lookup(address)
	if !tracked {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown vault"})
		return
	}
	q := r.URL.Query()
	limit := ParseLimit(q.Get("limit"), s.cfg.DefaultLimit, s.cfg.MaxLimit)
	offset, err := optionalInt64(q, "offset")
	if err != nil || offset < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
		return
	}

	res, err := s.feed.VaultHistory(r.Context(), address, limit, int(offset), []int64{vault.ChainID})
	if err != nil {
		s.logger.Error("fetch vault activity failed",
			zap.String("vault", address),
			zap.Int("limit", limit),
			zap.Int64("offset", offset),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch vault activity"})
		return
	}
	writeActivity(w, res)
}

// pathAddress validates the {address} path segment and returns it lowercased.
func pathAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	addrs, err := vaults.ParseAddresses([]string{r.PathValue("address")})
	if err != nil || len(addrs) != 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid address"})
		return "", false
	}
	return strings.ToLower(addrs[0].Hex()), true
}

func writeActivity(w http.ResponseWriter, res activity.Result) {
	events := res.Events
	if events == nil {
		events = []model.Event{}
	}
	names := res.StrategyNames
	if names == nil {
		names = model.StrategyNames{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Events: events, StrategyNames: names})
}

type feedResponse struct {
	feed.Page
	StrategyNames    model.StrategyNames `json:"strategyNames"`
	BackgroundLoaded bool                `json:"backgroundLoaded"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	query, err := ParseViewQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	page := s.session.View(query, s.vaults)
	_, names := s.session.Snapshot()
	writeJSON(w, http.StatusOK, feedResponse{
		Page:             page,
		StrategyNames:    pageNames(page.Events, names),
		BackgroundLoaded: s.session.BackgroundLoaded(),
	})
}

// pageNames narrows names to the strategies referenced on one page.
func pageNames(events []model.Event, names model.StrategyNames) model.StrategyNames {
	out := make(model.StrategyNames)
	for _, e := range events {
		se, ok := e.(model.StrategyEvent)
		if !ok {
			continue
		}
		chainID, ok := model.ResolveChainID(e)
		if !ok {
			continue
		}
		if name, ok := names.Lookup(chainID, se.StrategyAddress()); ok {
			out[model.StrategyKey(chainID, se.StrategyAddress())] = name
		}
	}
	return out
}

type vaultResponse struct {
	Address     string `json:"address"`
	ChainID     int64  `json:"chainId"`
	ChainName   string `json:"chainName"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Asset       string `json:"asset"`
	ExplorerURL string `json:"explorerUrl"`
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	chainFilter := int64(0)
	if raw := strings.TrimSpace(r.URL.Query().Get("chainId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chainId"})
			return
		}
		chainFilter = id
	}

	resp := make([]vaultResponse, 0)
	for _, v := range s.vaults.All() {
		if chainFilter != 0 && v.ChainID != chainFilter {
			continue
		}
		resp = append(resp, vaultResponse{
			Address:     v.Address.Hex(),
			ChainID:     v.ChainID,
			ChainName:   vaults.ChainName(v.ChainID),
			Name:        v.Name,
			Symbol:      v.Symbol,
			Decimals:    v.Decimals,
			Asset:       v.Asset.Hex(),
			ExplorerURL: vaults.AddressURL(v.ChainID, v.Address.Hex()),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("http request",
			zap.String("route", route),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}
