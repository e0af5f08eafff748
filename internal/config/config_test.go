package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir so no stray config file is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func serveFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.String("envio-url", "", "")
	fs.String("rpc", "", "")
	fs.StringSlice("chains", nil, "")
	fs.Int("max-limit", 3000, "")
	fs.Duration("strategy-timeout", 3*time.Second, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadServeDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadServe("", serveFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 3000, cfg.MaxLimit)
	assert.Equal(t, 500, cfg.InitialLimit)
	assert.Equal(t, 3000, cfg.BackgroundLimit)
	assert.True(t, cfg.BackgroundEnabled)
	assert.Equal(t, 30*time.Second, cfg.ReloadInterval)
	assert.Equal(t, []int64{1, 8453}, cfg.Chains)
	assert.Equal(t, 24, cfg.Enrichment.MaxRequests)
	assert.Equal(t, 3*time.Second, cfg.Enrichment.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Indexer.CacheTTL)
	assert.Empty(t, cfg.Enrichment.RPCURLs)
}

func TestLoadServeFlagsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VAULTFEED_BACKGROUND_LIMIT", "1200")

	cfg, err := LoadServe("", serveFlags(t,
		"--envio-url", "https://indexer.example/v1/graphql",
		"--rpc", "1=https://eth.example, 8453=https://base.example",
		"--chains", "8453",
	))
	require.NoError(t, err)
	assert.Equal(t, "https://indexer.example/v1/graphql", cfg.Indexer.URL)
	assert.Equal(t, map[int64]string{1: "https://eth.example", 8453: "https://base.example"}, cfg.Enrichment.RPCURLs)
	assert.Equal(t, []int64{8453}, cfg.Chains)
	assert.Equal(t, 1200, cfg.BackgroundLimit)
}

func TestLoadServeRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := LoadServe("", serveFlags(t, "--chains", "base"))
	assert.ErrorContains(t, err, "invalid chains entry")

	_, err = LoadServe("", serveFlags(t, "--chains", "1,56"))
	assert.ErrorContains(t, err, "not covered by the indexer")

	_, err = LoadServe("", serveFlags(t, "--rpc", "eth=https://x"))
	assert.ErrorContains(t, err, "invalid rpc chain id")

	_, err = LoadServe("", serveFlags(t, "--max-limit", "10"))
	assert.ErrorContains(t, err, "default-limit")
}

func TestLoadServeConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial-limit: 200\nrpc:\n  \"10\": https://op.example\nchains: [1]\n"), 0o644))

	cfg, err := LoadServe(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.InitialLimit)
	assert.Equal(t, "https://op.example", cfg.Enrichment.RPCURLs[10])
	assert.Equal(t, []int64{1}, cfg.Chains)
}

func TestLoadFetchAndShow(t *testing.T) {
	chdir(t, t.TempDir())

	fetch, err := LoadFetch("", nil)
	require.NoError(t, err)
	assert.Equal(t, 500, fetch.Limit)
	assert.Equal(t, "./data/events.jsonl", fetch.Out)
	assert.Equal(t, "all", fetch.Scope)

	scopeFlags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	scopeFlags.String("scope", "all", "")
	require.NoError(t, scopeFlags.Parse([]string{"--scope", "prices"}))
	_, err = LoadFetch("", scopeFlags)
	assert.ErrorContains(t, err, "scope must be")

	show, err := LoadShow("", nil)
	require.NoError(t, err)
	assert.Equal(t, "user", show.View)
	assert.Equal(t, 1, show.Page)

	fs := pflag.NewFlagSet("show", pflag.ContinueOnError)
	fs.String("view", "user", "")
	require.NoError(t, fs.Parse([]string{"--view", "strategies"}))
	_, err = LoadShow("", fs)
	assert.ErrorContains(t, err, "view must be")
}
