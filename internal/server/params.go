package server

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"vaultScope/internal/feed"
	"vaultScope/internal/model"
)

// ParseLimit reads a result-size limit. A missing, non-numeric or infinite
// value selects def; anything else is clamped into [1, max].
func ParseLimit(raw string, def, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return def
	}
	switch {
	case n < 1:
		return 1
	case n > float64(max):
		return max
	}
	return int(n)
}

// ParseViewQuery reads a ViewQuery from URL parameters.
func ParseViewQuery(q url.Values) (feed.ViewQuery, error) {
	var out feed.ViewQuery

	switch mode := strings.TrimSpace(q.Get("view")); mode {
	case "", string(feed.ViewUser):
		out.Mode = feed.ViewUser
	case string(feed.ViewVault):
		out.Mode = feed.ViewVault
	default:
		return out, fmt.Errorf("invalid view %q", mode)
	}

	out.Vault = strings.TrimSpace(q.Get("vault"))

	if raw := strings.TrimSpace(q.Get("type")); raw != "" && raw != "all" {
		t, err := model.ParseEventType(raw)
		if err != nil {
			return out, err
		}
		out.Type = t
	}

	var err error
	if out.ChainID, err = optionalInt64(q, "chainId"); err != nil {
		return out, err
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"limitPerCategory", &out.LimitPerCategory},
		{"page", &out.Page},
		{"pageSize", &out.PageSize},
	}
	for _, field := range ints {
		v, err := optionalInt64(q, field.key)
		if err != nil {
			return out, err
		}
		*field.dst = int(v)
	}
	if out.PageSize > feed.DefaultPageSize*4 {
		out.PageSize = feed.DefaultPageSize * 4
	}

	if raw := strings.TrimSpace(q.Get("showRedundant")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, fmt.Errorf("invalid showRedundant %q", raw)
		}
		out.ShowRedundant = b
	}
	return out, nil
}

func optionalInt64(q url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" || raw == "all" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}
