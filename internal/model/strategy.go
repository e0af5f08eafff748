package model

import (
	"strconv"
	"strings"
)

// StrategyNameRequest asks for the display name of one strategy contract.
type StrategyNameRequest struct {
	ChainID         int64
	StrategyAddress string
}

// Key returns "{chainId}:{lowercased address}".
func (r StrategyNameRequest) Key() string {
	return StrategyKey(r.ChainID, r.StrategyAddress)
}

// StrategyKey builds the lookup key used by StrategyNames.
func StrategyKey(chainID int64, address string) string {
	return strconv.FormatInt(chainID, 10) + ":" + strings.ToLower(strings.TrimSpace(address))
}

// StrategyNames maps StrategyKey to a resolved display name.
type StrategyNames map[string]string

// Lookup returns the name for a strategy, if known.
func (n StrategyNames) Lookup(chainID int64, address string) (string, bool) {
	name, ok := n[StrategyKey(chainID, address)]
	return name, ok
}

// Merge copies non-empty names from other into n. Existing names are
// overwritten only by non-empty values, so the set only grows.
func (n StrategyNames) Merge(other StrategyNames) {
	for k, v := range other {
		if v == "" {
			continue
		}
		n[k] = v
	}
}

// Clone returns an independent copy.
func (n StrategyNames) Clone() StrategyNames {
	out := make(StrategyNames, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}
