// Package vaults holds the static registry of tracked vaults and chains.
package vaults

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Vault describes one tracked vault.
type Vault struct {
	Address  common.Address
	ChainID  int64
	Name     string
	Symbol   string
	Decimals uint8
	Asset    common.Address
}

// SupportedChainIDs are the chains the indexer covers.
var SupportedChainIDs = []int64{1, 8453}

var chainNames = map[int64]string{
	1:      "Ethereum",
	10:     "Optimism",
	137:    "Polygon",
	8453:   "Base",
	42161:  "Arbitrum",
	747474: "Katana",
}

var explorers = map[int64]string{
	1:      "https://etherscan.io",
	10:     "https://optimistic.etherscan.io",
	137:    "https://polygonscan.com",
	8453:   "https://basescan.org",
	42161:  "https://arbiscan.io",
	747474: "https://katanascan.com",
}

var tracked = []Vault{
	{common.HexToAddress("0xBe53A109B494E5c9f97b9Cd39Fe969BE68BF6204"), 1, "USDC Vault", "USDC", 6, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")},
	{common.HexToAddress("0x028eC7330ff87667b6dfb0D94b954c820195336c"), 1, "DAI Vault", "DAI", 18, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")},
	{common.HexToAddress("0x310B7Ea7475A0B449Cfd73bE81522F1B88eFAFaa"), 1, "USDT Vault", "USDT", 6, common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")},
	{common.HexToAddress("0x182863131F9a4630fF9E27830d945B1413e347E8"), 1, "USDS Vault", "USDS", 18, common.HexToAddress("0xdC035D45d973E3EC169d2276DDab16f1e407384F")},
	{common.HexToAddress("0xBF319dDC2Edc1Eb6FDf9910E39b37Be221C8805F"), 1, "CRVUSD Vault", "CRVUSD", 18, common.HexToAddress("0xf939E0A03FB07F59A73314E73794Be0E57ac1b4E")},
	{common.HexToAddress("0xc56413869c6CDf96496f2b1eF801fEDBdFA7dDB0"), 1, "WETH Vault", "WETH", 18, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")},
	{common.HexToAddress("0xb13CF163d916917d9cD6E836905cA5f12a1dEF4B"), 8453, "USDC True Yield Vault (Base)", "USDC", 6, common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54BDA02913")},
	{common.HexToAddress("0xc3BD0A2193c8F027B82ddE3611D18589ef3f62a9"), 8453, "USDC Horizon Vault (Base)", "USDC", 6, common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54BDA02913")},
	{common.HexToAddress("0x4d81C7d534D703E0a0AECaDF668C0E0253E1f1C3"), 8453, "WETH Horizon Vault (Base)", "WETH", 18, common.HexToAddress("0x4200000000000000000000000000000000000006")},
	{common.HexToAddress("0x25f32eC89ce7732A4E9f8F3340a09259F823b7d3"), 8453, "cbBTC Horizon Vault (Base)", "cbBTC", 8, common.HexToAddress("0xcbb7c0000ab88b473b1f5afd9ef808440eed33bf")},
}

// Registry indexes vaults by lowercased address.
type Registry struct {
	byAddress map[string]Vault
	ordered   []Vault
}

// Default returns the registry of built-in tracked vaults.
func Default() *Registry {
	return NewRegistry(tracked)
}

// NewRegistry builds a registry over list.
func NewRegistry(list []Vault) *Registry {
	r := &Registry{byAddress: make(map[string]Vault, len(list))}
	for _, v := range list {
		key := strings.ToLower(v.Address.Hex())
		if _, dup := r.byAddress[key]; dup {
			continue
		}
		r.byAddress[key] = v
		r.ordered = append(r.ordered, v)
	}
	return r
}

// Contains reports whether address (any case) is a tracked vault.
func (r *Registry) Contains(address string) bool {
	_, ok := r.Lookup(address)
	return ok
}

// Lookup returns the vault at address.
func (r *Registry) Lookup(address string) (Vault, bool) {
	v, ok := r.byAddress[strings.ToLower(strings.TrimSpace(address))]
	return v, ok
}

// All returns the vaults in registration order.
func (r *Registry) All() []Vault {
	out := make([]Vault, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ChainName returns a display name for chainID.
func ChainName(chainID int64) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("Chain %d", chainID)
}

// IsSupported reports whether chainID is covered by the indexer.
func IsSupported(chainID int64) bool {
	for _, id := range SupportedChainIDs {
		if id == chainID {
			return true
		}
	}
	return false
}

// ParseChainIDs parses a comma-separated chain list against allowed. Entries
// outside allowed or malformed are dropped; an empty result falls back to
// allowed. A nil allowed selects every supported chain.
func ParseChainIDs(raw string, allowed []int64) []int64 {
	if len(allowed) == 0 {
		allowed = SupportedChainIDs
	}
	seen := make(map[int64]struct{})
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || !slices.Contains(allowed, id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		out = append(out, allowed...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseAddresses validates hex addresses, skipping blanks.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

func explorerBase(chainID int64) string {
	if base, ok := explorers[chainID]; ok {
		return base
	}
	return explorers[1]
}

// TxURL links a transaction on the chain's block explorer.
func TxURL(chainID int64, txHash string) string {
	return explorerBase(chainID) + "/tx/" + txHash
}

// AddressURL links an address on the chain's block explorer.
func AddressURL(chainID int64, address string) string {
	return explorerBase(chainID) + "/address/" + address
}
