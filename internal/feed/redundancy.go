package feed

import (
	"strings"

	"vaultScope/internal/model"
)

// VaultSet reports whether a vault address is tracked.
type VaultSet interface {
	Contains(address string) bool
}

// TxHashSet is a set of lowercased transaction hashes.
type TxHashSet map[string]struct{}

// Has reports whether hash (any case) is in the set.
func (s TxHashSet) Has(hash string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(hash))]
	return ok
}

// WithdrawTxHashes collects the hashes of withdrawals that target a tracked vault.
// A nil vault set accepts every vault.
func WithdrawTxHashes(userEvents []model.Event, tracked VaultSet) TxHashSet {
	out := make(TxHashSet)
	for _, e := range userEvents {
		if e.Kind() != model.EventWithdraw {
			continue
		}
		hash := model.TxKey(e)
		if hash == "" {
			continue
		}
		if tracked != nil && !tracked.Contains(e.Header().VaultAddress) {
			continue
		}
		out[hash] = struct{}{}
	}
	return out
}

// FilterRedundant drops debt updates emitted by a tracked-vault withdrawal.
// With showRedundant set the input is returned unchanged. Only management
// events are kept in the output.
func FilterRedundant(events []model.Event, withdrawals TxHashSet, showRedundant bool) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !e.Kind().IsManagement() {
			continue
		}
		if !showRedundant && e.Kind() == model.EventDebtUpdated && withdrawals.Has(e.Header().TransactionHash) {
			continue
		}
		out = append(out, e)
	}
	return out
}
