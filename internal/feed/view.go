package feed

import (
	"strings"

	"vaultScope/internal/model"
)

// DefaultPageSize is the number of rows per page when a query sets none.
const DefaultPageSize = 50

// ViewMode selects which half of the feed is displayed.
type ViewMode string

const (
	ViewUser  ViewMode = "user"
	ViewVault ViewMode = "vault"
)

// ViewQuery describes one rendering of the feed. Zero values mean "all".
type ViewQuery struct {
	Mode             ViewMode
	Vault            string
	ChainID          int64
	Type             model.EventType
	ShowRedundant    bool
	LimitPerCategory int
	Page             int
	PageSize         int
}

// Page is one page of a view.
type Page struct {
	Events     []model.Event `json:"events"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
}

// FilterVault keeps events of one vault (case-insensitive). Empty keeps all.
func FilterVault(events []model.Event, vault string) []model.Event {
	vault = strings.ToLower(strings.TrimSpace(vault))
	if vault == "" {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if strings.ToLower(e.Header().VaultAddress) == vault {
			out = append(out, e)
		}
	}
	return out
}

// FilterChain keeps events of one chain. Zero keeps all.
func FilterChain(events []model.Event, chainID int64) []model.Event {
	if chainID == 0 {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if id, ok := model.ResolveChainID(e); ok && id == chainID {
			out = append(out, e)
		}
	}
	return out
}

// UserView returns deduplicated user transactions.
func UserView(events []model.Event) []model.Event {
	return DedupeUserEvents(FilterTypes(events, model.UserEventTypes...))
}

// VaultView returns management events, hiding debt updates caused by
// tracked-vault withdrawals unless showRedundant is set. Withdrawal hashes are
// taken before deduplication so a withdraw shadowed by a transfer of the same
// transaction still counts.
func VaultView(events []model.Event, tracked VaultSet, showRedundant bool) []model.Event {
	withdrawals := WithdrawTxHashes(FilterTypes(events, model.EventWithdraw), tracked)
	return FilterRedundant(events, withdrawals, showRedundant)
}

// Apply runs the full view pipeline over newest-first events and returns the
// requested page. The page number is clamped into range.
func Apply(events []model.Event, q ViewQuery, tracked VaultSet) Page {
	scoped := FilterChain(FilterVault(events, q.Vault), q.ChainID)

	var selected []model.Event
	if q.Mode == ViewVault {
		selected = VaultView(scoped, tracked, q.ShowRedundant)
	} else {
		selected = UserView(scoped)
	}
	if q.Type != "" {
		selected = FilterTypes(selected, q.Type)
	}
	if q.LimitPerCategory > 0 && len(selected) > q.LimitPerCategory {
		selected = selected[:q.LimitPerCategory]
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := (len(selected) + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(selected) {
		end = len(selected)
	}
	rows := make([]model.Event, 0, end-start)
	rows = append(rows, selected[start:end]...)
	return Page{
		Events:     rows,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Total:      len(selected),
	}
}
