package envio

import "vaultScope/internal/model"

// Activity is one indexer response, one newest-first slice per event type.
type Activity struct {
	Deposits        []model.DepositEvent          `json:"deposits"`
	Withdrawals     []model.WithdrawEvent         `json:"withdrawals"`
	Transfers       []model.TransferEvent         `json:"transfers"`
	StrategyReports []model.StrategyReportedEvent `json:"strategyReports"`
	DebtUpdates     []model.DebtUpdatedEvent      `json:"debtUpdates"`
	StrategyChanges []model.StrategyChangedEvent  `json:"strategyChanges"`
	Shutdowns       []model.ShutdownEvent         `json:"shutdowns"`
	RoleSets        []model.RoleSetEvent          `json:"roleSets"`
}

// Append concatenates other onto a, type by type.
func (a *Activity) Append(other Activity) {
	a.Deposits = append(a.Deposits, other.Deposits...)
	a.Withdrawals = append(a.Withdrawals, other.Withdrawals...)
	a.Transfers = append(a.Transfers, other.Transfers...)
	a.StrategyReports = append(a.StrategyReports, other.StrategyReports...)
	a.DebtUpdates = append(a.DebtUpdates, other.DebtUpdates...)
	a.StrategyChanges = append(a.StrategyChanges, other.StrategyChanges...)
	a.Shutdowns = append(a.Shutdowns, other.Shutdowns...)
	a.RoleSets = append(a.RoleSets, other.RoleSets...)
}

// Len counts records of every type.
func (a Activity) Len() int {
	return len(a.Deposits) + len(a.Withdrawals) + len(a.Transfers) + len(a.StrategyReports) +
		len(a.DebtUpdates) + len(a.StrategyChanges) + len(a.Shutdowns) + len(a.RoleSets)
}

// Events flattens the response into one unordered slice.
func (a Activity) Events() []model.Event {
	out := make([]model.Event, 0, a.Len())
	for _, e := range a.Deposits {
		out = append(out, e)
	}
	for _, e := range a.Withdrawals {
		out = append(out, e)
	}
	for _, e := range a.Transfers {
		out = append(out, e)
	}
	for _, e := range a.StrategyReports {
		out = append(out, e)
	}
	for _, e := range a.DebtUpdates {
		out = append(out, e)
	}
	for _, e := range a.StrategyChanges {
		out = append(out, e)
	}
	for _, e := range a.Shutdowns {
		out = append(out, e)
	}
	for _, e := range a.RoleSets {
		out = append(out, e)
	}
	return out
}
