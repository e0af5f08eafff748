package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// EventType tags the variant of an Event.
type EventType string

const (
	EventDeposit          EventType = "deposit"
	EventWithdraw         EventType = "withdraw"
	EventTransfer         EventType = "transfer"
	EventStrategyReported EventType = "strategyReported"
	EventDebtUpdated      EventType = "debtUpdated"
	EventStrategyChanged  EventType = "strategyChanged"
	EventShutdown         EventType = "shutdown"
	EventRoleSet          EventType = "roleSet"
)

// UserEventTypes are the user-transaction variants.
var UserEventTypes = []EventType{EventDeposit, EventWithdraw, EventTransfer}

// ManagementEventTypes are the vault-management variants.
var ManagementEventTypes = []EventType{
	EventStrategyReported,
	EventDebtUpdated,
	EventStrategyChanged,
	EventShutdown,
	EventRoleSet,
}

// IsUser reports whether t is a user-transaction type.
func (t EventType) IsUser() bool {
	return t == EventDeposit || t == EventWithdraw || t == EventTransfer
}

// IsManagement reports whether t is a vault-management type.
func (t EventType) IsManagement() bool {
	switch t {
	case EventStrategyReported, EventDebtUpdated, EventStrategyChanged, EventShutdown, EventRoleSet:
		return true
	default:
		return false
	}
}

// ParseEventType validates a type name.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.TrimSpace(s))
	if t.IsUser() || t.IsManagement() {
		return t, nil
	}
	return "", fmt.Errorf("unknown event type: %q", s)
}

// Envelope carries the fields shared by every variant.
type Envelope struct {
	ID              string  `json:"id"`
	ChainID         int64   `json:"chainId,omitempty"`
	BlockNumber     Numeric `json:"blockNumber,omitempty"`
	BlockTimestamp  Numeric `json:"blockTimestamp,omitempty"`
	TransactionHash string  `json:"transactionHash,omitempty"`
	VaultAddress    string  `json:"vaultAddress"`
}

// Header returns the shared envelope.
func (e Envelope) Header() Envelope {
	return e
}

// Event is the closed set of vault events. Values are treated as immutable.
type Event interface {
	Kind() EventType
	Header() Envelope
}

// StrategyEvent is implemented by variants that reference a strategy.
type StrategyEvent interface {
	Event
	StrategyAddress() string
}

// DepositEvent is an ERC-4626 Deposit.
type DepositEvent struct {
	Envelope
	Sender string `json:"sender"`
	Owner  string `json:"owner"`
	Assets string `json:"assets"`
	Shares string `json:"shares"`
}

// WithdrawEvent is an ERC-4626 Withdraw.
type WithdrawEvent struct {
	Envelope
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner"`
	Assets   string `json:"assets"`
	Shares   string `json:"shares"`
}

// TransferEvent is a vault share transfer.
type TransferEvent struct {
	Envelope
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Value    string `json:"value"`
}

// StrategyReportedEvent is a strategy accounting report.
type StrategyReportedEvent struct {
	Envelope
	Strategy     string `json:"strategy"`
	Gain         string `json:"gain"`
	Loss         string `json:"loss"`
	CurrentDebt  string `json:"current_debt"`
	ProtocolFees string `json:"protocol_fees"`
	TotalFees    string `json:"total_fees"`
	TotalRefunds string `json:"total_refunds"`
}

// DebtUpdatedEvent is a debt reallocation to or from a strategy.
type DebtUpdatedEvent struct {
	Envelope
	Strategy    string `json:"strategy"`
	CurrentDebt string `json:"current_debt"`
	NewDebt     string `json:"new_debt"`
}

// StrategyChangedEvent records a strategy being added or revoked.
type StrategyChangedEvent struct {
	Envelope
	Strategy   string `json:"strategy"`
	ChangeType string `json:"change_type"`
}

// ShutdownEvent records a vault shutdown.
type ShutdownEvent struct {
	Envelope
}

// RoleSetEvent records a role bitmask assignment.
type RoleSetEvent struct {
	Envelope
	Account string `json:"account"`
	Role    string `json:"role"`
}

func (DepositEvent) Kind() EventType          { return EventDeposit }
func (WithdrawEvent) Kind() EventType         { return EventWithdraw }
func (TransferEvent) Kind() EventType         { return EventTransfer }
func (StrategyReportedEvent) Kind() EventType { return EventStrategyReported }
func (DebtUpdatedEvent) Kind() EventType      { return EventDebtUpdated }
func (StrategyChangedEvent) Kind() EventType  { return EventStrategyChanged }
func (ShutdownEvent) Kind() EventType         { return EventShutdown }
func (RoleSetEvent) Kind() EventType          { return EventRoleSet }

func (e StrategyReportedEvent) StrategyAddress() string { return e.Strategy }
func (e DebtUpdatedEvent) StrategyAddress() string      { return e.Strategy }
func (e StrategyChangedEvent) StrategyAddress() string  { return e.Strategy }

// DebtDelta returns new_debt - current_debt, or nil when either is missing.
func (e DebtUpdatedEvent) DebtDelta() *big.Int {
	if e.NewDebt == "" || e.CurrentDebt == "" {
		return nil
	}
	newDebt, ok := new(big.Int).SetString(e.NewDebt, 10)
	if !ok {
		return nil
	}
	current, ok := new(big.Int).SetString(e.CurrentDebt, 10)
	if !ok {
		return nil
	}
	return newDebt.Sub(newDebt, current)
}

// ResolveChainID prefers the explicit chainId field and falls back to the id.
func ResolveChainID(e Event) (int64, bool) {
	h := e.Header()
	if h.ChainID != 0 {
		return h.ChainID, true
	}
	parsed := ParseEventID(h.ID)
	return parsed.ChainID, parsed.ChainIDValid
}

// TxKey returns the lowercased transaction hash, or "" when absent.
func TxKey(e Event) string {
	return strings.ToLower(strings.TrimSpace(e.Header().TransactionHash))
}

func (e DepositEvent) MarshalJSON() ([]byte, error) {
	type alias DepositEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}

func (e WithdrawEvent) MarshalJSON() ([]byte, error) {
	type alias WithdrawEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}

func (e TransferEvent) MarshalJSON() ([]byte, error) {
	type alias TransferEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}

func (e StrategyReportedEvent) MarshalJSON() ([]byte, error) {
	type alias StrategyReportedEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}

func (e DebtUpdatedEvent) MarshalJSON() ([]byte, error) {
	type alias DebtUpdatedEvent
	var delta string
	if d := e.DebtDelta(); d != nil {
		delta = d.String()
	}
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
		DebtDelta string `json:"debt_delta,omitempty"`
	}{Type: e.Kind(), alias: alias(e), DebtDelta: delta})
}

func (e StrategyChangedEvent) MarshalJSON() ([]byte, error) {
	type alias StrategyChangedEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}

func (e ShutdownEvent) MarshalJSON() ([]byte, error) {
	type alias ShutdownEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}

func (e RoleSetEvent) MarshalJSON() ([]byte, error) {
	type alias RoleSetEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		alias
	}{Type: e.Kind(), alias: alias(e)})
}
