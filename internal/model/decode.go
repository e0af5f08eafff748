package model

import (
	"encoding/json"
	"fmt"
)

// DecodeEvent decodes a tagged JSON event as produced by the variants' MarshalJSON.
func DecodeEvent(data []byte) (Event, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event type: %w", err)
	}

	var (
		event Event
		err   error
	)
	switch head.Type {
	case EventDeposit:
		event, err = decodeAs[DepositEvent](data)
	case EventWithdraw:
		event, err = decodeAs[WithdrawEvent](data)
	case EventTransfer:
		event, err = decodeAs[TransferEvent](data)
	case EventStrategyReported:
		event, err = decodeAs[StrategyReportedEvent](data)
	case EventDebtUpdated:
		event, err = decodeAs[DebtUpdatedEvent](data)
	case EventStrategyChanged:
		event, err = decodeAs[StrategyChangedEvent](data)
	case EventShutdown:
		event, err = decodeAs[ShutdownEvent](data)
	case EventRoleSet:
		event, err = decodeAs[RoleSetEvent](data)
	default:
		return nil, fmt.Errorf("unknown event type: %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	return event, nil
}

func decodeAs[T Event](data []byte) (Event, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
