package feed

import (
	"vaultScope/internal/model"
)

func env(id string, ts string, tx string) model.Envelope {
	parsed := model.ParseEventID(id)
	e := model.Envelope{
		ID:              id,
		BlockTimestamp:  model.Numeric(ts),
		TransactionHash: tx,
		VaultAddress:    "0xbe53a109b494e5c9f97b9cd39fe969be68bf6204",
	}
	if parsed.ChainIDValid {
		e.ChainID = parsed.ChainID
	}
	if parsed.BlockNumberValid {
		e.BlockNumber = model.NumericFromInt(parsed.BlockNumber)
	}
	return e
}

func deposit(id, ts, tx string) model.Event {
	return model.DepositEvent{Envelope: env(id, ts, tx), Assets: "100"}
}

func withdraw(id, ts, tx string) model.Event {
	return model.WithdrawEvent{Envelope: env(id, ts, tx), Assets: "100"}
}

func transfer(id, ts, tx string) model.Event {
	return model.TransferEvent{Envelope: env(id, ts, tx), Value: "100"}
}

func debtUpdate(id, ts, tx string) model.Event {
	return model.DebtUpdatedEvent{Envelope: env(id, ts, tx), Strategy: "0x5555555555555555555555555555555555555555"}
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Header().ID
	}
	return out
}

type vaultSet map[string]bool

func (v vaultSet) Contains(address string) bool {
	return v[address]
}
