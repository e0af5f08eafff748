package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultScope/internal/feed"
	"vaultScope/internal/model"
	"vaultScope/internal/storage"
	"vaultScope/internal/vaults"
)

func TestDescribeFormatsWithVaultDecimals(t *testing.T) {
	usdc, ok := vaults.Default().Lookup("0xbe53a109b494e5c9f97b9cd39fe969be68bf6204")
	require.True(t, ok)

	deposit := model.DepositEvent{Owner: "0x1111111111111111111111111111111111111111", Assets: "1234500000"}
	assert.Equal(t, "1,234.5 USDC by 0x1111...1111", describe(deposit, usdc, nil, 1))

	debt := model.DebtUpdatedEvent{Strategy: "0x2222222222222222222222222222222222222222", CurrentDebt: "5000000", NewDebt: "2000000"}
	assert.Equal(t, "0x2222...2222 debt -3 USDC", describe(debt, usdc, nil, 1))

	assert.Equal(t, "0x2222...2222 debt ?", describe(model.DebtUpdatedEvent{Strategy: debt.Strategy}, vaults.Vault{}, nil, 1))
	assert.Equal(t, "", describe(model.ShutdownEvent{}, usdc, nil, 1))

	names := model.StrategyNames{model.StrategyKey(1, debt.Strategy): "Morpho Lender"}
	assert.Equal(t, "Morpho Lender (0x2222...2222) debt -3 USDC", describe(debt, usdc, names, 1))
	assert.Equal(t, "0x2222...2222 debt -3 USDC", describe(debt, usdc, names, 8453))
}

func TestWriteTable(t *testing.T) {
	page := feed.Page{
		Events: []model.Event{
			model.WithdrawEvent{
				Envelope: model.Envelope{
					ID:              "8453_10_2",
					BlockTimestamp:  "1700000000",
					TransactionHash: "0xabcdef0123456789",
					VaultAddress:    "0xb13CF163d916917d9cD6E836905cA5f12a1dEF4B",
				},
				Receiver: "0x3333333333333333333333333333333333333333",
				Assets:   "2500000",
			},
		},
		Page:       1,
		PageSize:   50,
		TotalPages: 1,
		Total:      1,
	}

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, page, vaults.Default(), nil))
	out := buf.String()
	assert.Contains(t, out, "2023-11-14 22:13:20")
	assert.Contains(t, out, "Base")
	assert.Contains(t, out, "USDC True Yield Vault (Base)")
	assert.Contains(t, out, "2.5 USDC to 0x3333...3333")
	assert.Contains(t, out, "https://basescan.org/tx/0xabcdef0123456789")
	assert.Contains(t, out, "page 1/1, 1 events")
}

func TestArchivedFeedFoldsRepeatedFetches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	archive := storage.NewJsonlStorage(path)
	debt := model.DebtUpdatedEvent{
		Envelope: model.Envelope{
			ID:              "8453_100_0",
			BlockTimestamp:  "1700000000",
			TransactionHash: "0xd1",
			VaultAddress:    "0xb13CF163d916917d9cD6E836905cA5f12a1dEF4B",
		},
		Strategy:    "0x2222222222222222222222222222222222222222",
		CurrentDebt: "0",
		NewDebt:     "1000000",
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, archive.PutEventBatch(context.Background(), []model.Event{debt}))
	}

	events, stats, err := storage.ReadEventsFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Decoded)

	page := feed.Apply(archivedFeed(events), feed.ViewQuery{
		Mode:     feed.ViewVault,
		Vault:    "0xb13CF163d916917d9cD6E836905cA5f12a1dEF4B",
		ChainID:  8453,
		Page:     1,
		PageSize: 50,
	}, vaults.Default())
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "8453_100_0", page.Events[0].Header().ID)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "", redactDSN(""))
	assert.Equal(t, "postgres://feed:xxxxx@db:5432/vaults", redactDSN("postgres://feed:secret@db:5432/vaults"))
	assert.Equal(t, "postgres://db/vaults", redactDSN("postgres://db/vaults"))
	assert.Equal(t, "redacted", redactDSN("host=db password=secret"))
}
