package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultScope/internal/model"
)

func TestSplitKey(t *testing.T) {
	chainID, address, err := splitKey(model.StrategyKey(8453, "0xABC"))
	require.NoError(t, err)
	assert.Equal(t, int64(8453), chainID)
	assert.Equal(t, "0xabc", address)

	for _, bad := range []string{"", "8453", "x:0xabc", "1:"} {
		_, _, err := splitKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitKeys(t *testing.T) {
	chains, addrs, err := splitKeys([]string{"1:0xa", "8453:0xb"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 8453}, chains)
	assert.Equal(t, []string{"0xa", "0xb"}, addrs)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullableNumeric(""))
	assert.Equal(t, "12", *nullableNumeric("12"))
	assert.Nil(t, nullableText(""))
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.Error(t, err)
}
