package vaults

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	r := Default()

	v, ok := r.Lookup("0xbe53a109b494e5c9f97b9cd39fe969be68bf6204")
	require.True(t, ok)
	assert.Equal(t, "USDC Vault", v.Name)
	assert.Equal(t, uint8(6), v.Decimals)
	assert.True(t, r.Contains("0xBE53A109B494E5C9F97B9CD39FE969BE68BF6204"))
	assert.False(t, r.Contains("0x0000000000000000000000000000000000000001"))

	assert.Len(t, r.All(), 10)
}

func TestParseChainIDs(t *testing.T) {
	assert.Equal(t, []int64{8453}, ParseChainIDs("8453", nil))
	assert.Equal(t, []int64{1, 8453}, ParseChainIDs("8453, 1,1", nil))
	assert.Equal(t, []int64{1}, ParseChainIDs("abc,1,56", nil))
	assert.Equal(t, []int64{1, 8453}, ParseChainIDs("", nil))
	assert.Equal(t, []int64{1, 8453}, ParseChainIDs("56,foo", nil))
}

func TestParseChainIDsUsesConfiguredChains(t *testing.T) {
	configured := []int64{8453}

	assert.Equal(t, []int64{8453}, ParseChainIDs("", configured))
	assert.Equal(t, []int64{8453}, ParseChainIDs("1", configured))
	assert.Equal(t, []int64{8453}, ParseChainIDs("1,8453", configured))
	assert.Equal(t, []int64{10}, ParseChainIDs("10", []int64{1, 10}))
}

func TestChainNameAndExplorer(t *testing.T) {
	assert.Equal(t, "Base", ChainName(8453))
	assert.Equal(t, "Chain 56", ChainName(56))
	assert.Equal(t, "https://basescan.org/tx/0xabc", TxURL(8453, "0xabc"))
	assert.Equal(t, "https://etherscan.io/address/0x1", AddressURL(56, "0x1"))
}

func TestParseAddresses(t *testing.T) {
	addrs, err := ParseAddresses([]string{" 0xBe53A109B494E5c9f97b9Cd39Fe969BE68BF6204 ", ""})
	require.NoError(t, err)
	require.Len(t, addrs, 1)

	_, err = ParseAddresses([]string{"0x123"})
	assert.ErrorContains(t, err, "invalid address")
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1,234.5", FormatUnits("1234500000", 6))
	assert.Equal(t, "1,000,000", FormatUnits("1000000000000", 6))
	assert.Equal(t, "0.000001", FormatUnits("1", 6))
	assert.Equal(t, "-2.5", FormatUnits("-2500000000000000000", 18))
	assert.Equal(t, "12", FormatUnits("12", 0))
	assert.Equal(t, "n/a", FormatUnits("n/a", 6))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0xBe53...6204", ShortAddress("0xBe53A109B494E5c9f97b9Cd39Fe969BE68BF6204"))
	assert.Equal(t, "0x12", ShortAddress("0x12"))
}
