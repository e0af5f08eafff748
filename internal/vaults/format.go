package vaults

import (
	"math/big"
	"strings"
)

// FormatUnits renders a base-unit integer string as a decimal with comma
// grouping, trimming trailing fractional zeros. Non-integer input is
// returned unchanged.
func FormatUnits(raw string, decimals uint8) string {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return raw
	}
	negative := value.Sign() < 0
	value.Abs(value)

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, fraction := new(big.Int).QuoRem(value, divisor, new(big.Int))

	out := groupThousands(whole.String())
	if fraction.Sign() != 0 {
		frac := fraction.String()
		frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
		out += "." + strings.TrimRight(frac, "0")
	}
	if negative {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ShortAddress abbreviates an address as 0x1234...abcd.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
