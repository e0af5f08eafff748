// Package timestamp converts block timestamps of unknown unit into seconds.
package timestamp

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Rule divides values strictly greater than Above by Divisor.
type Rule struct {
	Above   *big.Int
	Divisor *big.Int
}

// Normalizer applies the first matching rule of a ranked list.
type Normalizer struct {
	rules []Rule
}

// DefaultRules classify by magnitude: ns above 1e17, µs above 1e14,
// ms above 1e11, seconds otherwise.
func DefaultRules() []Rule {
	return []Rule{
		{Above: pow10(17), Divisor: pow10(9)},
		{Above: pow10(14), Divisor: pow10(6)},
		{Above: pow10(11), Divisor: pow10(3)},
	}
}

// New returns a Normalizer using rules in order. A nil slice selects DefaultRules.
func New(rules []Rule) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

var defaultNormalizer = New(nil)

// Seconds normalizes with the default rules.
func Seconds(raw string) (int64, bool) {
	return defaultNormalizer.Seconds(raw)
}

// Seconds returns canonical seconds since epoch. ok is false when raw is
// empty, non-numeric, zero, or negative.
func (n *Normalizer) Seconds(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if isDigits(raw) {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return 0, false
		}
		return n.FromBig(v)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return n.FromFloat(f)
}

// FromBig normalizes an exact integer.
func (n *Normalizer) FromBig(v *big.Int) (int64, bool) {
	if v == nil || v.Sign() <= 0 {
		return 0, false
	}
	out := new(big.Int).Set(v)
	for _, rule := range n.rules {
		if v.Cmp(rule.Above) > 0 {
			out.Quo(out, rule.Divisor)
			break
		}
	}
	if !out.IsInt64() {
		return 0, false
	}
	return out.Int64(), true
}

// FromFloat normalizes a non-integral or exponent-form number, flooring the result.
func (n *Normalizer) FromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	for _, rule := range n.rules {
		above, _ := new(big.Float).SetInt(rule.Above).Float64()
		if f > above {
			div, _ := new(big.Float).SetInt(rule.Divisor).Float64()
			f = f / div
			break
		}
	}
	f = math.Floor(f)
	if f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}
