package timestamp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecondsClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
		ok   bool
	}{
		{name: "seconds", raw: "1700000000", want: 1700000000, ok: true},
		{name: "milliseconds", raw: "1700000000000", want: 1700000000, ok: true},
		{name: "microseconds", raw: "1700000000000000", want: 1700000000, ok: true},
		{name: "nanoseconds", raw: "1700000000123456789", want: 1700000000, ok: true},
		{name: "padded", raw: "  1700000000 ", want: 1700000000, ok: true},
		{name: "float seconds", raw: "1700000000.9", want: 1700000000, ok: true},
		{name: "exponent milliseconds", raw: "1.7e12", want: 1700000000, ok: true},
		{name: "zero", raw: "0", ok: false},
		{name: "negative", raw: "-5", ok: false},
		{name: "empty", raw: "", ok: false},
		{name: "garbage", raw: "soon", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Seconds(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSecondsBoundaries(t *testing.T) {
	// Thresholds are exclusive: exactly 1e11 stays seconds, 1e14 is still milliseconds.
	got, ok := Seconds("100000000000")
	assert.True(t, ok)
	assert.Equal(t, int64(100000000000), got)

	got, ok = Seconds("100000000000000")
	assert.True(t, ok)
	assert.Equal(t, int64(100000000000), got)

	got, ok = Seconds("100000000000001")
	assert.True(t, ok)
	assert.Equal(t, int64(100000000), got)
}

func TestSecondsBeyondInt64(t *testing.T) {
	// 1e30 divided by 1e9 still overflows int64.
	_, ok := Seconds("1000000000000000000000000000000")
	assert.False(t, ok)
}

func TestCustomRules(t *testing.T) {
	n := New([]Rule{{Above: big.NewInt(1000), Divisor: big.NewInt(10)}})
	got, ok := n.Seconds("5000")
	assert.True(t, ok)
	assert.Equal(t, int64(500), got)

	got, ok = n.Seconds("999")
	assert.True(t, ok)
	assert.Equal(t, int64(999), got)
}
