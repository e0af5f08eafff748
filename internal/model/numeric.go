package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Numeric is an integer-like value delivered either as a JSON string or a JSON
// number. The raw text is kept so large values survive without float rounding.
type Numeric string

// UnmarshalJSON accepts "123", 123, and null.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("numeric: %w", err)
		}
		*n = Numeric(strings.TrimSpace(s))
		return nil
	}
	if data[0] == '-' || (data[0] >= '0' && data[0] <= '9') {
		*n = Numeric(data)
		return nil
	}
	return fmt.Errorf("numeric: unsupported value %s", data)
}

// MarshalJSON encodes the value as a JSON string, matching the indexer output.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(n))
}

// IsSet reports whether a value was present.
func (n Numeric) IsSet() bool {
	return n != ""
}

// Int64 parses the value as a base-10 integer.
func (n Numeric) Int64() (int64, bool) {
	if n == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// BigInt parses the value with full precision.
func (n Numeric) BigInt() (*big.Int, bool) {
	if n == "" {
		return nil, false
	}
	return new(big.Int).SetString(string(n), 10)
}

// NumericFromInt builds a Numeric from an integer.
func NumericFromInt(v int64) Numeric {
	return Numeric(strconv.FormatInt(v, 10))
}
