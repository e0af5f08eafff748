package model

import (
	"strconv"
	"strings"
)

// EventID is the decoded form of "{chainId}_{blockNumber}_{logIndex}".
// A part that failed to parse has its matching Valid flag cleared.
type EventID struct {
	ChainID     int64
	BlockNumber int64
	LogIndex    int64

	ChainIDValid     bool
	BlockNumberValid bool
	LogIndexValid    bool
}

// ParseEventID splits id on "_" and parses the first three parts positionally.
// It never fails; unparseable parts are reported through the Valid flags.
func ParseEventID(id string) EventID {
	parts := strings.Split(id, "_")
	var out EventID
	out.ChainID, out.ChainIDValid = parsePart(parts, 0)
	out.BlockNumber, out.BlockNumberValid = parsePart(parts, 1)
	out.LogIndex, out.LogIndexValid = parsePart(parts, 2)
	return out
}

// FormatEventID is the inverse of ParseEventID.
func FormatEventID(chainID, blockNumber, logIndex int64) string {
	return strconv.FormatInt(chainID, 10) + "_" +
		strconv.FormatInt(blockNumber, 10) + "_" +
		strconv.FormatInt(logIndex, 10)
}

// String re-encodes the identifier. Only meaningful when all parts are valid.
func (id EventID) String() string {
	return FormatEventID(id.ChainID, id.BlockNumber, id.LogIndex)
}

func parsePart(parts []string, idx int) (int64, bool) {
	if idx >= len(parts) {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(parts[idx]), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
