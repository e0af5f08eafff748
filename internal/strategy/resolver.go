package strategy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"vaultScope/internal/chain"
	"vaultScope/internal/metrics"
)

// ErrInvalidAddress is returned for a strategy address that is not 20-byte hex.
var ErrInvalidAddress = errors.New("invalid strategy address")

// CallerSource hands out a contract caller per chain.
type CallerSource interface {
	Caller(ctx context.Context, chainID int64) (chain.Caller, error)
}

// ContractResolver reads name() from strategy contracts over RPC.
type ContractResolver struct {
	callers CallerSource
}

// NewContractResolver builds a resolver over callers.
func NewContractResolver(callers CallerSource) *ContractResolver {
	return &ContractResolver{callers: callers}
}

// StrategyName returns the on-chain name of a strategy. A string return is
// tried first, then bytes32.
func (r *ContractResolver) StrategyName(ctx context.Context, chainID int64, address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	caller, err := r.callers.Caller(ctx, chainID)
	if err != nil {
		return "", err
	}
	target := common.HexToAddress(address)

	stringABI, err := nameABIStringInstance()
	if err != nil {
		return "", fmt.Errorf("parse name string abi: %w", err)
	}
	bytes32ABI, err := nameABIBytes32Instance()
	if err != nil {
		return "", fmt.Errorf("parse name bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, chainID, target, stringABI, "name")
	if err == nil {
		if name, ok := values[0].(string); ok {
			return strings.TrimSpace(name), nil
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	values, err = callMethod(ctx, caller, chainID, target, bytes32ABI, "name")
	if err != nil {
		return "", err
	}
	name, ok := bytes32ToString(values[0])
	if !ok {
		return "", fmt.Errorf("name: unsupported return type %T", values[0])
	}
	return strings.TrimSpace(name), nil
}

func callMethod(ctx context.Context, caller chain.Caller, chainID int64, target common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	metrics.RPCCallsTotal.WithLabelValues(strconv.FormatInt(chainID, 10), method, chain.ClassifyError(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
