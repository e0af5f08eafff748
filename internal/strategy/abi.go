package strategy

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Most strategies return name() as a string; a few older contracts return bytes32.
const nameABIStringJSON = `[
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const nameABIBytes32JSON = `[
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	nameABIString      abi.ABI
	nameABIStringOnce  sync.Once
	nameABIStringErr   error
	nameABIBytes32     abi.ABI
	nameABIBytes32Once sync.Once
	nameABIBytes32Err  error
)

func nameABIStringInstance() (abi.ABI, error) {
	nameABIStringOnce.Do(func() {
		nameABIString, nameABIStringErr = abi.JSON(strings.NewReader(nameABIStringJSON))
	})
	return nameABIString, nameABIStringErr
}

func nameABIBytes32Instance() (abi.ABI, error) {
	nameABIBytes32Once.Do(func() {
		nameABIBytes32, nameABIBytes32Err = abi.JSON(strings.NewReader(nameABIBytes32JSON))
	})
	return nameABIBytes32, nameABIBytes32Err
}
