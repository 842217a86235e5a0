package izumi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const quoterABIJSON = `[
	{"inputs":[{"internalType":"uint128","name":"amount","type":"uint128"},{"internalType":"bytes","name":"path","type":"bytes"}],"name":"swapAmount","outputs":[{"internalType":"uint256","name":"acquire","type":"uint256"},{"internalType":"int24[]","name":"pointAfterList","type":"int24[]"}],"stateMutability":"nonpayable","type":"function"}
]`

const swapABIJSON = `[
	{"inputs":[{"components":[{"internalType":"bytes","name":"path","type":"bytes"},{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint128","name":"amount","type":"uint128"},{"internalType":"uint256","name":"minAcquired","type":"uint256"},{"internalType":"uint256","name":"deadline","type":"uint256"}],"internalType":"struct Swap.SwapAmountParams","name":"params","type":"tuple"}],"name":"swapAmount","outputs":[{"internalType":"uint256","name":"cost","type":"uint256"},{"internalType":"uint256","name":"acquire","type":"uint256"}],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"bytes[]","name":"data","type":"bytes[]"}],"name":"multicall","outputs":[{"internalType":"bytes[]","name":"results","type":"bytes[]"}],"stateMutability":"payable","type":"function"},
	{"inputs":[],"name":"refundETH","outputs":[],"stateMutability":"payable","type":"function"}
]`

var (
	quoterABI = mustABI(quoterABIJSON)
	swapABI   = mustABI(swapABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
