package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Account signs every outgoing transaction of a bot run.
type Account struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

func NewAccount(key *ecdsa.PrivateKey) *Account {
	return &Account{Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}
}

// Call describes a contract interaction to be estimated, signed and broadcast.
// A nil GasPrice means the node's suggestion is used. A zero GasLimit is
// estimated on send and padded by GasBufferPercent.
type Call struct {
	To               common.Address
	Value            *big.Int
	Data             []byte
	GasPrice         *big.Int
	GasLimit         uint64
	GasBufferPercent uint64
}

type TxResult struct {
	Hash        common.Hash
	Status      uint64
	BlockNumber *big.Int
	GasLimit    uint64
	GasUsed     uint64
}

func (r *TxResult) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
}

// Dial connects to rpcURL and checks that the node serves chainID.
func Dial(ctx context.Context, rpcURL string, chainID int64) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("RPC connection failed: %w", err)
	}
	remote, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if remote.Int64() != chainID {
		eth.Close()
		return nil, fmt.Errorf("rpc %s serves chain %d, expected %d", rpcURL, remote.Int64(), chainID)
	}
	return &Client{eth: eth, chainID: remote}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}
	return balance, nil
}

func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	balance, err := c.callBigInt(ctx, token, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", token.Hex(), err)
	}
	return balance, nil
}

func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	allowance, err := c.callBigInt(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance of %s: %w", token.Hex(), err)
	}
	return allowance, nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

// CallContract runs a read-only eth_call against the latest block.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// EstimateGas returns the node's raw gas estimate for call sent by from.
func (c *Client) EstimateGas(ctx context.Context, from common.Address, call Call) (uint64, error) {
	estimate, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &call.To,
		Value: valueOf(call),
		Data:  call.Data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return estimate, nil
}

// Send signs call as a legacy EIP-155 transaction, broadcasts it and waits
// until it is mined.
func (c *Client) Send(ctx context.Context, from *Account, call Call) (*TxResult, error) {
	value := valueOf(call)

	gasLimit := call.GasLimit
	if gasLimit == 0 {
		estimate, err := c.EstimateGas(ctx, from.Address, call)
		if err != nil {
			return nil, err
		}
		gasLimit = BufferGas(estimate, call.GasBufferPercent)
	}

	gasPrice := call.GasPrice
	if gasPrice == nil {
		var err error
		if gasPrice, err = c.GasPrice(ctx); err != nil {
			return nil, err
		}
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     call.Data,
	})
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), from.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, signedTx)
	if err != nil {
		return nil, fmt.Errorf("transaction %s mining failed: %w", signedTx.Hash().Hex(), err)
	}
	return &TxResult{
		Hash:        signedTx.Hash(),
		Status:      receipt.Status,
		BlockNumber: receipt.BlockNumber,
		GasLimit:    gasLimit,
		GasUsed:     receipt.GasUsed,
	}, nil
}

func valueOf(call Call) *big.Int {
	if call.Value == nil {
		return big.NewInt(0)
	}
	return call.Value
}

func (c *Client) callBigInt(ctx context.Context, contract common.Address, method string, params ...interface{}) (*big.Int, error) {
	bound := bind.NewBoundContract(contract, ERC20ABI, c.eth, c.eth, c.eth)

	var result []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &result, method, params...); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no %s returned", method)
	}
	value, ok := result[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid %s type", method)
	}
	return value, nil
}
