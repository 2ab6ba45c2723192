package uniswapv3

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

// Pool contract ABI, restricted to what the bridge needs: the immutable
// pair metadata and the flash entrypoint.
const poolABIJson = `[{
	"inputs": [],
	"name": "token0",
	"outputs": [{"name": "", "type": "address"}],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [],
	"name": "token1",
	"outputs": [{"name": "", "type": "address"}],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [],
	"name": "fee",
	"outputs": [{"name": "", "type": "uint24"}],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [
		{"name": "recipient", "type": "address"},
		{"name": "amount0", "type": "uint256"},
		{"name": "amount1", "type": "uint256"},
		{"name": "data", "type": "bytes"}
	],
	"name": "flash",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

const erc20ABIJson = `[{
	"inputs": [{"name": "account", "type": "address"}],
	"name": "balanceOf",
	"outputs": [{"name": "", "type": "uint256"}],
	"stateMutability": "view",
	"type": "function"
}]`

// Client wraps an ethclient with a token-bucket rate limit so quote loops
// cannot exhaust the RPC provider's request budget.
type Client struct {
	eth     *ethclient.Client
	limiter *rate.Limiter
}

// NewClient creates a rate-limited contract caller. rps is the sustained
// request rate, burst the bucket size.
func NewClient(eth *ethclient.Client, rps float64, burst int) (*Client, error) {
	if eth == nil {
		return nil, fmt.Errorf("ethclient cannot be nil")
	}
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("invalid rate limit: rps=%v burst=%d", rps, burst)
	}
	return &Client{eth: eth, limiter: rate.NewLimiter(rate.Limit(rps), burst)}, nil
}

// CodeAt implements bind.ContractCaller.
func (c *Client) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.eth.CodeAt(ctx, contract, blockNumber)
}

// CallContract implements bind.ContractCaller.
func (c *Client) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.eth.CallContract(ctx, call, blockNumber)
}

// PoolBinding is a read-only view of a deployed pool plus the call-data
// packer for its flash entrypoint. Transaction signing and submission stay
// with the caller.
type PoolBinding struct {
	contract *bind.BoundContract
	address  common.Address
	abi      abi.ABI
}

// NewPoolBinding binds the pool at address. caller may be nil when only
// PackFlash is needed.
func NewPoolBinding(address common.Address, caller bind.ContractCaller) (*PoolBinding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(poolABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}

	return &PoolBinding{
		contract: bind.NewBoundContract(address, parsedABI, caller, nil, nil),
		address:  address,
		abi:      parsedABI,
	}, nil
}

// Address returns the bound pool address.
func (p *PoolBinding) Address() common.Address {
	return p.address
}

// Token0 returns the lower-ordered token of the pair.
func (p *PoolBinding) Token0(ctx context.Context) (common.Address, error) {
	return p.addressView(ctx, "token0")
}

// Token1 returns the higher-ordered token of the pair.
func (p *PoolBinding) Token1(ctx context.Context) (common.Address, error) {
	return p.addressView(ctx, "token1")
}

// Fee returns the pool fee tier in hundredths of a basis point.
func (p *PoolBinding) Fee(ctx context.Context) (uint32, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, "fee"); err != nil {
		return 0, fmt.Errorf("failed to get fee: %w", err)
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("failed to parse fee")
	}
	return uint32(fee.Uint64()), nil
}

// PackFlash builds the call data for pool.flash(recipient, amount0, amount1, data).
func (p *PoolBinding) PackFlash(recipient common.Address, amount0, amount1 *big.Int, data []byte) ([]byte, error) {
	packed, err := p.abi.Pack("flash", recipient, amount0, amount1, data)
	if err != nil {
		return nil, fmt.Errorf("failed to pack flash call: %w", err)
	}
	return packed, nil
}

func (p *PoolBinding) addressView(ctx context.Context, method string) (common.Address, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return common.Address{}, fmt.Errorf("failed to get %s: %w", method, err)
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("failed to parse %s address", method)
	}
	return addr, nil
}

// ERC20Binding is a read-only balance view of a deployed token.
type ERC20Binding struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewERC20Binding binds the token at address.
func NewERC20Binding(address common.Address, caller bind.ContractCaller) (*ERC20Binding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return &ERC20Binding{
		contract: bind.NewBoundContract(address, parsedABI, caller, nil, nil),
		address:  address,
	}, nil
}

// BalanceOf returns holder's token balance.
func (t *ERC20Binding) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", holder); err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse balance")
	}
	return balance, nil
}
