package simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashbridge/flashbridge/config"
	"github.com/flashbridge/flashbridge/dex/uniswapv3"
	"github.com/flashbridge/flashbridge/erc20"
	"github.com/flashbridge/flashbridge/flashloan"
)

// Pool funds flash loans from its ledger balances. It honors the external
// contract the lender relies on: pay out first, invoke the recipient's
// callback with its own address as caller, then fail the whole call unless
// its reserves were restored with the fee on top.
type Pool struct {
	key     uniswapv3.PoolKey
	address common.Address
	ledger  *erc20.Ledger
}

// NewPool places a pool at the address the factory would derive for key.
func NewPool(factory common.Address, key uniswapv3.PoolKey, initCodeHash common.Hash, ledger *erc20.Ledger) *Pool {
	return &Pool{
		key:     key,
		address: uniswapv3.ComputePoolAddress(factory, key, initCodeHash),
		ledger:  ledger,
	}
}

// Address implements flashloan.Pool.
func (p *Pool) Address() common.Address { return p.address }

// Token0 implements flashloan.Pool.
func (p *Pool) Token0() common.Address { return p.key.Token0 }

// Token1 implements flashloan.Pool.
func (p *Pool) Token1() common.Address { return p.key.Token1 }

// Flash implements flashloan.Pool.
func (p *Pool) Flash(ctx context.Context, recipient flashloan.FlashCallee, amount0, amount1 *big.Int, data []byte) error {
	if recipient == nil {
		return fmt.Errorf("pool %s: flash recipient cannot be nil", p.address.Hex())
	}

	fee0 := p.flashFee(amount0)
	fee1 := p.flashFee(amount1)
	before0 := p.ledger.BalanceOf(p.key.Token0, p.address)
	before1 := p.ledger.BalanceOf(p.key.Token1, p.address)

	if amount0 != nil && amount0.Sign() > 0 {
		if err := p.ledger.Transfer(p.key.Token0, p.address, recipient.Address(), amount0); err != nil {
			return fmt.Errorf("pool %s: insufficient token0 liquidity: %w", p.address.Hex(), err)
		}
	}
	if amount1 != nil && amount1.Sign() > 0 {
		if err := p.ledger.Transfer(p.key.Token1, p.address, recipient.Address(), amount1); err != nil {
			return fmt.Errorf("pool %s: insufficient token1 liquidity: %w", p.address.Hex(), err)
		}
	}

	if err := recipient.UniswapV3FlashCallback(ctx, p.address, fee0, fee1, data); err != nil {
		return fmt.Errorf("flash callback: %w", err)
	}

	// Repayment invariant: reserves restored plus fee, both legs.
	after0 := p.ledger.BalanceOf(p.key.Token0, p.address)
	if after0.Cmp(new(big.Int).Add(before0, fee0)) < 0 {
		return fmt.Errorf("pool %s: token0 reserves not restored (had %s, have %s, fee %s)",
			p.address.Hex(), before0, after0, fee0)
	}
	after1 := p.ledger.BalanceOf(p.key.Token1, p.address)
	if after1.Cmp(new(big.Int).Add(before1, fee1)) < 0 {
		return fmt.Errorf("pool %s: token1 reserves not restored (had %s, have %s, fee %s)",
			p.address.Hex(), before1, after1, fee1)
	}
	return nil
}

// flashFee charges the pool's tier on the borrowed amount, floored, matching
// what the lender quotes.
func (p *Pool) flashFee(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(p.key.Fee)))
	return fee.Div(fee, big.NewInt(config.FeeDenominator))
}
