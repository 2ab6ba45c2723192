package simulator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashbridge/flashbridge/dex/uniswapv3"
	"github.com/flashbridge/flashbridge/erc20"
)

var (
	token0 = common.HexToAddress("0x1111111111111111111111111111111111111111")
	token1 = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// callee drives the pool from tests: it receives the payout and repays
// whatever repay0/repay1 say, from the funds it was just given.
type callee struct {
	address common.Address
	ledger  *erc20.Ledger
	pool    *Pool
	repay0  *big.Int
	repay1  *big.Int
	fail    error

	gotFee0 *big.Int
	gotFee1 *big.Int
	gotFrom common.Address
	gotBlob []byte
	invoked bool
}

func (c *callee) Address() common.Address { return c.address }

func (c *callee) UniswapV3FlashCallback(ctx context.Context, caller common.Address, fee0, fee1 *big.Int, data []byte) error {
	c.invoked = true
	c.gotFrom = caller
	c.gotFee0, c.gotFee1 = fee0, fee1
	c.gotBlob = data
	if c.fail != nil {
		return c.fail
	}
	if c.repay0 != nil && c.repay0.Sign() > 0 {
		if err := c.ledger.Transfer(c.pool.Token0(), c.address, c.pool.Address(), c.repay0); err != nil {
			return err
		}
	}
	if c.repay1 != nil && c.repay1.Sign() > 0 {
		if err := c.ledger.Transfer(c.pool.Token1(), c.address, c.pool.Address(), c.repay1); err != nil {
			return err
		}
	}
	return nil
}

func newPoolFixture(t *testing.T, liquidity int64) (*erc20.Ledger, *Pool) {
	t.Helper()
	ledger := erc20.NewLedger()
	key := uniswapv3.NewPoolKey(token0, token1, 3000)
	pool := NewPool(uniswapv3.MainnetFactory, key, uniswapv3.PoolInitCodeHash, ledger)
	ledger.Mint(token0, pool.Address(), big.NewInt(liquidity))
	ledger.Mint(token1, pool.Address(), big.NewInt(liquidity))
	return ledger, pool
}

func TestPoolAddressMatchesDerivation(t *testing.T) {
	_, pool := newPoolFixture(t, 1000)
	want := uniswapv3.ComputePoolAddress(uniswapv3.MainnetFactory, uniswapv3.NewPoolKey(token0, token1, 3000), uniswapv3.PoolInitCodeHash)
	assert.Equal(t, want, pool.Address())
}

func TestFlashPaysOutAndVerifiesRepayment(t *testing.T) {
	ledger, pool := newPoolFixture(t, 1_000_000)
	recipient := &callee{
		address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		ledger:  ledger,
		pool:    pool,
		repay0:  big.NewInt(1003), // principal + 0.3% fee
	}
	ledger.Mint(token0, recipient.address, big.NewInt(3))

	err := pool.Flash(context.Background(), recipient, big.NewInt(1000), big.NewInt(0), []byte("ctx"))
	require.NoError(t, err)

	require.True(t, recipient.invoked)
	assert.Equal(t, pool.Address(), recipient.gotFrom)
	assert.Equal(t, big.NewInt(3), recipient.gotFee0)
	assert.Equal(t, int64(0), recipient.gotFee1.Int64())
	assert.Equal(t, []byte("ctx"), recipient.gotBlob)
	assert.Equal(t, big.NewInt(1_000_003), ledger.BalanceOf(token0, pool.Address()))
}

func TestFlashFailsOnUnderRepayment(t *testing.T) {
	ledger, pool := newPoolFixture(t, 1_000_000)
	recipient := &callee{
		address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		ledger:  ledger,
		pool:    pool,
		repay0:  big.NewInt(1000), // principal only, no fee
	}

	err := pool.Flash(context.Background(), recipient, big.NewInt(1000), big.NewInt(0), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserves not restored")
}

func TestFlashPropagatesCallbackError(t *testing.T) {
	ledger, pool := newPoolFixture(t, 1_000_000)
	boom := errors.New("borrower logic failed")
	recipient := &callee{
		address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		ledger:  ledger,
		pool:    pool,
		fail:    boom,
	}

	err := pool.Flash(context.Background(), recipient, big.NewInt(0), big.NewInt(500), nil)
	require.ErrorIs(t, err, boom)
}

func TestFlashInsufficientLiquidity(t *testing.T) {
	ledger, pool := newPoolFixture(t, 100)
	recipient := &callee{
		address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		ledger:  ledger,
		pool:    pool,
	}

	err := pool.Flash(context.Background(), recipient, big.NewInt(1000), big.NewInt(0), nil)
	require.Error(t, err)
	assert.False(t, recipient.invoked, "callback must not fire when the payout fails")
}
