package flashloan_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/flashbridge/flashbridge/config"
	"github.com/flashbridge/flashbridge/flashloan"
	"github.com/flashbridge/flashbridge/simulator"
)

var (
	tokenX       = common.HexToAddress("0xAAAA00000000000000000000000000000000AAAA")
	lenderAddr   = common.HexToAddress("0x00000000000000000000000000000000000F1a5F")
	borrowerAddr = common.HexToAddress("0x0000000000000000000000000000000000B0Bb0b")
	initiator    = common.HexToAddress("0x0000000000000000000000000000000000123456")
)

func newTestRig(t testing.TB) (*config.Config, *simulator.World, *flashloan.Lender) {
	t.Helper()
	cfg := config.DefaultConfig()
	world := simulator.NewWorld(zaptest.NewLogger(t))
	lender, err := flashloan.NewLender(cfg, lenderAddr, world.Ledger(), world, world, zaptest.NewLogger(t))
	require.NoError(t, err)
	return cfg, world, lender
}

func TestMaxFlashLoan(t *testing.T) {
	cfg, world, lender := newTestRig(t)

	assert.Equal(t, int64(0), lender.MaxFlashLoan(tokenX).Int64(), "no pool quotes zero")

	world.CreatePool(cfg, tokenX, big.NewInt(1_000_000))
	assert.Equal(t, big.NewInt(1_000_000), lender.MaxFlashLoan(tokenX))
}

func TestFlashFeeUnsupportedCurrency(t *testing.T) {
	_, _, lender := newTestRig(t)

	_, err := lender.FlashFee(tokenX, big.NewInt(1000))
	require.ErrorIs(t, err, flashloan.ErrUnsupportedCurrency)
}

func TestFlashFee(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	world.CreatePool(cfg, tokenX, big.NewInt(100_000_000_000))

	fee, err := lender.FlashFee(tokenX, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3000), fee)
}

func TestPoolKeyPairsAgainstCounterAssets(t *testing.T) {
	cfg, _, lender := newTestRig(t)

	key := lender.PoolKeyFor(tokenX)
	assert.Contains(t, []common.Address{key.Token0, key.Token1}, cfg.CounterAssetA)
	assert.Contains(t, []common.Address{key.Token0, key.Token1}, tokenX)

	key = lender.PoolKeyFor(cfg.CounterAssetA)
	assert.Contains(t, []common.Address{key.Token0, key.Token1}, cfg.CounterAssetB)
}

func TestFlashLoanEndToEnd(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	ledger := world.Ledger()

	liquidity := big.NewInt(1_000_000)
	pool := world.CreatePool(cfg, tokenX, liquidity)

	amount := big.NewInt(1000)
	fee, err := lender.FlashFee(tokenX, amount)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(3), fee)

	borrower := simulator.NewBorrower(borrowerAddr)
	world.RegisterBorrower(borrower)
	ledger.Mint(tokenX, borrowerAddr, fee)

	err = lender.FlashLoan(context.Background(), initiator, borrower, tokenX, amount, []byte("payload"))
	require.NoError(t, err)

	// Borrower netted to zero: +1000 principal, -1000-3 repayment, +3 pre-funded fee.
	assert.Equal(t, int64(0), ledger.BalanceOf(tokenX, borrowerAddr).Int64())
	// Pool kept its liquidity plus the fee.
	assert.Equal(t, new(big.Int).Add(liquidity, fee), ledger.BalanceOf(tokenX, pool.Address()))
	// The lender holds nothing outside the loan.
	assert.Equal(t, int64(0), ledger.BalanceOf(tokenX, lenderAddr).Int64())

	require.Len(t, borrower.Receipts, 1)
	receipt := borrower.Receipts[0]
	assert.Equal(t, initiator, receipt.Initiator)
	assert.Equal(t, tokenX, receipt.Token)
	assert.Equal(t, amount, receipt.Amount)
	assert.Equal(t, fee, receipt.Fee)
	assert.Equal(t, []byte("payload"), receipt.UserData)
}

func TestFlashLoanCounterAssetItself(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	world.CreatePool(cfg, cfg.CounterAssetA, big.NewInt(1_000_000))

	borrower := simulator.NewBorrower(borrowerAddr)
	world.RegisterBorrower(borrower)
	world.Ledger().Mint(cfg.CounterAssetA, borrowerAddr, big.NewInt(3))

	err := lender.FlashLoan(context.Background(), initiator, borrower, cfg.CounterAssetA, big.NewInt(1000), nil)
	require.NoError(t, err)
	require.Len(t, borrower.Receipts, 1)
	assert.Equal(t, cfg.CounterAssetA, borrower.Receipts[0].Token)
}

func TestCallbackAuthentication(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	world.CreatePool(cfg, tokenX, big.NewInt(1_000_000))

	blob, err := (&flashloan.LoanContext{
		Initiator: initiator,
		Receiver:  borrowerAddr,
		Token:     tokenX,
		Amount:    big.NewInt(1000),
		Key:       lender.PoolKeyFor(tokenX),
	}).Encode()
	require.NoError(t, err)

	impostors := []common.Address{
		{}, // zero address
		borrowerAddr,
		lenderAddr,
		common.HexToAddress("0xDEAD00000000000000000000000000000000BEEF"),
	}
	for _, impostor := range impostors {
		err := lender.UniswapV3FlashCallback(context.Background(), impostor, big.NewInt(3), big.NewInt(0), blob)
		require.ErrorIs(t, err, flashloan.ErrUnauthorizedCallback, "caller %s must be rejected", impostor.Hex())
	}

	// The genuine derived address passes authentication (and then fails
	// later for lack of funds at the lender, which is a different error).
	err = lender.UniswapV3FlashCallback(context.Background(), lender.PoolAddress(tokenX), big.NewInt(3), big.NewInt(0), blob)
	require.Error(t, err)
	assert.NotErrorIs(t, err, flashloan.ErrUnauthorizedCallback)
}

func TestCallbackRejectsGarbageContext(t *testing.T) {
	_, _, lender := newTestRig(t)

	err := lender.UniswapV3FlashCallback(context.Background(), lenderAddr, big.NewInt(0), big.NewInt(0), []byte("junk"))
	require.ErrorIs(t, err, flashloan.ErrUnauthorizedCallback)
}

func TestFlashLoanBorrowerRejects(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	ledger := world.Ledger()

	liquidity := big.NewInt(1_000_000)
	pool := world.CreatePool(cfg, tokenX, liquidity)

	borrower := simulator.NewBorrower(borrowerAddr)
	borrower.Marker = common.HexToHash("0x01") // anything but the acceptance marker
	world.RegisterBorrower(borrower)
	ledger.Mint(tokenX, borrowerAddr, big.NewInt(3))

	err := lender.FlashLoan(context.Background(), initiator, borrower, tokenX, big.NewInt(1000), nil)
	require.ErrorIs(t, err, flashloan.ErrCallbackRejected)

	// Everything reverted: the borrower never keeps the principal, the pool
	// is whole.
	assert.Equal(t, big.NewInt(3), ledger.BalanceOf(tokenX, borrowerAddr))
	assert.Equal(t, liquidity, ledger.BalanceOf(tokenX, pool.Address()))
}

func TestFlashLoanRepaymentFails(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	ledger := world.Ledger()

	liquidity := big.NewInt(1_000_000)
	pool := world.CreatePool(cfg, tokenX, liquidity)

	// Borrower accepts but was never funded with the fee, so the pull-back
	// of principal+fee cannot be satisfied.
	borrower := simulator.NewBorrower(borrowerAddr)
	world.RegisterBorrower(borrower)

	err := lender.FlashLoan(context.Background(), initiator, borrower, tokenX, big.NewInt(1000), nil)
	require.ErrorIs(t, err, flashloan.ErrRepaymentFailed)

	assert.Equal(t, int64(0), ledger.BalanceOf(tokenX, borrowerAddr).Int64())
	assert.Equal(t, liquidity, ledger.BalanceOf(tokenX, pool.Address()))
}

func TestQuotesUnchangedAfterFailedLoan(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	world.CreatePool(cfg, tokenX, big.NewInt(1_000_000))

	maxBefore := lender.MaxFlashLoan(tokenX)
	feeBefore, err := lender.FlashFee(tokenX, big.NewInt(1000))
	require.NoError(t, err)

	borrower := simulator.NewBorrower(borrowerAddr)
	world.RegisterBorrower(borrower)
	require.Error(t, lender.FlashLoan(context.Background(), initiator, borrower, tokenX, big.NewInt(1000), nil))

	maxAfter := lender.MaxFlashLoan(tokenX)
	feeAfter, err := lender.FlashFee(tokenX, big.NewInt(1000))
	require.NoError(t, err)

	assert.Equal(t, maxBefore, maxAfter)
	assert.Equal(t, feeBefore, feeAfter)
}

func TestFlashLoanExceedsLiquidity(t *testing.T) {
	cfg, world, lender := newTestRig(t)
	world.CreatePool(cfg, tokenX, big.NewInt(500))

	borrower := simulator.NewBorrower(borrowerAddr)
	world.RegisterBorrower(borrower)

	err := lender.FlashLoan(context.Background(), initiator, borrower, tokenX, big.NewInt(1000), nil)
	require.Error(t, err)
	assert.Equal(t, big.NewInt(500), lender.MaxFlashLoan(tokenX), "pool balance untouched")
}

func BenchmarkFlashLoan(b *testing.B) {
	cfg, world, lender := newTestRig(b)
	world.CreatePool(cfg, tokenX, big.NewInt(1_000_000_000))

	borrower := simulator.NewBorrower(borrowerAddr)
	world.RegisterBorrower(borrower)
	world.Ledger().Mint(tokenX, borrowerAddr, big.NewInt(1_000_000_000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := lender.FlashLoan(context.Background(), initiator, borrower, tokenX, big.NewInt(1000), nil); err != nil {
			b.Fatal(err)
		}
	}
}
