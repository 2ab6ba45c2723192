// Package flashloan bridges a generic flash-loan interface onto pool flash
// swaps. The lender never holds funds across transactions: it derives the
// pool for a requested token, asks it to lend, and settles everything inside
// the pool's callback. The callback admits its caller purely by recomputing
// the pool address from the embedded pool key; there is no allow-list and no
// stored pending-loan state.
package flashloan

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/flashbridge/flashbridge/config"
	"github.com/flashbridge/flashbridge/dex/uniswapv3"
)

const addrCacheSize = 256

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Fee computes floor(amount * feeTier / 1e6) with an explicit uint256
// overflow check. Pure function.
func Fee(amount *big.Int, feeTier uint32) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid loan amount")
	}
	if amount.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: amount exceeds uint256", ErrArithmeticOverflow)
	}
	product := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(feeTier)))
	if product.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %s * %d exceeds uint256", ErrArithmeticOverflow, amount, feeTier)
	}
	return product.Div(product, big.NewInt(config.FeeDenominator)), nil
}

// Lender orchestrates flash loans against deterministically derived pools.
type Lender struct {
	cfg       *config.Config
	address   common.Address
	ledger    Ledger
	pools     PoolResolver
	borrowers BorrowerResolver
	logger    *zap.Logger
	addrCache *lru.Cache
	metrics   struct {
		loans   prometheus.Counter
		volume  prometheus.Counter
		fees    prometheus.Counter
		errors  prometheus.CounterVec
		latency prometheus.Histogram
	}
}

// NewLender creates a lender settling loans through ledger. address is the
// lender's own identity, the recipient of the pool's payout.
func NewLender(cfg *config.Config, address common.Address, ledger Ledger, pools PoolResolver, borrowers BorrowerResolver, logger *zap.Logger) (*Lender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if pools == nil {
		return nil, fmt.Errorf("pool resolver cannot be nil")
	}
	if borrowers == nil {
		return nil, fmt.Errorf("borrower resolver cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	cache, err := lru.New(addrCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create address cache: %w", err)
	}

	l := &Lender{
		cfg:       cfg,
		address:   address,
		ledger:    ledger,
		pools:     pools,
		borrowers: borrowers,
		logger:    logger,
		addrCache: cache,
	}

	l.metrics.loans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flashbridge_loans_total",
		Help: "Total number of settled flash loans",
	})
	l.metrics.volume = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flashbridge_loan_volume_wei",
		Help: "Total principal lent in wei",
	})
	l.metrics.fees = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flashbridge_loan_fees_wei",
		Help: "Total fees pulled back to pools in wei",
	})
	l.metrics.errors = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flashbridge_loan_errors_total",
		Help: "Flash loan failures by kind",
	}, []string{"kind"})
	l.metrics.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashbridge_loan_latency_seconds",
		Help:    "End-to-end latency of loan attempts",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	return l, nil
}

// Address returns the lender's own address.
func (l *Lender) Address() common.Address {
	return l.address
}

// PoolKeyFor derives the canonical pool key for a loan of currency.
func (l *Lender) PoolKeyFor(currency common.Address) uniswapv3.PoolKey {
	return uniswapv3.PoolKeyFor(currency, l.cfg.CounterAssetA, l.cfg.CounterAssetB, l.cfg.FeeTier)
}

// PoolAddress derives the address of the pool that services currency.
func (l *Lender) PoolAddress(currency common.Address) common.Address {
	if cached, ok := l.addrCache.Get(currency); ok {
		return cached.(common.Address)
	}
	addr := uniswapv3.ComputePoolAddress(l.cfg.Factory, l.PoolKeyFor(currency), l.cfg.PoolInitCodeHash)
	l.addrCache.Add(currency, addr)
	return addr
}

// MaxFlashLoan returns the pool's currency balance, or zero when no funded
// pool exists. A zero balance and a missing pool are indistinguishable here.
func (l *Lender) MaxFlashLoan(currency common.Address) *big.Int {
	return l.ledger.BalanceOf(currency, l.PoolAddress(currency))
}

// FlashFee quotes the fee for borrowing amount of currency. Fails with
// ErrUnsupportedCurrency when no funded pool exists for it.
func (l *Lender) FlashFee(currency common.Address, amount *big.Int) (*big.Int, error) {
	if l.MaxFlashLoan(currency).Sign() == 0 {
		return nil, fmt.Errorf("%w: no funded pool for %s", ErrUnsupportedCurrency, currency.Hex())
	}
	return Fee(amount, l.cfg.FeeTier)
}

// FlashLoan borrows amount of currency for borrower and settles within the
// call. Any failure reverts every transfer made during the attempt, leaving
// balances exactly as before.
func (l *Lender) FlashLoan(ctx context.Context, initiator common.Address, borrower Borrower, currency common.Address, amount *big.Int, userData []byte) error {
	start := time.Now()
	defer func() {
		l.metrics.latency.Observe(time.Since(start).Seconds())
	}()

	if borrower == nil {
		return fmt.Errorf("borrower cannot be nil")
	}

	fee, err := l.FlashFee(currency, amount)
	if err != nil {
		l.metrics.errors.WithLabelValues(errKind(err)).Inc()
		return err
	}

	key := l.PoolKeyFor(currency)
	poolAddr := l.PoolAddress(currency)
	pool, ok := l.pools.PoolAt(poolAddr)
	if !ok {
		l.metrics.errors.WithLabelValues(errKind(ErrUnsupportedCurrency)).Inc()
		return fmt.Errorf("%w: no pool deployed at %s", ErrUnsupportedCurrency, poolAddr.Hex())
	}

	// Single-sided loan: exactly one leg carries the amount.
	amount0, amount1 := new(big.Int), new(big.Int)
	if currency == key.Token0 {
		amount0.Set(amount)
	} else {
		amount1.Set(amount)
	}

	blob, err := (&LoanContext{
		Initiator: initiator,
		Receiver:  borrower.Address(),
		Token:     currency,
		Amount:    new(big.Int).Set(amount),
		Key:       key,
		UserData:  userData,
	}).Encode()
	if err != nil {
		return fmt.Errorf("failed to encode loan context: %w", err)
	}

	snapshot := l.ledger.Snapshot()
	if err := pool.Flash(ctx, l, amount0, amount1, blob); err != nil {
		l.ledger.RevertToSnapshot(snapshot)
		l.metrics.errors.WithLabelValues(errKind(err)).Inc()
		l.logger.Warn("flash loan reverted",
			zap.String("currency", currency.Hex()),
			zap.String("pool", poolAddr.Hex()),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return fmt.Errorf("flash loan failed: %w", err)
	}

	l.metrics.loans.Inc()
	l.metrics.volume.Add(float64(amount.Uint64()))
	l.metrics.fees.Add(float64(fee.Uint64()))
	l.logger.Info("flash loan settled",
		zap.String("currency", currency.Hex()),
		zap.String("pool", poolAddr.Hex()),
		zap.String("receiver", borrower.Address().Hex()),
		zap.String("amount", amount.String()),
		zap.String("fee", fee.String()))
	return nil
}

// UniswapV3FlashCallback is invoked by the pool after it has transferred the
// requested amounts to the lender. caller must equal the address re-derived
// from the pool key inside data; nothing else gates this entrypoint.
func (l *Lender) UniswapV3FlashCallback(ctx context.Context, caller common.Address, fee0, fee1 *big.Int, data []byte) error {
	loan, err := DecodeLoanContext(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorizedCallback, err)
	}

	expected := uniswapv3.ComputePoolAddress(l.cfg.Factory, loan.Key, l.cfg.PoolInitCodeHash)
	if caller != expected {
		l.metrics.errors.WithLabelValues(errKind(ErrUnauthorizedCallback)).Inc()
		return fmt.Errorf("%w: called by %s, derived %s", ErrUnauthorizedCallback, caller.Hex(), expected.Hex())
	}

	// The funded leg is the one carrying the borrowed token; its fee is the
	// matching fee argument (zero for sub-fee-unit amounts).
	fee := fee1
	if loan.Token == loan.Key.Token0 {
		fee = fee0
	}
	if fee == nil {
		fee = new(big.Int)
	}

	if err := l.ledger.Transfer(loan.Token, l.address, loan.Receiver, loan.Amount); err != nil {
		return fmt.Errorf("forwarding principal: %w", err)
	}

	borrower, ok := l.borrowers.BorrowerAt(loan.Receiver)
	if !ok {
		return fmt.Errorf("%w: no borrower at %s", ErrCallbackRejected, loan.Receiver.Hex())
	}
	marker, err := borrower.OnFlashLoan(ctx, loan.Initiator, loan.Token, loan.Amount, fee, loan.UserData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCallbackRejected, err)
	}
	if marker != CallbackSuccess {
		return fmt.Errorf("%w: unexpected acceptance marker %s", ErrCallbackRejected, marker.Hex())
	}

	repayment := new(big.Int).Add(loan.Amount, fee)
	if err := l.ledger.Transfer(loan.Token, loan.Receiver, caller, repayment); err != nil {
		return fmt.Errorf("%w: %v", ErrRepaymentFailed, err)
	}

	l.logger.Debug("flash loan callback settled",
		zap.String("pool", caller.Hex()),
		zap.String("token", loan.Token.Hex()),
		zap.String("repayment", repayment.String()))
	return nil
}
