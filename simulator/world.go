// Package simulator executes flash loans locally. A World binds addresses to
// pools and borrowers over an in-memory token ledger, playing the role the
// chain plays for a deployed bridge: it routes the pool callback and gives
// the ledger journal its transaction boundary.
package simulator

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/flashbridge/flashbridge/config"
	"github.com/flashbridge/flashbridge/dex/uniswapv3"
	"github.com/flashbridge/flashbridge/erc20"
	"github.com/flashbridge/flashbridge/flashloan"
)

// World is an in-memory address space of pools and borrowers.
type World struct {
	mu        sync.RWMutex
	ledger    *erc20.Ledger
	pools     map[common.Address]flashloan.Pool
	borrowers map[common.Address]flashloan.Borrower
	logger    *zap.Logger
}

// NewWorld creates an empty world with a fresh ledger.
func NewWorld(logger *zap.Logger) *World {
	return &World{
		ledger:    erc20.NewLedger(),
		pools:     make(map[common.Address]flashloan.Pool),
		borrowers: make(map[common.Address]flashloan.Borrower),
		logger:    logger,
	}
}

// Ledger returns the world's token ledger.
func (w *World) Ledger() *erc20.Ledger {
	return w.ledger
}

// PoolAt implements flashloan.PoolResolver.
func (w *World) PoolAt(addr common.Address) (flashloan.Pool, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.pools[addr]
	return p, ok
}

// BorrowerAt implements flashloan.BorrowerResolver.
func (w *World) BorrowerAt(addr common.Address) (flashloan.Borrower, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.borrowers[addr]
	return b, ok
}

// RegisterPool deploys a pool at its own address.
func (w *World) RegisterPool(p flashloan.Pool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pools[p.Address()] = p
}

// RegisterBorrower deploys a borrower at its own address.
func (w *World) RegisterBorrower(b flashloan.Borrower) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.borrowers[b.Address()] = b
}

// CreatePool derives the pool for currency under cfg, funds both sides of
// the pair with liquidity, and registers it at the derived address.
func (w *World) CreatePool(cfg *config.Config, currency common.Address, liquidity *big.Int) *Pool {
	key := uniswapv3.PoolKeyFor(currency, cfg.CounterAssetA, cfg.CounterAssetB, cfg.FeeTier)
	pool := NewPool(cfg.Factory, key, cfg.PoolInitCodeHash, w.ledger)

	w.ledger.Mint(key.Token0, pool.Address(), liquidity)
	w.ledger.Mint(key.Token1, pool.Address(), liquidity)
	w.RegisterPool(pool)

	if w.logger != nil {
		w.logger.Debug("pool created",
			zap.String("address", pool.Address().Hex()),
			zap.String("token0", key.Token0.Hex()),
			zap.String("token1", key.Token1.Hex()),
			zap.Uint32("fee", key.Fee))
	}
	return pool
}
