package flashloan

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CallbackSuccess is the acceptance marker a borrower must return from
// OnFlashLoan. Any other value rejects the loan.
var CallbackSuccess = crypto.Keccak256Hash([]byte("ERC3156FlashBorrower.onFlashLoan"))

// Pool is the external liquidity pool that custodies the funds. Flash must
// transfer the requested amounts to the recipient before invoking its
// callback, and must fail if its reserves are not restored (principal plus
// fee) by the time the callback returns. The lender relies on that invariant
// instead of re-verifying pool solvency.
type Pool interface {
	Address() common.Address
	Token0() common.Address
	Token1() common.Address
	Flash(ctx context.Context, recipient FlashCallee, amount0, amount1 *big.Int, data []byte) error
}

// FlashCallee receives the pool's flash callback. caller is the identity of
// the invoking pool and is what callback authentication checks.
type FlashCallee interface {
	Address() common.Address
	UniswapV3FlashCallback(ctx context.Context, caller common.Address, fee0, fee1 *big.Int, data []byte) error
}

// Borrower is the party a loan is forwarded to. By the time OnFlashLoan
// returns it must hold at least amount+fee of token and have arranged for
// the lender to pull that amount back, or the loan fails.
type Borrower interface {
	Address() common.Address
	OnFlashLoan(ctx context.Context, initiator common.Address, token common.Address, amount, fee *big.Int, userData []byte) (common.Hash, error)
}

// Ledger is the token balance book the lender moves funds through.
// Snapshot/RevertToSnapshot bound a loan attempt: a failed loan reverts
// every transfer it made.
type Ledger interface {
	BalanceOf(token, holder common.Address) *big.Int
	Transfer(token, from, to common.Address, amount *big.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// PoolResolver maps a derived address to the pool deployed there, if any.
type PoolResolver interface {
	PoolAt(addr common.Address) (Pool, bool)
}

// BorrowerResolver maps a receiver address to its borrower implementation.
type BorrowerResolver interface {
	BorrowerAt(addr common.Address) (Borrower, bool)
}
