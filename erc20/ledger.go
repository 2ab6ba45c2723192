// Package erc20 holds an in-memory token balance book. It stands in for the
// token contracts when loans are executed locally: every transfer either
// succeeds or returns an error, and a journal makes whole call sequences
// revertible, which is what gives a simulated loan its all-or-nothing
// transaction boundary.
package erc20

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInsufficientBalance is returned when a transfer exceeds the sender's
// balance.
var ErrInsufficientBalance = errors.New("erc20: insufficient balance")

type holderKey struct {
	token  common.Address
	holder common.Address
}

type journalEntry struct {
	key  holderKey
	prev *big.Int // nil when the key was absent before the write
}

// Ledger maps (token, holder) to a balance. Writes are journaled, so any
// prefix of them can be undone with RevertToSnapshot. Safe for concurrent
// use, though a loan executes on a single call stack.
type Ledger struct {
	mu       sync.RWMutex
	balances map[holderKey]*big.Int
	journal  []journalEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[holderKey]*big.Int)}
}

// BalanceOf returns holder's balance of token. The returned value is a copy.
func (l *Ledger) BalanceOf(token, holder common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.balances[holderKey{token, holder}]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Mint credits amount of token to holder.
func (l *Ledger) Mint(token, holder common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := holderKey{token, holder}
	l.set(key, new(big.Int).Add(l.current(key), amount))
}

// Transfer moves amount of token from one holder to another. It fails with
// ErrInsufficientBalance when from does not hold amount; partial transfers
// never happen.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("erc20: invalid transfer amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := holderKey{token, from}
	fromBalance := l.current(fromKey)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, need %s",
			ErrInsufficientBalance, from.Hex(), fromBalance, token.Hex(), amount)
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}

	toKey := holderKey{token, to}
	l.set(fromKey, new(big.Int).Sub(fromBalance, amount))
	l.set(toKey, new(big.Int).Add(l.current(toKey), amount))
	return nil
}

// Snapshot marks the current state. The returned id is only valid until a
// revert to an earlier snapshot.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.journal)
}

// RevertToSnapshot undoes every write made since the snapshot was taken.
func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < 0 || id > len(l.journal) {
		return
	}
	for i := len(l.journal) - 1; i >= id; i-- {
		entry := l.journal[i]
		if entry.prev == nil {
			delete(l.balances, entry.key)
		} else {
			l.balances[entry.key] = entry.prev
		}
	}
	l.journal = l.journal[:id]
}

// current returns the live balance for key without copying. Caller holds mu.
func (l *Ledger) current(key holderKey) *big.Int {
	if b, ok := l.balances[key]; ok {
		return b
	}
	return new(big.Int)
}

// set journals the previous value and installs the new one. Caller holds mu.
func (l *Ledger) set(key holderKey, value *big.Int) {
	prev, ok := l.balances[key]
	if ok {
		l.journal = append(l.journal, journalEntry{key: key, prev: prev})
	} else {
		l.journal = append(l.journal, journalEntry{key: key})
	}
	l.balances[key] = value
}
