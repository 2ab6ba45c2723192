package simulator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashbridge/flashbridge/flashloan"
)

// Receipt records one delivered loan.
type Receipt struct {
	Initiator common.Address
	Token     common.Address
	Amount    *big.Int
	Fee       *big.Int
	UserData  []byte
}

// Borrower accepts loans and lets the lender pull repayment from its ledger
// balance. Marker and Err make it misbehave on demand in tests.
type Borrower struct {
	address common.Address

	// Marker is returned from OnFlashLoan. Defaults to the acceptance marker.
	Marker common.Hash
	// Err, when set, fails the hook outright.
	Err error

	// Receipts holds every loan delivered to this borrower, in order.
	Receipts []Receipt
}

// NewBorrower creates a well-behaved borrower at address.
func NewBorrower(address common.Address) *Borrower {
	return &Borrower{address: address, Marker: flashloan.CallbackSuccess}
}

// Address implements flashloan.Borrower.
func (b *Borrower) Address() common.Address { return b.address }

// OnFlashLoan implements flashloan.Borrower. Repayment is pulled by the
// lender afterwards, so the hook only records the loan and signals
// acceptance; the borrower must already hold the fee.
func (b *Borrower) OnFlashLoan(ctx context.Context, initiator common.Address, token common.Address, amount, fee *big.Int, userData []byte) (common.Hash, error) {
	if b.Err != nil {
		return common.Hash{}, b.Err
	}
	b.Receipts = append(b.Receipts, Receipt{
		Initiator: initiator,
		Token:     token,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		UserData:  userData,
	})
	return b.Marker, nil
}
