package flashloan

import "errors"

// Every loan error is unrecoverable within the attempt: the lender reverts
// the ledger snapshot and surfaces one of these to the initiating caller.
var (
	// ErrUnsupportedCurrency means no funded pool is derivable for the
	// requested token. A deployed pool with a zero balance is
	// indistinguishable from a nonexistent one.
	ErrUnsupportedCurrency = errors.New("flashloan: unsupported currency")

	// ErrArithmeticOverflow means the fee computation left uint256 range.
	ErrArithmeticOverflow = errors.New("flashloan: fee computation overflow")

	// ErrUnauthorizedCallback means the flash callback was invoked by an
	// address other than the one derived for the embedded pool key. This is
	// the single admission-control check of the whole system.
	ErrUnauthorizedCallback = errors.New("flashloan: callback from unexpected address")

	// ErrCallbackRejected means the borrower's hook failed or returned
	// something other than the acceptance marker.
	ErrCallbackRejected = errors.New("flashloan: borrower rejected loan")

	// ErrRepaymentFailed means the principal+fee pull-back transfer did not
	// succeed.
	ErrRepaymentFailed = errors.New("flashloan: repayment transfer failed")
)

// errKind labels an error for metrics.
func errKind(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedCurrency):
		return "unsupported_currency"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrUnauthorizedCallback):
		return "unauthorized_callback"
	case errors.Is(err, ErrCallbackRejected):
		return "callback_rejected"
	case errors.Is(err, ErrRepaymentFailed):
		return "repayment_failed"
	default:
		return "other"
	}
}
