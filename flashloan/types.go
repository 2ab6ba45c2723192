package flashloan

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/flashbridge/flashbridge/dex/uniswapv3"
)

// LoanContext is the blob threaded through the pool's flash call. The lender
// is its sole producer and sole consumer; the pool carries it opaquely. It
// holds everything needed to settle the loan when the callback fires,
// including the pool key the callback re-derives the pool address from.
type LoanContext struct {
	Initiator common.Address
	Receiver  common.Address
	Token     common.Address
	Amount    *big.Int
	Key       uniswapv3.PoolKey
	UserData  []byte
}

var loanContextArgs = abi.Arguments{
	{Name: "initiator", Type: mustNewType("address")},
	{Name: "receiver", Type: mustNewType("address")},
	{Name: "token", Type: mustNewType("address")},
	{Name: "amount", Type: mustNewType("uint256")},
	{Name: "token0", Type: mustNewType("address")},
	{Name: "token1", Type: mustNewType("address")},
	{Name: "fee", Type: mustNewType("uint24")},
	{Name: "userData", Type: mustNewType("bytes")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// Encode serializes the context ABI-style.
func (c *LoanContext) Encode() ([]byte, error) {
	if c.Amount == nil {
		return nil, fmt.Errorf("loan context amount cannot be nil")
	}
	packed, err := loanContextArgs.Pack(
		c.Initiator,
		c.Receiver,
		c.Token,
		c.Amount,
		c.Key.Token0,
		c.Key.Token1,
		new(big.Int).SetUint64(uint64(c.Key.Fee)),
		c.UserData,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack loan context: %w", err)
	}
	return packed, nil
}

// DecodeLoanContext deserializes a context blob produced by Encode.
func DecodeLoanContext(data []byte) (*LoanContext, error) {
	values, err := loanContextArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack loan context: %w", err)
	}
	if len(values) != len(loanContextArgs) {
		return nil, fmt.Errorf("unexpected loan context arity %d", len(values))
	}

	initiator, ok0 := values[0].(common.Address)
	receiver, ok1 := values[1].(common.Address)
	token, ok2 := values[2].(common.Address)
	amount, ok3 := values[3].(*big.Int)
	token0, ok4 := values[4].(common.Address)
	token1, ok5 := values[5].(common.Address)
	fee, ok6 := values[6].(*big.Int)
	userData, ok7 := values[7].([]byte)
	if !(ok0 && ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return nil, fmt.Errorf("malformed loan context field types")
	}

	return &LoanContext{
		Initiator: initiator,
		Receiver:  receiver,
		Token:     token,
		Amount:    amount,
		Key: uniswapv3.PoolKey{
			Token0: token0,
			Token1: token1,
			Fee:    uint32(fee.Uint64()),
		},
		UserData: userData,
	}, nil
}
