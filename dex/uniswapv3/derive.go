// Package uniswapv3 derives Uniswap V3 pool identities without touching the
// chain. The factory assigns pool addresses with CREATE2, so the address of
// the pool for any (token0, token1, fee) triple is a pure function of the
// factory address and the pool init code hash. Callback authentication in
// the flashloan package depends on this derivation being byte-for-byte
// compatible with the factory.
package uniswapv3

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Canonical mainnet deployment. Forks override these through config.
var (
	MainnetFactory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")

	// PoolInitCodeHash is keccak256 of the UniswapV3Pool creation bytecode.
	// Pinned at build time; revalidate against the factory whenever the pool
	// bytecode changes, since a divergence silently breaks address-based
	// callback authentication.
	PoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")
)

// PoolKey identifies a pool by its ordered token pair and fee tier.
// Token0 < Token1 always holds for keys built through NewPoolKey, so the
// same unordered pair yields one canonical key regardless of argument order.
type PoolKey struct {
	Token0 common.Address
	Token1 common.Address
	Fee    uint32
}

// NewPoolKey builds the canonical key for an unordered token pair.
func NewPoolKey(tokenA, tokenB common.Address, fee uint32) PoolKey {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	return PoolKey{Token0: tokenA, Token1: tokenB, Fee: fee}
}

// CounterAssetFor selects the opposite side of the pair for a loan currency:
// every token pairs against assetA, except assetA itself, which pairs
// against assetB.
func CounterAssetFor(currency, assetA, assetB common.Address) common.Address {
	if currency == assetA {
		return assetB
	}
	return assetA
}

// PoolKeyFor derives the canonical key of the pool that services a loan of
// currency. Total function; never fails.
func PoolKeyFor(currency, assetA, assetB common.Address, fee uint32) PoolKey {
	return NewPoolKey(currency, CounterAssetFor(currency, assetA, assetB), fee)
}

// ComputePoolAddress derives the CREATE2 address the factory assigns to the
// pool for key:
//
//	keccak256(0xff ++ factory ++ salt ++ initCodeHash)[12:]
//	salt = keccak256(abi.encode(token0, token1, fee))
func ComputePoolAddress(factory common.Address, key PoolKey, initCodeHash common.Hash) common.Address {
	salt := crypto.Keccak256Hash(
		common.LeftPadBytes(key.Token0.Bytes(), 32),
		common.LeftPadBytes(key.Token1.Bytes(), 32),
		common.LeftPadBytes(new(big.Int).SetUint64(uint64(key.Fee)).Bytes(), 32),
	)

	data := make([]byte, 1+20+32+32)
	data[0] = 0xff
	copy(data[1:21], factory.Bytes())
	copy(data[21:53], salt.Bytes())
	copy(data[53:85], initCodeHash.Bytes())

	return common.BytesToAddress(crypto.Keccak256(data)[12:])
}
