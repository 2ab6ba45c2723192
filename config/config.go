// Package config holds the construction-time configuration of the bridge:
// the factory the pool addresses are derived against, the canonical counter
// assets, and the single fee tier. All of it is immutable after loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/flashbridge/flashbridge/dex/uniswapv3"
)

// FeeDenominator is the unit of the fee tier: hundredths of a basis point.
const FeeDenominator = 1_000_000

type Config struct {
	// Chain and network settings
	ChainID     uint64 `json:"chain_id"`
	RPCEndpoint string `json:"rpc_endpoint"`

	// Pool derivation parameters. PoolInitCodeHash must match the factory's
	// deployment bytecode or derived addresses diverge from deployed pools.
	Factory          common.Address `json:"factory"`
	PoolInitCodeHash common.Hash    `json:"pool_init_code_hash"`

	// Every loan pairs the requested token against CounterAssetA, except
	// CounterAssetA itself, which pairs against CounterAssetB.
	CounterAssetA common.Address `json:"counter_asset_a"`
	CounterAssetB common.Address `json:"counter_asset_b"`

	// FeeTier in hundredths of a basis point (3000 = 0.3%).
	FeeTier uint32 `json:"fee_tier"`

	// RPC client limits
	RPCRateLimit float64 `json:"rpc_rate_limit"`
	RPCRateBurst int     `json:"rpc_rate_burst"`

	// Feature flags
	PrometheusEnabled  bool   `json:"prometheus_enabled"`
	PrometheusEndpoint string `json:"prometheus_endpoint"`

	// Internal components
	Logger *zap.Logger `json:"-"`
}

// DefaultConfig returns the Ethereum mainnet deployment: Uniswap V3 factory,
// WETH/DAI counter assets, 0.3% tier.
func DefaultConfig() *Config {
	return &Config{
		ChainID:          1,
		Factory:          uniswapv3.MainnetFactory,
		PoolInitCodeHash: uniswapv3.PoolInitCodeHash,
		CounterAssetA:    common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), // WETH
		CounterAssetB:    common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), // DAI
		FeeTier:          3000,
		RPCRateLimit:     10,
		RPCRateBurst:     20,
	}
}

// LoadConfig reads a JSON config file over the defaults and applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make derivation meaningless.
func (c *Config) Validate() error {
	if c.Factory == (common.Address{}) {
		return fmt.Errorf("factory address cannot be zero")
	}
	if c.PoolInitCodeHash == (common.Hash{}) {
		return fmt.Errorf("pool init code hash cannot be zero")
	}
	if c.CounterAssetA == (common.Address{}) || c.CounterAssetB == (common.Address{}) {
		return fmt.Errorf("counter assets cannot be zero")
	}
	if c.CounterAssetA == c.CounterAssetB {
		return fmt.Errorf("counter assets must differ")
	}
	if c.FeeTier == 0 || c.FeeTier >= FeeDenominator {
		return fmt.Errorf("fee tier %d out of range (0, %d)", c.FeeTier, FeeDenominator)
	}
	if c.RPCRateLimit <= 0 || c.RPCRateBurst <= 0 {
		return fmt.Errorf("rpc rate limit must be positive")
	}
	return nil
}
