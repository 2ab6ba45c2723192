package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvRPCEndpoint   = "FLASHBRIDGE_RPC_ENDPOINT"
	EnvFactory       = "FLASHBRIDGE_FACTORY"
	EnvInitCodeHash  = "FLASHBRIDGE_POOL_INIT_CODE_HASH"
	EnvCounterAssetA = "FLASHBRIDGE_COUNTER_ASSET_A"
	EnvCounterAssetB = "FLASHBRIDGE_COUNTER_ASSET_B"
	EnvFeeTier       = "FLASHBRIDGE_FEE_TIER"
)

// LoadEnv loads environment variables from a .env file, if present.
func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// ApplyEnv overrides cfg fields from the environment.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvRPCEndpoint); v != "" {
		cfg.RPCEndpoint = v
	}
	if v := os.Getenv(EnvFactory); v != "" {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("%s is not a hex address: %q", EnvFactory, v)
		}
		cfg.Factory = common.HexToAddress(v)
	}
	if v := os.Getenv(EnvInitCodeHash); v != "" {
		cfg.PoolInitCodeHash = common.HexToHash(v)
	}
	if v := os.Getenv(EnvCounterAssetA); v != "" {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("%s is not a hex address: %q", EnvCounterAssetA, v)
		}
		cfg.CounterAssetA = common.HexToAddress(v)
	}
	if v := os.Getenv(EnvCounterAssetB); v != "" {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("%s is not a hex address: %q", EnvCounterAssetB, v)
		}
		cfg.CounterAssetB = common.HexToAddress(v)
	}
	if v := os.Getenv(EnvFeeTier); v != "" {
		tier, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFeeTier, err)
		}
		cfg.FeeTier = uint32(tier)
	}
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
