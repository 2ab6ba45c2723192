package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero factory", func(c *Config) { c.Factory = common.Address{} }},
		{"zero init code hash", func(c *Config) { c.PoolInitCodeHash = common.Hash{} }},
		{"equal counter assets", func(c *Config) { c.CounterAssetB = c.CounterAssetA }},
		{"zero fee tier", func(c *Config) { c.FeeTier = 0 }},
		{"fee tier at denominator", func(c *Config) { c.FeeTier = FeeDenominator }},
		{"zero rate limit", func(c *Config) { c.RPCRateLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"chain_id": 10,
		"fee_tier": 500,
		"counter_asset_a": "0x4200000000000000000000000000000000000006",
		"counter_asset_b": "0x7F5c764cBc14f9669B88837ca1490cCa17c31607"
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cfg.ChainID)
	assert.Equal(t, uint32(500), cfg.FeeTier)
	assert.Equal(t, common.HexToAddress("0x4200000000000000000000000000000000000006"), cfg.CounterAssetA)
	// Untouched fields keep the defaults.
	assert.Equal(t, DefaultConfig().Factory, cfg.Factory)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvFeeTier, "10000")
	t.Setenv(EnvCounterAssetA, "0x4200000000000000000000000000000000000006")
	t.Setenv(EnvRPCEndpoint, "http://localhost:8545")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, uint32(10000), cfg.FeeTier)
	assert.Equal(t, common.HexToAddress("0x4200000000000000000000000000000000000006"), cfg.CounterAssetA)
	assert.Equal(t, "http://localhost:8545", cfg.RPCEndpoint)
}

func TestApplyEnvRejectsBadAddress(t *testing.T) {
	t.Setenv(EnvFactory, "not-an-address")
	assert.Error(t, ApplyEnv(DefaultConfig()))
}

func TestLoadTokenManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"tokens:\n  WETH: \"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2\"\n  DAI: \"0x6B175474E89094C44Da98b954EedeAC495271d0F\"\n"), 0o644))

	tokens, err := LoadTokenManifest(path)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
	assert.Equal(t, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), tokens["WETH"])
}

func TestLoadTokenManifestRejectsBadAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokens:\n  BAD: \"zzz\"\n"), 0o644))

	_, err := LoadTokenManifest(path)
	assert.Error(t, err)
}
