package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/flashbridge/flashbridge/config"
	"github.com/flashbridge/flashbridge/dex/uniswapv3"
)

var deriveCmd = &cobra.Command{
	Use:   "derive <token>",
	Short: "Derive the pool key and address for a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, currency, err := loadConfigAndToken(args[0])
		if err != nil {
			return err
		}

		key := uniswapv3.PoolKeyFor(currency, cfg.CounterAssetA, cfg.CounterAssetB, cfg.FeeTier)
		addr := uniswapv3.ComputePoolAddress(cfg.Factory, key, cfg.PoolInitCodeHash)

		fmt.Printf("token0:  %s\n", key.Token0.Hex())
		fmt.Printf("token1:  %s\n", key.Token1.Hex())
		fmt.Printf("fee:     %d\n", key.Fee)
		fmt.Printf("pool:    %s\n", addr.Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
}

// loadConfigAndToken loads the config and resolves a token argument, which
// is either a hex address or a symbol from the manifest.
func loadConfigAndToken(arg string) (*config.Config, common.Address, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, common.Address{}, err
	}

	if common.IsHexAddress(arg) {
		return cfg, common.HexToAddress(arg), nil
	}
	if tokensFile == "" {
		return nil, common.Address{}, fmt.Errorf("%q is not a hex address and no --tokens manifest given", arg)
	}
	tokens, err := config.LoadTokenManifest(tokensFile)
	if err != nil {
		return nil, common.Address{}, err
	}
	addr, ok := tokens[arg]
	if !ok {
		return nil, common.Address{}, fmt.Errorf("token %q not in manifest", arg)
	}
	return cfg, addr, nil
}
