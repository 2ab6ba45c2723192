package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"github.com/flashbridge/flashbridge/dex/uniswapv3"
	"github.com/flashbridge/flashbridge/flashloan"
)

var quoteAmount string

var quoteCmd = &cobra.Command{
	Use:   "quote <token>",
	Short: "Quote the flash-loan fee for a token, and the max loan when an RPC endpoint is configured",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, currency, err := loadConfigAndToken(args[0])
		if err != nil {
			return err
		}

		amount, ok := new(big.Int).SetString(quoteAmount, 10)
		if !ok || amount.Sign() < 0 {
			return fmt.Errorf("invalid --amount %q", quoteAmount)
		}

		key := uniswapv3.PoolKeyFor(currency, cfg.CounterAssetA, cfg.CounterAssetB, cfg.FeeTier)
		poolAddr := uniswapv3.ComputePoolAddress(cfg.Factory, key, cfg.PoolInitCodeHash)

		fee, err := flashloan.Fee(amount, cfg.FeeTier)
		if err != nil {
			return err
		}

		fmt.Printf("pool:    %s\n", poolAddr.Hex())
		fmt.Printf("fee:     %s (tier %d)\n", fee, cfg.FeeTier)

		if cfg.RPCEndpoint == "" {
			fmt.Println("max:     unknown (no rpc_endpoint configured)")
			return nil
		}

		eth, err := ethclient.DialContext(cmd.Context(), cfg.RPCEndpoint)
		if err != nil {
			return fmt.Errorf("failed to dial %s: %w", cfg.RPCEndpoint, err)
		}
		defer eth.Close()

		client, err := uniswapv3.NewClient(eth, cfg.RPCRateLimit, cfg.RPCRateBurst)
		if err != nil {
			return err
		}
		token, err := uniswapv3.NewERC20Binding(currency, client)
		if err != nil {
			return err
		}
		balance, err := token.BalanceOf(cmd.Context(), poolAddr)
		if err != nil {
			return fmt.Errorf("failed to query pool balance: %w", err)
		}

		// A zero balance reads as "no pool": an empty pool and a missing one
		// cannot be told apart from a balance query.
		if balance.Sign() == 0 {
			fmt.Println("max:     0 (no funded pool)")
			return nil
		}
		fmt.Printf("max:     %s\n", balance)
		return nil
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "1000000", "loan amount to quote the fee for")
	rootCmd.AddCommand(quoteCmd)
}
