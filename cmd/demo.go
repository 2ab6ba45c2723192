package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/flashbridge/flashbridge/flashloan"
	"github.com/flashbridge/flashbridge/simulator"
	"github.com/flashbridge/flashbridge/utils"
)

var demoAmount string

var demoCmd = &cobra.Command{
	Use:   "demo <token>",
	Short: "Run one simulated end-to-end flash loan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, currency, err := loadConfigAndToken(args[0])
		if err != nil {
			return err
		}
		amount, ok := new(big.Int).SetString(demoAmount, 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("invalid --amount %q", demoAmount)
		}

		logger := utils.GetLogger()
		world := simulator.NewWorld(logger)
		lenderAddr := common.HexToAddress("0x00000000000000000000000000000000000f1a5f")
		borrowerAddr := common.HexToAddress("0x0000000000000000000000000000000000b0bb0b")

		lender, err := flashloan.NewLender(cfg, lenderAddr, world.Ledger(), world, world, logger)
		if err != nil {
			return err
		}

		liquidity := new(big.Int).Mul(amount, big.NewInt(100))
		pool := world.CreatePool(cfg, currency, liquidity)

		fee, err := lender.FlashFee(currency, amount)
		if err != nil {
			return err
		}

		borrower := simulator.NewBorrower(borrowerAddr)
		world.RegisterBorrower(borrower)
		world.Ledger().Mint(currency, borrowerAddr, fee) // pre-fund the fee

		if err := lender.FlashLoan(cmd.Context(), borrowerAddr, borrower, currency, amount, nil); err != nil {
			return err
		}

		fmt.Printf("pool:           %s\n", pool.Address().Hex())
		fmt.Printf("borrowed:       %s\n", amount)
		fmt.Printf("fee paid:       %s\n", fee)
		fmt.Printf("pool balance:   %s (started at %s)\n",
			world.Ledger().BalanceOf(currency, pool.Address()), liquidity)
		fmt.Printf("borrower ends:  %s\n", world.Ledger().BalanceOf(currency, borrowerAddr))
		return nil
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoAmount, "amount", "1000", "loan amount for the demo")
	rootCmd.AddCommand(demoCmd)
}
