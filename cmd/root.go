package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flashbridge/flashbridge/utils"
)

var (
	cfgFile    string
	tokensFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "flashbridge",
	Short: "Flash-loan bridge over deterministic pool derivation",
	Long: `flashbridge exposes pool flash swaps through a generic flash-loan
interface: it derives the pool for a token without a registry lookup,
quotes fees, and settles borrow/repay inside one atomic attempt.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in mainnet config)")
	rootCmd.PersistentFlags().StringVar(&tokensFile, "tokens", "", "YAML token manifest for symbol lookup")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initLogging() {
	utils.InitLogger(debug)
}
