package main

import (
	"fmt"
	"os"

	"candy-drop/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:           "candydrop",
	Short:         "Mint NFTs from a candy machine drop",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("rpc-url", "", "Solana RPC endpoint (SOLANA_RPC_URL)")
	flags.String("ws-url", "", "Solana websocket endpoint, derived from the RPC endpoint when empty (SOLANA_WS_URL)")
	flags.String("drop", "", "Candy machine address of the drop (CANDY_MACHINE_ID)")
	flags.Bool("debug", false, "Enable debug logging (DEBUG)")
	flags.Bool("yes", false, "Approve wallet connection and signing without prompting")

	bindFlag(v, "SOLANA_RPC_URL", "rpc-url")
	bindFlag(v, "SOLANA_WS_URL", "ws-url")
	bindFlag(v, "CANDY_MACHINE_ID", "drop")
	bindFlag(v, "DEBUG", "debug")

	rootCmd.AddCommand(connectCmd, statsCmd, historyCmd, mintCmd, watchCmd, ledgerCmd)
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
