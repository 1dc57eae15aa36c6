package cli

import (
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the configured wallet address and SOL balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().WalletInfo(cmd.Context())
	},
}
