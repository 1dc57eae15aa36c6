package cli

import (
	"github.com/spf13/cobra"
)

var sellCmd = &cobra.Command{
	Use:   "sell <token>",
	Short: "Exit the tracked position for a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Sell(cmd.Context(), args[0])
	},
}
