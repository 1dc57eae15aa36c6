package cli

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <token>",
	Short: "Enrich one token with market, risk, and verdict data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Scan(cmd.Context(), args[0])
	},
}
