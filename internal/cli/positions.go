package cli

import (
	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List tracked positions with live PnL",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Positions(cmd.Context())
	},
}
