package cli

import (
	"github.com/spf13/cobra"

	"gem-hunter/internal/app"
)

var buyAmountSOL float64

var buyCmd = &cobra.Command{
	Use:   "buy <token>",
	Short: "Swap SOL into a token and track the position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Buy(cmd.Context(), app.BuyOptions{
			Identifier: args[0],
			AmountSOL:  buyAmountSOL,
		})
	},
}

func init() {
	buyCmd.Flags().Float64Var(&buyAmountSOL, "amount", 0, "SOL to spend (defaults to autopilot.buy_amount_sol)")
}
