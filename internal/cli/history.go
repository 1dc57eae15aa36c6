package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gem-hunter/internal/app"
)

var (
	historyLimit  int
	historyTrades bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recent scan or trade history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.HistoryOptions{
			Limit:  historyLimit,
			Trades: historyTrades,
		}

		return getApp().History(cmd.Context(), opts)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of records to display")
	historyCmd.Flags().BoolVar(&historyTrades, "trades", false, "Show trades instead of scans")
}
