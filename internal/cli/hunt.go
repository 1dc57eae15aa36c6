package cli

import (
	"github.com/spf13/cobra"
)

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Run one discovery cycle and print the gem report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Hunt(cmd.Context())
	},
}
