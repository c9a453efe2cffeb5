package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/eventdraft/internal/classify"
)

var inferCmd = &cobra.Command{
	Use:   "infer <title> [description]",
	Short: "Guess categories and duration from an event title",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var desc string
		if len(args) > 1 {
			desc = args[1]
		}
		return printJSON(cmd.OutOrStdout(), classify.Infer(args[0], desc))
	},
}

func init() {
	rootCmd.AddCommand(inferCmd)
}
