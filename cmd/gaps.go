package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/eventdraft/internal/gaps"
)

var gapsDraft string

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Analyse an event draft for missing or weak fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDraft(gapsDraft)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), gaps.New(cfg.GapWeights()).Analyze(d))
	},
}

func init() {
	gapsCmd.Flags().StringVar(&gapsDraft, "draft", "-", "draft JSON file, or - for stdin")
	rootCmd.AddCommand(gapsCmd)
}
