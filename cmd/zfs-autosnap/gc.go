package main

import (
	"os"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Destroy snapshots that fall outside their dataset's retention policy",
	Long: `gc lists every managed dataset's snapshots, classifies them against
the dataset's retention policy, and destroys the ones no granularity keeps.
Snapshots whose own retention property is "-" are never destroyed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		report, err := engine.GC(cmd.Context(), os.Stdout)
		if err != nil {
			return err
		}
		return report.Err()
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
