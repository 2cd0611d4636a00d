package main

import (
	"os"

	"github.com/spf13/cobra"
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Create one new snapshot of every managed dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		report, err := engine.Snap(cmd.Context(), os.Stdout)
		if err != nil {
			return err
		}
		return report.Err()
	},
}

func init() {
	rootCmd.AddCommand(snapCmd)
}
