package main

import (
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what gc would keep and destroy, without touching anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		report, err := engine.Status(cmd.Context(), os.Stdout)
		if err != nil {
			return err
		}
		return report.Err()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
