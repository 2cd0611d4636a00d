package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "2.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zfs-autosnap v%s <https://github.com/rollcat/zfs-autosnap>\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
