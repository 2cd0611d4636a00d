package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rollcat/zfs-autosnap/internal/autosnap"
	"github.com/rollcat/zfs-autosnap/internal/config"
	"github.com/rollcat/zfs-autosnap/internal/logging"
	"github.com/rollcat/zfs-autosnap/internal/zfs"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zfs-autosnap",
	Short: "Automatic rotating ZFS snapshots",
	Long: `zfs-autosnap keeps a rotating, grandfather-father-son set of ZFS
snapshots for every dataset tagged with a retention policy. It holds no
state of its own: each run re-derives what to keep from snapshot creation
times alone.

Tips:
  use 'zfs set at.rollc.at:snapkeep=h24d30w8m6y1 some/dataset' to enable.
  use 'zfs set at.rollc.at:snapkeep=- some/dataset@some-snap' to retain a snapshot forever.
  add 'zfs-autosnap snap' to cron.hourly.
  add 'zfs-autosnap gc'   to cron.daily.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newEngine wires config, logger and the zfs client into an engine.
func newEngine() (*autosnap.Engine, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log := logging.New(level, cfg.Logging.Format)
	client := zfs.New(cfg.ZFS.Binary, cfg.ZFS.Property, log)
	return autosnap.New(client, log), nil
}
