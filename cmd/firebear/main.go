// Package main implements the firebear command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configPath is the --config override shared by every command.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "firebear",
	Short: "Publish Fireflies meeting exports as Bear notes",
	Long: `firebear reconciles paired summary and transcript PDF exports into
Bear notes, publishing each meeting exactly once per content version.

It scans two directories for Fireflies exports, pairs files that belong
to the same meeting by filename, and renders each pair into a single
note with the summary on top and the raw transcript below. Durable
state tracks content hashes, so an unchanged pair is never republished
and a changed export updates the existing note in place.

Get started:
  firebear init    write a starter config file
  firebear once    run a single reconcile cycle
  firebear run     run the service until interrupted`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: .firebear/config.yaml)")
}
