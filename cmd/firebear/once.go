package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/ui"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single reconcile cycle and exit",
	Long: `Scan both directories once, publish whatever changed, and exit.

Useful for cron-driven setups and for verifying a fresh configuration
before leaving the service running:

  firebear once

The exit status is non-zero when any pair fails, so a cron wrapper can
alert on it. A failed pair is never recorded as published and will be
retried on the next invocation.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}

		svc, err := buildService(cfg, false, nil)
		if err != nil {
			fatal(err)
		}
		defer svc.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		res := svc.runner.RunOnce(ctx)

		fmt.Printf("%s Cycle complete in %v\n", ui.RenderPass("✓"), res.Elapsed.Round(time.Millisecond))
		fmt.Printf("   Changed files: %d\n", res.Scanned)
		fmt.Printf("   Pairs matched: %d\n", res.Matched)
		fmt.Printf("   Published:     %d\n", res.Published)
		fmt.Printf("   Skipped:       %d\n", res.Skipped)
		if res.Failed > 0 {
			fmt.Printf("   %s        %d\n", ui.RenderFail("Failed:"), res.Failed)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
