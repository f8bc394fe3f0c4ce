package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/dashboard"
	"github.com/chadwalters/firebear/internal/runner"
	"github.com/chadwalters/firebear/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reconcile service until interrupted",
	Long: `Run reconcile cycles on the configured interval until interrupted.

Each cycle scans both export directories, pairs changed files, and
publishes each changed pair as a Bear note. Pairs whose content has not
changed since their last publish are skipped without touching Bear.

With --watch, file activity in either directory also triggers a cycle
once the directories stay quiet for the debounce interval, so new
exports publish without waiting for the next tick.

With --dashboard, a WebSocket server broadcasts live cycle and pair
events for a browser to watch:

  firebear run                         # interval cycles only
  firebear run --watch                 # also react to file activity
  firebear run --dashboard --port 9000 # with a live dashboard

Ctrl+C stops the service. A pair already being processed finishes
first so a note is never left published but unrecorded.`,
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		dash, _ := cmd.Flags().GetBool("dashboard")
		port, _ := cmd.Flags().GetInt("port")
		summaryDir, _ := cmd.Flags().GetString("summary")
		transcriptDir, _ := cmd.Flags().GetString("transcript")

		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}
		if summaryDir != "" {
			cfg.Directories.Summary = summaryDir
		}
		if transcriptDir != "" {
			cfg.Directories.Transcript = transcriptDir
		}
		if port != 0 {
			cfg.Dashboard.Port = port
		}

		var events runner.Events
		var server *dashboard.Server
		if dash || cfg.Dashboard.Enabled {
			server = dashboard.NewServer(&dashboard.Config{
				Port:   cfg.Dashboard.Port,
				Logger: componentLogger(cfg.Logging.Writer(), "dashboard"),
			})
			if err := server.Start(); err != nil {
				fatal(fmt.Errorf("failed to start dashboard: %w", err))
			}
			events = dashboard.NewHandler(server, componentLogger(cfg.Logging.Writer(), "dashboard"))
			fmt.Printf("%s Dashboard: ws://localhost:%d/ws\n", ui.RenderAccent("▸"), cfg.Dashboard.Port)
		}

		svc, err := buildService(cfg, watch, events)
		if err != nil {
			fatal(err)
		}
		defer svc.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := svc.runner.Run(ctx); err != nil {
			fatal(err)
		}

		if server != nil {
			if err := server.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
			}
		}
	},
}

func init() {
	runCmd.Flags().Bool("watch", false, "Trigger cycles on file activity")
	runCmd.Flags().Bool("dashboard", false, "Serve the live WebSocket dashboard")
	runCmd.Flags().IntP("port", "p", 0, "Dashboard port (default from config)")
	runCmd.Flags().String("summary", "", "Override the summary directory")
	runCmd.Flags().String("transcript", "", "Override the transcript directory")
	rootCmd.AddCommand(runCmd)
}
