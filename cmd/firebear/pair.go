package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/orchestrator"
	"github.com/chadwalters/firebear/internal/state"
	"github.com/chadwalters/firebear/internal/ui"
)

var pairCmd = &cobra.Command{
	Use:   "pair <summary.pdf> <transcript.pdf>",
	Short: "Publish one explicit summary/transcript pair",
	Long: `Publish a single pair of files, bypassing scanning and matching.

The two paths are taken as the summary and transcript of one meeting
regardless of their names. The meeting name and date come from the
summary filename when it follows the export pattern, and fall back to
the bare filename otherwise.

  firebear pair ~/exports/standup-summary.pdf ~/exports/standup-transcript.pdf

The same change detection applies as in a normal cycle: a pair whose
recorded content is current is skipped. Use 'firebear forget' first to
force a republish.`,
	Args: cobra.ExactArgs(2),
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

		outcome, err := svc.runner.ProcessPairPaths(args[0], args[1])
		if err != nil {
			fatal(err)
		}

		key := state.PairKey(args[0], args[1])
		switch outcome {
		case orchestrator.OutcomeSkipped:
			fmt.Printf("%s Unchanged since last publish: %s\n", ui.RenderDim("–"), key)
		default:
			noteID := ""
			if rec, ok := svc.store.Get(key); ok {
				noteID = rec.NoteID
			}
			fmt.Printf("%s Note %s (%s)\n", ui.RenderPass("✓"), outcome, noteID)
		}
	},
}

func init() {
	rootCmd.AddCommand(pairCmd)
}
