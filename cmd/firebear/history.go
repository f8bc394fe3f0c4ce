package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/config"
	"github.com/chadwalters/firebear/internal/journal"
	"github.com/chadwalters/firebear/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent reconcile runs from the journal",
	Long: `Show what recent reconcile cycles did, newest first.

Each row is one cycle with its counters. With --pair, show the outcome
history of a single pair instead:

  firebear history
  firebear history --limit 50
  firebear history --pair 'standup-summary-....pdf|standup-transcript-....pdf'

Requires the journal to be enabled in the configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		pairKey, _ := cmd.Flags().GetString("pair")

		jnl := mustOpenJournal()
		defer jnl.Close()

		if pairKey != "" {
			printPairHistory(jnl, pairKey, limit)
			return
		}

		runs, err := jnl.RecentRuns(limit)
		if err != nil {
			fatal(err)
		}
		if len(runs) == 0 {
			fmt.Printf("%s No runs recorded yet\n", ui.RenderDim("–"))
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tDURATION\tSCANNED\tMATCHED\tPUBLISHED\tSKIPPED\tFAILED")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%v\t%d\t%d\t%d\t%d\t%d\n",
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
				run.Scanned, run.Matched, run.Published, run.Skipped, run.Failed)
		}
		w.Flush()
	},
}

// printPairHistory lists one pair's outcomes, newest first.
func printPairHistory(jnl *journal.Journal, pairKey string, limit int) {
	events, err := jnl.PairHistory(pairKey, limit)
	if err != nil {
		fatal(err)
	}
	if len(events) == 0 {
		fmt.Printf("%s No history for pair %q\n", ui.RenderDim("–"), pairKey)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tNOTE\tERROR")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.Action, ev.NoteID, ev.Error)
	}
	w.Flush()
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show journal totals",
	Long: `Aggregate the journal into lifetime totals: runs recorded, distinct
pairs seen, and outcome counts.`,
	Run: func(cmd *cobra.Command, args []string) {
		jnl := mustOpenJournal()
		defer jnl.Close()

		stats, err := jnl.Stats()
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Journal totals\n", ui.RenderAccent("▸"))
		fmt.Printf("   Runs:    %d\n", stats.Runs)
		fmt.Printf("   Pairs:   %d\n", stats.Pairs)
		fmt.Printf("   Created: %d\n", stats.Created)
		fmt.Printf("   Updated: %d\n", stats.Updated)
		fmt.Printf("   Skipped: %d\n", stats.Skipped)
		if stats.Failed > 0 {
			fmt.Printf("   %s  %d\n", ui.RenderFail("Failed:"), stats.Failed)
		} else {
			fmt.Printf("   Failed:  0\n")
		}
	},
}

// mustOpenJournal opens the configured journal or exits with guidance.
func mustOpenJournal() *journal.Journal {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err)
	}
	if !cfg.Journal.Enabled {
		fatal(fmt.Errorf("the journal is disabled in the configuration"))
	}

	jnl, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fatal(err)
	}
	return jnl
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum rows to show")
	historyCmd.Flags().String("pair", "", "Show history for one pair key")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
}
