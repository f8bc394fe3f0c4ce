package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/config"
	"github.com/chadwalters/firebear/internal/ui"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <pair-key>",
	Short: "Remove a pair's record so it publishes again",
	Long: `Delete one pair's record from the state snapshot.

The pair key is the value shown by 'firebear list'. Forgetting a pair
makes the next cycle treat its files as never published: a fresh note
is created rather than the old one updated.

  firebear forget 'standup-summary-2024-03-04T10-00-00.000Z.pdf|standup-transcript-2024-03-04T10-00-00.000Z.pdf'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fatal(err)
		}

		store, err := openStore(cfg)
		if err != nil {
			fatal(err)
		}

		if _, ok := store.Get(args[0]); !ok {
			fatal(fmt.Errorf("no record for pair %q (see 'firebear list')", args[0]))
		}

		if err := store.Remove(args[0]); err != nil {
			fatal(err)
		}

		fmt.Printf("%s Forgot %s\n", ui.RenderPass("✓"), args[0])
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
