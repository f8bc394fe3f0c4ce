package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/config"
	"github.com/chadwalters/firebear/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published pairs and their note IDs",
	Long: `Show every pair the service has published, from the state snapshot.

Each row is one meeting pair: its key, the Bear note it maps to, and
when it last published. A pair listed here will be skipped until either
export file's content changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fatal(err)
		}

		store, err := openStore(cfg)
		if err != nil {
			fatal(err)
		}

		records := store.Records()
		if len(records) == 0 {
			fmt.Printf("%s No pairs published yet\n", ui.RenderDim("–"))
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PAIR\tNOTE\tLAST PUBLISHED")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\n", rec.PairKey, rec.NoteID, rec.LastProcessed.Format("2006-01-02 15:04"))
		}
		w.Flush()

		fmt.Printf("\n%d pairs\n", len(records))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
