package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chadwalters/firebear/internal/config"
	"github.com/chadwalters/firebear/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Create the .firebear directory with a commented starter config.

The starter file documents every setting with its default value. Edit
the directories section to point at your summary and transcript export
folders, then verify the result:

  firebear init
  $EDITOR .firebear/config.yaml
  firebear once

An existing config file is never overwritten unless --force is given.
With --config, the file is written at that path instead of the local
.firebear directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		path, err := config.WriteDefault(configPath, force)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
		fmt.Printf("  Edit the directories section, then run %s\n", ui.RenderAccent("firebear once"))
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
