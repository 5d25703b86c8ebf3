package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/figharvest/figharvest/ocr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "figharvest %s (ocr: %t)\n", Version, ocr.Enabled)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
