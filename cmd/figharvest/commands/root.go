// Package commands implements the figharvest command line.
package commands

import (
	"github.com/spf13/cobra"
)

// Version is printed by the version command
var Version = "dev"

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "figharvest",
	Short: "Extract figures and tables from PDF papers",
	Long: `figharvest finds the figures and tables of a PDF document, renders them
to PNG, drops the ones in the references or appendix and selects the most
important ones for use in a generated report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
