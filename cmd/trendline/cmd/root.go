package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trendline",
	Short: "Trendline serves live trending topics and notifications",
	Long: `Trendline is a small web application that shows a live trending-topics
sidebar and a notifications page.

Available commands:
  serve     Run the HTTP server
  events    List the events published on the internal bus
  version   Print the version

Use "trendline [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
