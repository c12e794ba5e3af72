package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "excelmemory",
	Short: "Conversation memory for Claude for Excel",
	Long:  "Excelmemory rebuilds a durable transcript of the Claude side panel from noisy screen captures and serves summaries of it back. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(probeCmd)
}
