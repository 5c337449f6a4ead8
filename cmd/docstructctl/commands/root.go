package commands

import (
	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "docstructctl",
	Short: "Client for the document conversion server",
	Long: `docstructctl uploads PDF and DOCX documents to a running conversion
server, polls until processing finishes, and downloads the structured
JSON output.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:5000", "conversion server base URL")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
