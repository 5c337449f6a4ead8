package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"docstructgo/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversions on the server, newest first",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	conversions, err := client.New(serverURL).List(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tFILE\tCREATED")
	for _, conv := range conversions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			conv.ID, conv.Status, conv.OriginalName, conv.CreatedAt.Local().Format(time.RFC3339))
	}
	return w.Flush()
}
