package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"docstructgo/internal/client"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversion record and its output file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid conversion id %q", args[0])
	}
	if err := client.New(serverURL).Delete(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversion %d\n", id)
	return nil
}
