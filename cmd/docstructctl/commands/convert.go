package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docstructgo/internal/client"
	"docstructgo/internal/models"
)

var (
	convertMode     string
	convertOut      string
	convertNoWait   bool
	convertInterval time.Duration
	convertAttempts int
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Upload a document and fetch its structured JSON output",
	Long: `Convert uploads a PDF or DOCX file, waits for the conversion to reach
a terminal status, and writes the structured JSON output to a file or
stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertMode, "mode", "m", "fast", `processing mode, "fast" or "accurate"`)
	convertCmd.Flags().StringVarP(&convertOut, "output", "o", "", "write the JSON output to this path (default stdout)")
	convertCmd.Flags().BoolVar(&convertNoWait, "no-wait", false, "upload only, do not poll for completion")
	convertCmd.Flags().DurationVar(&convertInterval, "poll-interval", 2*time.Second, "delay between status polls")
	convertCmd.Flags().IntVar(&convertAttempts, "poll-attempts", 90, "maximum number of status polls")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c := client.New(serverURL)

	conv, err := c.Upload(ctx, args[0], convertMode)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as conversion %d\n", conv.OriginalName, conv.ID)
	if convertNoWait {
		return nil
	}

	conv, err = c.Wait(ctx, conv.ID, convertInterval, convertAttempts)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if conv.Status == models.StatusFailed {
		msg := "unknown error"
		if conv.ErrorMessage != nil {
			msg = *conv.ErrorMessage
		}
		return fmt.Errorf("conversion %d failed: %s", conv.ID, msg)
	}

	data, err := c.Download(ctx, conv.ID)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if convertOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(data), "\n"))
		return nil
	}
	if err := os.WriteFile(convertOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", convertOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", convertOut)
	return nil
}
