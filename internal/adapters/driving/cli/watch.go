package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and ingest dropped files",
	Long: `Watches the given directory and uploads every file created or
modified in it. Runs until interrupted with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	dir := args[0]
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(documentService, userFlag)
	results, err := watcher.Run(ctx, dir)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)...\n", dir)
	for result := range results {
		if result.Err != nil {
			cmd.Printf("  %s: %v\n", result.Path, result.Err)
			continue
		}
		cmd.Printf("  %s: ingested as %s\n", result.Path, result.DocumentID)
	}

	cmd.Println("Watcher stopped.")
	return nil
}
