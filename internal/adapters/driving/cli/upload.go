package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var uploadCollection string

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload documents into the knowledge base",
	Long: `Reads the given files and runs each through the ingestion pipeline:
chunking, embedding and vector storage. Upload waits for ingestion to
finish and reports the final status per file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadCollection, "collection", "c", "", "add uploaded documents to this collection")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	failed := 0

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: read failed: %v\n", path, err)
			failed++
			continue
		}

		doc, err := documentService.Upload(ctx, userFlag, filepath.Base(path), string(content), nil)
		if err != nil {
			// The document record survives in error state for inspection.
			cmd.Printf("  %s: ingestion failed: %v\n", path, err)
			failed++
			if doc != nil {
				cmd.Printf("    document id: %s (status: %s)\n", doc.ID, doc.Status)
			}
			continue
		}

		cmd.Printf("  %s: %s (status: %s)\n", path, doc.ID, doc.Status)

		if uploadCollection != "" && doc.Status == domain.StatusReady {
			if err := collectionService.AddDocument(ctx, uploadCollection, doc.ID); err != nil {
				cmd.Printf("    warning: could not add to collection %s: %v\n", uploadCollection, err)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}
