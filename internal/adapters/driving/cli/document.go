package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage uploaded documents",
	Long:  `List, inspect, re-ingest or delete documents in the knowledge base.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDetailsCmd = &cobra.Command{
	Use:   "details [doc-id]",
	Short: "Show document metadata and chunk count",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDetails,
}

var documentReingestCmd = &cobra.Command{
	Use:   "reingest [doc-id]",
	Short: "Re-run the ingestion pipeline for a document",
	Long: `Replaces the document's chunks and embeddings with a freshly processed
set. Useful after changing chunking or embedding configuration, or to
retry a document stuck in error state.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentReingest,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDetailsCmd)
	documentCmd.AddCommand(documentReingestCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	docs, err := documentService.List(ctx, userFlag)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:   %s\n", docs[i].Filename)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		if docs[i].ErrorReason != "" {
			cmd.Printf("    Error:  %s\n", docs[i].ErrorReason)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:     %s\n", doc.Filename)
	cmd.Printf("  Status:   %s\n", doc.Status)
	if doc.ErrorReason != "" {
		cmd.Printf("  Error:    %s\n", doc.ErrorReason)
	}
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	return nil
}

func runDocumentDetails(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	details, err := documentService.Details(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}

	cmd.Printf("Document Details: %s\n\n", details.ID)
	cmd.Printf("  File:     %s\n", details.Filename)
	cmd.Printf("  Status:   %s\n", details.Status)
	if details.ErrorReason != "" {
		cmd.Printf("  Error:    %s\n", details.ErrorReason)
	}
	cmd.Printf("  Chunks:   %d\n", details.ChunkCount)
	cmd.Printf("  Created:  %s\n", details.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", details.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(details.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range details.Metadata {
			cmd.Printf("    %s: %s\n", k, v)
		}
	}

	return nil
}

func runDocumentReingest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	cmd.Printf("Re-ingesting document %s...\n", docID)
	if err := documentService.Reingest(ctx, docID); err != nil {
		return fmt.Errorf("failed to reingest document: %w", err)
	}

	cmd.Printf("Document %s re-ingested successfully.\n", docID)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	if err := documentService.Delete(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}
