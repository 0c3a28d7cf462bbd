package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage document collections",
	Long: `Collections group documents for scoped retrieval. They hold
associations only: deleting a collection never deletes its documents.`,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionCreate,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionAddCmd = &cobra.Command{
	Use:   "add [collection-id] [doc-id]",
	Short: "Add a document to a collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollectionAdd,
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove [collection-id] [doc-id]",
	Short: "Remove a document from a collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollectionRemove,
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete [collection-id]",
	Short: "Delete a collection (documents are kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDelete,
}

func init() {
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionAddCmd)
	collectionCmd.AddCommand(collectionRemoveCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	ctx := context.Background()
	c, err := collectionService.Create(ctx, userFlag, args[0])
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	cmd.Printf("Collection created: %s (%s)\n", c.Name, c.ID)
	return nil
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	ctx := context.Background()
	collections, err := collectionService.List(ctx, userFlag)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if len(collections) == 0 {
		cmd.Println("No collections found.")
		return nil
	}

	for i := range collections {
		cmd.Printf("  %s  %s\n", collections[i].ID, collections[i].Name)
	}
	cmd.Printf("Total: %d collections\n", len(collections))
	return nil
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	ctx := context.Background()
	if err := collectionService.AddDocument(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Document %s added to collection %s.\n", args[1], args[0])
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	ctx := context.Background()
	if err := collectionService.RemoveDocument(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Document %s removed from collection %s.\n", args[1], args[0])
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	ctx := context.Background()
	if err := collectionService.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	cmd.Printf("Collection %s deleted. Member documents were kept.\n", args[0])
	return nil
}
