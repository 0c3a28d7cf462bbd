package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var (
	linkType   string
	linkWeight float64
)

var linkCmd = &cobra.Command{
	Use:   "link [from-chunk-id] [to-chunk-id]",
	Short: "Create a relationship edge between two chunks",
	Long: `Creates a directed, weighted edge from one chunk to another. Searches
run with --graph follow these edges one hop out from the top results,
scoring the reached chunks below their seed.`,
	Args: cobra.ExactArgs(2),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().StringVarP(&linkType, "type", "t", "related", "relationship type label")
	linkCmd.Flags().Float64VarP(&linkWeight, "weight", "w", 1.0, "edge weight in (0, 1]")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	if docStore == nil || relationshipStore == nil {
		return errors.New("stores not configured")
	}

	fromID, toID := args[0], args[1]
	if fromID == toID {
		return fmt.Errorf("%w: cannot link a chunk to itself", domain.ErrInvalidInput)
	}
	if linkWeight <= 0 || linkWeight > 1 {
		return fmt.Errorf("%w: weight must be in (0, 1], got %g", domain.ErrInvalidInput, linkWeight)
	}

	ctx := context.Background()

	// Both endpoints must exist.
	if _, err := docStore.GetChunk(ctx, fromID); err != nil {
		return fmt.Errorf("from chunk %s: %w", fromID, err)
	}
	if _, err := docStore.GetChunk(ctx, toID); err != nil {
		return fmt.Errorf("to chunk %s: %w", toID, err)
	}

	edge := &domain.Relationship{
		ID:          uuid.New().String(),
		FromChunkID: fromID,
		ToChunkID:   toID,
		Type:        linkType,
		Weight:      linkWeight,
	}
	if err := relationshipStore.SaveEdge(ctx, edge); err != nil {
		return fmt.Errorf("failed to save edge: %w", err)
	}

	cmd.Printf("Edge created: %s -> %s (%s, %.2f)\n", fromID, toID, linkType, linkWeight)
	return nil
}
