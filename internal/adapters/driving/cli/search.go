package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var (
	searchLimit         int
	searchJSON          bool
	searchCollection    string
	searchDocument      string
	searchGraph         bool
	searchMinSimilarity float64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Embeds the query and returns the most similar chunks across all
ready documents, ranked by cosine similarity. Results below the
similarity threshold are excluded. With --graph, chunks linked to the
top results are pulled in as well, at a reduced score.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "", "restrict to documents in this collection")
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "restrict to a single document")
	searchCmd.Flags().BoolVar(&searchGraph, "graph", false, "expand results along relationship edges")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "similarity threshold (negative disables)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	opts := domain.RetrievalOptions{
		CollectionID:  searchCollection,
		DocumentID:    searchDocument,
		UserID:        userFlag,
		K:             searchLimit,
		MinSimilarity: searchMinSimilarity,
		UseGraph:      searchGraph,
	}

	result, err := retrievalService.Retrieve(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result.Passages)
	}
	return outputSearchTable(cmd, result.Passages)
}

func outputSearchJSON(cmd *cobra.Command, passages []domain.RetrievedPassage) error {
	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, passages []domain.RetrievedPassage) error {
	if len(passages) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range passages {
		p := &passages[i]

		snippet := p.Content
		if len(snippet) > 160 {
			snippet = snippet[:160] + "..."
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, p.Filename, p.Score)
		if p.Method == "graph" {
			cmd.Printf("      Via: relationship graph\n")
		}
		cmd.Printf("      %s\n", snippet)
		cmd.Println()
	}

	return nil
}
