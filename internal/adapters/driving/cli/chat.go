package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

var (
	chatCollection string
	chatDocument   string
	chatGraph      bool
	chatSources    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question grounded on the knowledge base",
	Long: `Retrieves the most relevant chunks for the question and generates an
answer from them, with citation markers pointing back to the source
documents. Without a configured LLM the top passages are returned
verbatim.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatCollection, "collection", "c", "", "restrict context to documents in this collection")
	chatCmd.Flags().StringVarP(&chatDocument, "document", "d", "", "restrict context to a single document")
	chatCmd.Flags().BoolVar(&chatGraph, "graph", false, "expand context along relationship edges")
	chatCmd.Flags().BoolVar(&chatSources, "sources", false, "list the passages the answer was grounded on")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	question := args[0]

	if chatService == nil {
		return errors.New("chat service not configured")
	}

	ctx := context.Background()
	opts := domain.RetrievalOptions{
		CollectionID: chatCollection,
		DocumentID:   chatDocument,
		UserID:       userFlag,
		UseGraph:     chatGraph,
	}

	answer, err := chatService.Ask(ctx, question, opts)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	cmd.Println(answer.Text)

	if chatSources && len(answer.Passages) > 0 {
		cmd.Println("\nSources:")
		for i := range answer.Passages {
			p := &answer.Passages[i]
			cmd.Printf("  [%d] %s (%.2f) doc-%s\n", i+1, p.Filename, p.Score, p.DocumentID)
		}
	}

	return nil
}
