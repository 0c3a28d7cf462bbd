package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure ChatAnswerer implements the interface.
var _ driving.ChatService = (*ChatAnswerer)(nil)

const chatSystemPrompt = "You are a helpful assistant. Answer the question " +
	"using only the provided context passages. If the context does not " +
	"contain the answer, say you do not know."

// ChatAnswerer answers questions grounded on retrieved passages.
type ChatAnswerer struct {
	retriever driving.Retriever
	llm       driven.LLMService
}

// NewChatAnswerer creates a new chat service. The llm parameter is
// optional (can be nil); without it, Ask returns the top passages verbatim
// instead of a generated answer.
func NewChatAnswerer(retriever driving.Retriever, llm driven.LLMService) *ChatAnswerer {
	return &ChatAnswerer{
		retriever: retriever,
		llm:       llm,
	}
}

// Ask retrieves context for the message, generates an answer and appends
// citation markers.
func (s *ChatAnswerer) Ask(
	ctx context.Context, message string, opts domain.RetrievalOptions,
) (*domain.Answer, error) {
	result, err := s.retriever.Retrieve(ctx, message, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(result.Passages) == 0 {
		return &domain.Answer{
			Text: "No relevant passages were found for this question.",
		}, nil
	}

	if s.llm == nil {
		logger.Debug("LLM unavailable, returning raw passages")
		return &domain.Answer{
			Text:     ComposeCitations(s.passageDigest(result.Passages), result.Passages),
			Passages: result.Passages,
		}, nil
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: s.buildPrompt(message, result.Passages)},
	}

	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.2})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:     ComposeCitations(text, result.Passages),
		Passages: result.Passages,
	}, nil
}

// buildPrompt assembles the context block fed to the model.
func (s *ChatAnswerer) buildPrompt(message string, passages []domain.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] (from %s)\n%s\n\n", i+1, p.Filename, p.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(message)
	return b.String()
}

// passageDigest renders the top passages as a plain-text fallback answer.
func (s *ChatAnswerer) passageDigest(passages []domain.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString("Most relevant passages:\n")
	for i, p := range passages {
		snippet := p.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		fmt.Fprintf(&b, "%d. %s (%.2f)\n", i+1, snippet, p.Score)
	}
	return b.String()
}
