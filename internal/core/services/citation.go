package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// ComposeCitations appends one citation marker per distinct source
// document referenced by the passages, in rank order. The marker format
// is [doc-<documentId>]; passages from the same document are cited once.
// Pure function: no side effects, no network access.
func ComposeCitations(answerText string, passages []domain.RetrievedPassage) string {
	if len(passages) == 0 {
		return answerText
	}

	seen := make(map[string]bool, len(passages))
	markers := make([]string, 0, len(passages))
	for _, p := range passages {
		if p.DocumentID == "" || seen[p.DocumentID] {
			continue
		}
		seen[p.DocumentID] = true
		markers = append(markers, fmt.Sprintf("[doc-%s]", p.DocumentID))
	}

	if len(markers) == 0 {
		return answerText
	}

	text := strings.TrimRight(answerText, " \t\n")
	if text == "" {
		return strings.Join(markers, " ")
	}
	return text + " " + strings.Join(markers, " ")
}
