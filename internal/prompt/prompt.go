// Package prompt builds the generator input from a question and the
// retrieved context.
package prompt

import (
	"strings"

	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/retrieval"
)

// SystemMessage is sent as the system role alongside every composed prompt.
const SystemMessage = "You are a helpful assistant that gives clear and accurate answers. " +
	"When context is provided, use it. When no context is available, answer from general knowledge."

const (
	groundedHeader = "Based on the following context, give a clear and concise answer to the question."
	groundedFooter = "Answer using the information in the context, refined with your own knowledge of the topic. " +
		"Keep it brief, leave out irrelevant details and answer only what was asked."
	ungroundedHeader = "Answer this question from your general knowledge. " +
		"Keep it brief, leave out irrelevant details and answer only what was asked."
)

// Compose returns the grounded prompt (question plus the result texts joined
// by newlines) or the general-knowledge prompt. A grounded outcome without
// results is inconsistent and rejected.
func Compose(question string, results []retrieval.Result, grounded bool) (string, error) {
	if !grounded {
		return ungroundedHeader + "\n\nQuestion: " + question, nil
	}
	if len(results) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeInconsistentState, "grounded retrieval has no results")
	}

	var b strings.Builder
	b.WriteString(groundedHeader)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nContext: ")
	b.WriteString(Context(results))
	b.WriteString("\n\n")
	b.WriteString(groundedFooter)
	return b.String(), nil
}

// Context joins result texts in rank order with newlines.
func Context(results []retrieval.Result) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, "\n")
}
