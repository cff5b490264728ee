// Package answer turns retrieved documents and completion replies into the
// text of assistant messages.
package answer

import (
	"fmt"
	"strings"

	"askai/internal/domain"
)

const (
	// LocalDocs is how many documents the fallback answer quotes.
	LocalDocs = 3
	// SnippetChars is the per-document cut of the fallback answer.
	SnippetChars = 180

	localBanner      = "Based on your website content:"
	requestFailed    = "Request failed."
	contextSeparator = "\n\n---\n\n"
)

// NotFound is the reply for a query without matching documents.
func NotFound(query string) string {
	return `Not found in this website data for: "` + query + `"`
}

// ComposeLocal builds the fallback answer from the top documents.
func ComposeLocal(query string, docs []domain.Document) string {
	if len(docs) == 0 {
		return NotFound(query)
	}
	if len(docs) > LocalDocs {
		docs = docs[:LocalDocs]
	}
	var b strings.Builder
	b.WriteString(localBanner)
	for i, d := range docs {
		fmt.Fprintf(&b, "\n%d. %s", i+1, strings.TrimSpace(truncate(d.Text, SnippetChars)))
	}
	return b.String()
}

// ComposeRemote uses the completion answer when it is a non-blank string and
// falls back to ComposeLocal otherwise.
func ComposeRemote(query string, docs []domain.Document, answer any) string {
	if s, ok := answer.(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return ComposeLocal(query, docs)
}

// ServiceFailure prefixes the fallback answer with the service error text.
func ServiceFailure(errText, query string, docs []domain.Document) string {
	return errText + "\n\n" + ComposeLocal(query, docs)
}

// TransportFailure prefixes the fallback answer with a generic notice.
func TransportFailure(query string, docs []domain.Document) string {
	return requestFailed + "\n\n" + ComposeLocal(query, docs)
}

// ServiceErrorText is the user-facing text for a non-success reply.
func ServiceErrorText(err *domain.ServiceError) string {
	if err.Message != "" {
		return err.Message
	}
	return fmt.Sprintf("Ask AI failed (%d).", err.Status)
}

// BuildContext serializes documents for the completion request.
func BuildContext(docs []domain.Document) string {
	blocks := make([]string, len(docs))
	for i, d := range docs {
		blocks[i] = fmt.Sprintf("Title: %s\nURL: %s\nSource: %s\nContent: %s", d.Title, d.URL, d.Source, d.Text)
	}
	return strings.Join(blocks, contextSeparator)
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
