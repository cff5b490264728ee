// Package retriever ranks indexed documents against a query by token overlap.
package retriever

import (
	"sort"
	"strings"

	"askai/internal/domain"
	"askai/internal/index"
	"askai/internal/tokenizer"
)

const (
	// PhraseBoost is added when the whole query appears verbatim in a document.
	PhraseBoost = 3
	// DefaultLimit caps the result count when no positive limit is given.
	DefaultLimit = 5
)

// Lexical retrieves from a live document set.
type Lexical struct {
	docs  domain.DocumentSet
	limit int
}

func NewLexical(docs domain.DocumentSet, limit int) *Lexical {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Lexical{docs: docs, limit: limit}
}

// Search ranks the current set with the configured limit.
func (l *Lexical) Search(query string) []domain.ScoredDocument {
	return Retrieve(query, l.docs.Entries(), l.limit)
}

// SearchLimit ranks the current set with an explicit limit.
func (l *Lexical) SearchLimit(query string, limit int) []domain.ScoredDocument {
	return Retrieve(query, l.docs.Entries(), limit)
}

// Retrieve scores every entry and returns the best ones first. Entries with
// no overlap and no phrase match are dropped; ties keep corpus order.
func Retrieve(query string, entries []domain.IndexedDocument, limit int) []domain.ScoredDocument {
	qTokens := tokenizer.Tokenize(query)
	if len(qTokens) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	qSet := tokenizer.Set(qTokens)
	phrase := strings.ToLower(query)

	var scored []domain.ScoredDocument
	for _, e := range entries {
		score := 0
		for _, tok := range e.Tokens {
			if _, ok := qSet[tok]; ok {
				score++
			}
		}
		if strings.Contains(e.Haystack, phrase) {
			score += PhraseBoost
		}
		if score == 0 {
			continue
		}
		scored = append(scored, domain.ScoredDocument{Document: e.Document, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// RetrieveDocuments ranks plain documents, tokenizing them on the fly.
func RetrieveDocuments(query string, docs []domain.Document, limit int) []domain.ScoredDocument {
	entries := make([]domain.IndexedDocument, len(docs))
	for i, d := range docs {
		entries[i] = index.Prepare(d)
	}
	return Retrieve(query, entries, limit)
}

// Documents strips the scores.
func Documents(scored []domain.ScoredDocument) []domain.Document {
	if len(scored) == 0 {
		return nil
	}
	out := make([]domain.Document, len(scored))
	for i, s := range scored {
		out[i] = s.Document
	}
	return out
}
