package domain

import (
	"context"
	"io"
)

// CorpusSource yields the raw corpus payload ({"docs": [...]}) for the index.
type CorpusSource interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// CompletionRequest is the body sent to the remote completion proxy.
type CompletionRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// Completion is a successful (2xx) reply from the completion proxy.
type Completion interface {
	// Answer returns the raw choices[0].message.content value, or nil when
	// the payload does not carry one.
	Answer() any
}

// Completer calls the remote completion service. Non-2xx replies are returned
// as *ServiceError, missing replies as *TransportError.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// HealthChecker checks the remote completion service.
type HealthChecker interface {
	Check(ctx context.Context) ServiceStatus
}

// IndexedDocument is a document with its search material computed once at
// load time.
type IndexedDocument struct {
	Document Document
	// Tokens of Title + " " + Text, in order, duplicates kept.
	Tokens []string
	// Haystack is the lowercased Title + " " + Text.
	Haystack string
}

// DocumentSet is the read side of the document index.
type DocumentSet interface {
	Entries() []IndexedDocument
	Len() int
}
