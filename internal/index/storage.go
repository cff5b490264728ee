package index

import "askai/internal/domain"

// Storage holds the published document set. Replace must be atomic: readers
// see either the previous set or the new one.
type Storage interface {
	Replace(entries []domain.IndexedDocument) error
	Entries() []domain.IndexedDocument
	Len() int
	Get(id string) (domain.Document, bool)
}
