package memory

import (
	"errors"
	"sync"

	"askai/internal/domain"
)

// Storage is an in-memory document set swapped wholesale on every load.
type Storage struct {
	mu      sync.RWMutex
	entries []domain.IndexedDocument
	ids     map[string]int
}

func NewStorage() *Storage { return &Storage{} }

// Replace publishes entries as the new set. Document IDs must be unique; on a
// duplicate the current set is kept.
func (s *Storage) Replace(entries []domain.IndexedDocument) error {
	ids := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.Document.ID == "" {
			return errors.New("document with empty id")
		}
		if _, dup := ids[e.Document.ID]; dup {
			return errors.New("duplicate document id " + e.Document.ID)
		}
		ids[e.Document.ID] = i
	}
	// copy so callers cannot mutate the published slice
	published := make([]domain.IndexedDocument, len(entries))
	copy(published, entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = published
	s.ids = ids
	return nil
}

// Entries returns the current set. The slice is shared and must not be modified.
func (s *Storage) Entries() []domain.IndexedDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get looks a document up by ID.
func (s *Storage) Get(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.ids[id]
	if !ok {
		return domain.Document{}, false
	}
	return s.entries[i].Document, true
}
