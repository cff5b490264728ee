// Package index loads the site corpus and publishes it for retrieval.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"askai/internal/domain"
	"askai/internal/tokenizer"
)

// Corpus is the JSON document written by the corpus generator.
type Corpus struct {
	GeneratedAt string            `json:"generatedAt,omitempty"`
	TotalDocs   int               `json:"totalDocs,omitempty"`
	Docs        []domain.Document `json:"docs"`
}

// Index is the document collection behind retrieval.
type Index struct {
	store  Storage
	logger *zap.Logger

	loadMu   sync.Mutex
	mu       sync.RWMutex
	loadedAt time.Time
	origin   string
}

func New(store Storage, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{store: store, logger: logger}
}

// Load fetches and parses src and replaces the published set. Any failure is
// reported as domain.ErrIndexUnavailable and leaves the current set in place.
func (x *Index) Load(ctx context.Context, src domain.CorpusSource) error {
	x.loadMu.Lock()
	defer x.loadMu.Unlock()

	rc, err := src.Open(ctx)
	if err != nil {
		x.logger.Warn("corpus fetch failed", zap.String("source", src.Name()), zap.Error(err))
		return fmt.Errorf("%w: fetch %s: %v", domain.ErrIndexUnavailable, src.Name(), err)
	}
	defer rc.Close()

	docs, err := Parse(rc)
	if err != nil {
		x.logger.Warn("corpus parse failed", zap.String("source", src.Name()), zap.Error(err))
		return fmt.Errorf("%w: parse %s: %v", domain.ErrIndexUnavailable, src.Name(), err)
	}

	entries := make([]domain.IndexedDocument, len(docs))
	for i, d := range docs {
		entries[i] = Prepare(d)
	}
	if err := x.store.Replace(entries); err != nil {
		x.logger.Warn("corpus rejected", zap.String("source", src.Name()), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", domain.ErrIndexUnavailable, src.Name(), err)
	}

	x.mu.Lock()
	x.loadedAt = time.Now()
	x.origin = src.Name()
	x.mu.Unlock()
	x.logger.Info("corpus loaded", zap.String("source", src.Name()), zap.Int("docs", len(entries)))
	return nil
}

// Parse decodes a corpus payload. A payload without a docs field is an empty
// corpus.
func Parse(r io.Reader) ([]domain.Document, error) {
	var c Corpus
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return c.Docs, nil
}

// Prepare computes the search material for doc.
func Prepare(doc domain.Document) domain.IndexedDocument {
	full := doc.Title + " " + doc.Text
	return domain.IndexedDocument{
		Document: doc,
		Tokens:   tokenizer.Tokenize(full),
		Haystack: strings.ToLower(full),
	}
}

func (x *Index) Entries() []domain.IndexedDocument { return x.store.Entries() }

func (x *Index) Len() int { return x.store.Len() }

func (x *Index) Get(id string) (domain.Document, bool) { return x.store.Get(id) }

// Documents returns the loaded documents in corpus order.
func (x *Index) Documents() []domain.Document {
	entries := x.store.Entries()
	out := make([]domain.Document, len(entries))
	for i, e := range entries {
		out[i] = e.Document
	}
	return out
}

// LoadedAt reports when and from where the current set was loaded. The time
// is zero before the first successful load.
func (x *Index) LoadedAt() (time.Time, string) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.loadedAt, x.origin
}
