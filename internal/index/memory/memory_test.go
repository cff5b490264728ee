package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askai/internal/domain"
)

func entry(id string) domain.IndexedDocument {
	return domain.IndexedDocument{Document: domain.Document{ID: id, Source: domain.SourceBlog}}
}

func TestReplaceAndGet(t *testing.T) {
	s := NewStorage()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Entries())

	require.NoError(t, s.Replace([]domain.IndexedDocument{entry("a"), entry("b")}))
	assert.Equal(t, 2, s.Len())
	d, ok := s.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", d.ID)
	_, ok = s.Get("c")
	assert.False(t, ok)
}

func TestReplaceDuplicateKeepsCurrent(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Replace([]domain.IndexedDocument{entry("a")}))
	err := s.Replace([]domain.IndexedDocument{entry("x"), entry("x")})
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("a")
	assert.True(t, ok)
}

func TestReplaceCopiesInput(t *testing.T) {
	s := NewStorage()
	in := []domain.IndexedDocument{entry("a")}
	require.NoError(t, s.Replace(in))
	in[0] = entry("mutated")
	assert.Equal(t, "a", s.Entries()[0].Document.ID)
}

func TestConcurrentReadersSeeWholeSets(t *testing.T) {
	s := NewStorage()
	small := []domain.IndexedDocument{entry("a")}
	large := []domain.IndexedDocument{entry("a"), entry("b"), entry("c")}
	require.NoError(t, s.Replace(small))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				n := len(s.Entries())
				if n != 1 && n != 3 {
					t.Errorf("observed partial set of %d", n)
					return
				}
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			_ = s.Replace(large)
		} else {
			_ = s.Replace(small)
		}
	}
	wg.Wait()
}
