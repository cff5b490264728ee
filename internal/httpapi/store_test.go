package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"askai/internal/retriever"
	"askai/internal/session"
)

func TestSessionStoreDelete(t *testing.T) {
	st := NewSessionStore(time.Hour)
	s := session.New(retriever.NewLexical(nil, 0), nil, nil, session.WithStageDelay(0))
	id := st.Add(s)

	got, ok := st.Get(id)
	assert.True(t, ok)
	assert.Same(t, s, got)

	s.Open(context.Background())
	assert.True(t, st.Delete(id))
	assert.False(t, s.Snapshot().Open)
	assert.False(t, st.Delete(id))
	_, ok = st.Get(id)
	assert.False(t, ok)
}

func TestSessionStoreExpiryClosesSession(t *testing.T) {
	st := NewSessionStore(30 * time.Millisecond)
	s := session.New(retriever.NewLexical(nil, 0), nil, nil, session.WithStageDelay(0))
	s.Open(context.Background())
	id := st.Add(s)

	assert.Eventually(t, func() bool { return !s.Snapshot().Open }, time.Second, 5*time.Millisecond)
	_, ok := st.Get(id)
	assert.False(t, ok)
}
