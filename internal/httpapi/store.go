package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"askai/internal/session"
)

// SessionStore keeps live sessions in memory. Every lookup extends the
// session's lifetime by the store TTL.
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, ttl/6)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*session.Session); ok {
			s.Close()
		}
	})
	return &SessionStore{cache: c, ttl: ttl}
}

// Add stores s under a fresh id.
func (r *SessionStore) Add(s *session.Session) string {
	id := uuid.NewString()
	r.cache.Set(id, s, cache.DefaultExpiration)
	return id
}

func (r *SessionStore) Get(id string) (*session.Session, bool) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	s := x.(*session.Session)
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// Delete removes the session and closes it.
func (r *SessionStore) Delete(id string) bool {
	if _, found := r.cache.Get(id); !found {
		return false
	}
	r.cache.Delete(id)
	return true
}

// Count is approximate: expired sessions still count until the janitor
// purges them, up to ttl/6 later.
func (r *SessionStore) Count() int { return r.cache.ItemCount() }
