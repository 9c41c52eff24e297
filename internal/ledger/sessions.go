package ledger

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"kharcha/internal/cache"
	"kharcha/internal/store"
)

const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 256
)

// Sessions maps session ids to their ledgers. Idle sessions expire after
// the configured TTL and the least recently used one is dropped when the
// registry is full.
type Sessions struct {
	store  store.Store
	ledger *cache.LRU[*Ledger]
	mounts singleflight.Group
}

func NewSessions(s store.Store, maxSessions int, ttl time.Duration) *Sessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Sessions{
		store: s,
		ledger: cache.NewLRU(maxSessions, ttl, cache.WithEvictHook(func(id string, _ *Ledger) {
			slog.Debug("Session dropped", "session_id", id)
		})),
	}
}

// Get returns the ledger for id, mounting it on first use. Concurrent first
// requests for the same session share one fetch. When the mount fetch fails
// the ledger is still registered, in StateFailed, and the error is returned
// alongside it.
func (s *Sessions) Get(ctx context.Context, id string) (*Ledger, error) {
	if l, ok := s.ledger.Get(id); ok {
		return l, nil
	}

	type mounted struct {
		l   *Ledger
		err error
	}
	v, _, _ := s.mounts.Do(id, func() (any, error) {
		if l, ok := s.ledger.Get(id); ok {
			return mounted{l: l}, nil
		}
		l := New(s.store)
		err := l.Load(ctx)
		s.ledger.Set(id, l)
		slog.InfoContext(ctx, "Session mounted", "session_id", id, "sessions", s.ledger.Size())
		return mounted{l: l, err: err}, nil
	})
	m := v.(mounted)
	return m.l, m.err
}

func (s *Sessions) Drop(id string) {
	s.ledger.Delete(id)
}

func (s *Sessions) Len() int {
	return s.ledger.Size()
}

// CleanExpired lets a cache.Janitor sweep idle sessions.
func (s *Sessions) CleanExpired() int {
	return s.ledger.CleanExpired()
}
