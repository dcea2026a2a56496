package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-nimbu-client/storage"
)

var _ storage.Storage = (*Store)(nil)

type entry struct {
	value string
	exp   time.Time // zero means no expiry
}

// Store is an in-process Storage. It backs the session tier: its contents live
// exactly as long as the process (or the Store value) does.
type Store struct {
	entries map[string]entry
	ttl     time.Duration
	nowFunc func() time.Time
	mu      sync.RWMutex
}

type Option func(*Store)

// WithTTL expires every entry ttl after it was last written.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func New(options ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if s.ttl > 0 {
		e.exp = s.nowFunc().Add(s.ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// Cleanup drops expired entries.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, key)
		}
	}
}

func (s *Store) expired(e entry) bool {
	return !e.exp.IsZero() && !s.nowFunc().Before(e.exp)
}
