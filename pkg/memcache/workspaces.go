package mem

import (
	"context"
	"sync"
	"time"
)

type WorkspaceStore[T any] interface {
	// GetOrCreate returns the live value for key, building a fresh one with
	// create when it is missing or expired. Every hit extends the ttl.
	GetOrCreate(key string, create func() T) T

	Peek(key string) (T, bool)
	Delete(key string)

	// Sweep drops expired entries and returns how many were removed.
	Sweep() int
	Len() int
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type Workspaces[T any] struct {
	mu   sync.RWMutex
	data map[string]*entry[T]
	ttl  time.Duration
	now  func() time.Time
}

func NewWorkspaces[T any](ttl time.Duration) *Workspaces[T] {
	return &Workspaces[T]{
		data: make(map[string]*entry[T]),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *Workspaces[T]) GetOrCreate(key string, create func() T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.data[key]; ok && !s.expired(e, now) {
		e.expiresAt = now.Add(s.ttl)
		return e.value
	}
	e := &entry[T]{value: create(), expiresAt: now.Add(s.ttl)}
	s.data[key] = e
	return e.value
}

func (s *Workspaces[T]) Peek(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.expired(e, s.now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *Workspaces[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *Workspaces[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

func (s *Workspaces[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Janitor sweeps every interval until ctx is done.
func (s *Workspaces[T]) Janitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *Workspaces[T]) expired(e *entry[T], now time.Time) bool {
	return s.ttl > 0 && now.After(e.expiresAt)
}
