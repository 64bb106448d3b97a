package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. Counters are lost on restart
// and are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*Window
	now     func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		windows: make(map[string]*Window),
		now:     now,
	}
}

func (s *MemoryStore) Hit(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (*Window, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[identifier]
	if !ok || !now.Before(w.WindowStart.Add(window)) {
		w = &Window{Identifier: identifier, WindowStart: now}
		s.windows[identifier] = w
	}

	w.AttemptCount++
	if w.AttemptCount > maxAttempts && w.BlockedUntil == nil {
		until := w.WindowStart.Add(window)
		w.BlockedUntil = &until
	}

	out := *w
	return &out, nil
}

// Cleanup drops windows that started before the cutoff.
func (s *MemoryStore) Cleanup(olderThan time.Duration) int {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, w := range s.windows {
		if w.WindowStart.Before(cutoff) {
			delete(s.windows, id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval, olderThan time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup(olderThan)
		}
	}
}
