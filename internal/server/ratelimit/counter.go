// Package ratelimit caps how often an identity may hit a group of endpoints
// within a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/uptask/internal/server/repositories/ratelimits"
)

// Counter increments a fixed-window counter and reports the hit count and
// the window end.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (hits int, resetAt time.Time, err error)
}

// Sweeper drops expired windows.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type memoryWindow struct {
	hits    int
	resetAt time.Time
}

// MemoryCounter is a per-process Counter holding at most maxKeys windows.
// Expired windows are removed when the map is full, or by Sweep. When every
// window is still live, the one closest to its reset makes room.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	maxKeys int
	now     func() time.Time
}

// NewMemoryCounter tracks at most maxKeys windows; 0 means 10000.
func NewMemoryCounter(maxKeys int) *MemoryCounter {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &MemoryCounter{
		windows: make(map[string]*memoryWindow),
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

func (m *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(m.windows) >= m.maxKeys {
			if m.sweepLocked(now) == 0 {
				m.evictSoonestLocked()
			}
		}
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.hits++

	return w.hits, w.resetAt, nil
}

// Sweep drops expired windows and reports how many went.
func (m *MemoryCounter) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now()), nil
}

func (m *MemoryCounter) sweepLocked(now time.Time) int {
	removed := 0
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
			removed++
		}
	}
	return removed
}

func (m *MemoryCounter) evictSoonestLocked() {
	var (
		victim string
		first  time.Time
	)
	for k, w := range m.windows {
		if victim == "" || w.resetAt.Before(first) {
			victim, first = k, w.resetAt
		}
	}
	delete(m.windows, victim)
}

// Len returns the number of tracked keys.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// StoreCounter shares counters between processes through the rate_limits table.
type StoreCounter struct {
	repo ratelimits.Repository
}

func NewStoreCounter(repo ratelimits.Repository) *StoreCounter {
	return &StoreCounter{repo: repo}
}

func (s *StoreCounter) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	return s.repo.Increment(ctx, key, window)
}

func (s *StoreCounter) Sweep(ctx context.Context) (int, error) {
	n, err := s.repo.PurgeExpired(ctx)
	return int(n), err
}
