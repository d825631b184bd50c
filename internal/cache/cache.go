// Package cache provides a small generic in-process cache used for
// materialised month breakdowns.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is the read-through store view.DetailPanels keeps breakdowns in.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches whose entries can expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically evicts expired entries from registered caches.
type Manager struct {
	mu       sync.Mutex
	caches   []Cleaner
	onClean  func(removed int)
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewManager creates a manager. onClean, when set, is called after every
// sweep that removed at least one entry.
func NewManager(onClean func(removed int)) *Manager {
	return &Manager{
		onClean: onClean,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	if total > 0 && m.onClean != nil {
		m.onClean(total)
	}
	return total
}

// Run sweeps every interval until ctx is done or Stop is called.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		}
	}
}

// Stop ends Run and waits for it to return. It must only be called after
// Run was started.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}
