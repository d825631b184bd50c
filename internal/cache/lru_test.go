package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheGetSetDelete(t *testing.T) {
	c := NewLRUCache[int](4, 0)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	c.Set("a", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Size())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, 0)
	c.Set("Enero 2025", "a")
	c.Set("Febrero 2025", "b")
	_, _ = c.Get("Enero 2025")
	c.Set("Marzo 2025", "c")

	_, ok := c.Get("Febrero 2025")
	assert.False(t, ok)
	_, ok = c.Get("Enero 2025")
	assert.True(t, ok)
	_, ok = c.Get("Marzo 2025")
	assert.True(t, ok)
}

func TestLRUCacheTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](8, time.Minute).WithClock(func() time.Time { return now })

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(30 * time.Second)
	c.Set("c", 3)

	now = now.Add(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok, "a expired on read")

	assert.Equal(t, 1, c.CleanExpired(), "b expired")
	assert.Equal(t, 1, c.Size())
}

func TestManagerSweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](8, time.Second).WithClock(func() time.Time { return now })
	c.Set("a", 1)

	var cleaned int
	m := NewManager(func(n int) { cleaned += n })
	m.Register(c)

	assert.Equal(t, 0, m.Sweep())
	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, cleaned)
}

func TestManagerRunStops(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, time.Millisecond)
	m.Stop()
	m.Stop()
}
