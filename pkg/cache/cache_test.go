package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetAndGet(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 0)

	c.Set("key", "value")

	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, "value", got)
}

func TestCacheMissingKey(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 0)

	_, found := c.Get("absent")

	assert.False(t, found)
}

func TestCacheExpiration(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 0)

	c.SetWithExpiration("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheDelete(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 0)

	c.Set("key", "value")
	c.Delete("key")

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheFlush(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()

	assert.Equal(t, 0, c.Count())
}

func TestCacheMaxItemsEvictsOldest(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 3)

	for i := 0; i < 3; i++ {
		c.SetWithExpiration(fmt.Sprintf("key-%d", i), i, time.Duration(i+1)*time.Minute)
	}
	c.Set("key-3", 3)

	assert.Equal(t, 3, c.Count())
	_, found := c.Get("key-0")
	assert.False(t, found, "nearest-expiration entry should be evicted")
	_, found = c.Get("key-3")
	assert.True(t, found)
}

func TestCacheOnEvictedCallback(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 0)

	var evicted []string
	c.SetOnEvicted(func(key string, _ interface{}) {
		evicted = append(evicted, key)
	})

	c.Set("key", "value")
	c.Delete("key")

	assert.Equal(t, []string{"key"}, evicted)
}

func TestCacheOverwriteExistingKeyWithinBound(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, 0, 1)

	c.Set("key", "first")
	c.Set("key", "second")

	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Count())
}
