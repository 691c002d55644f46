package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	sentAt := time.Date(2025, time.January, 6, 9, 30, 0, 0, time.UTC)
	c.Set("sent", sentAt, time.Minute)
	c.Set("name", "EUR/USD", time.Minute)

	got, ok := Lookup[time.Time](c, "sent")
	assert.True(t, ok)
	assert.Equal(t, sentAt, got)

	_, ok = Lookup[time.Time](c, "name")
	assert.False(t, ok, "wrong type must miss")

	_, ok = Lookup[string](c, "missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	before := time.Now()
	c.Set("k", true, 10*time.Millisecond)

	at, ok := c.Expiry("k")
	require.True(t, ok)
	assert.True(t, at.After(before))

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	_, ok = c.Expiry("k")
	assert.False(t, ok)
}

func TestCache_ExpiryWithoutTTL(t *testing.T) {
	c := NewCache(-1, time.Minute)
	c.Set("k", 1, 0)

	_, ok := c.Expiry("k")
	assert.False(t, ok)
}
