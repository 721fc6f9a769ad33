package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	_, _ = c.Get("a")
	c.Set("c", []byte("3"))

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRU(4, 10*time.Second)
	c.now = func() time.Time { return now }
	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(11 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRU_Overwrite(t *testing.T) {
	c := NewLRU(0, time.Minute)
	c.Set("k", []byte("old"))
	c.Set("k", []byte("new"))
	v, _ := c.Get("k")
	assert.Equal(t, []byte("new"), v)
	assert.Equal(t, 1, c.Len())
}

func TestKey(t *testing.T) {
	a := Key("tenants:", []byte("ab"), []byte("c"))
	b := Key("tenants:", []byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("tenants:", []byte("ab"), []byte("c")))
	assert.Len(t, a, len("tenants:")+64)
}
