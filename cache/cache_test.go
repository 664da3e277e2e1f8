package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/igprobe/models"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCache(t *testing.T, maxEntries int, ttl time.Duration) (*Cache, *fakeClock) {
	t.Helper()
	c := New(maxEntries, ttl)
	t.Cleanup(c.Close)
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.Now
	return c, clk
}

func TestCache_HitIsCaseInsensitive(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	c.Set("NASA", &models.ProfileRecord{Username: "NASA", Followers: "97000000"})

	got, ok := c.Get(" nasa ")
	require.True(t, ok)
	assert.Equal(t, "97000000", got.Followers)
}

func TestCache_Expires(t *testing.T) {
	c, clk := newTestCache(t, 10, time.Minute)
	c.Set("nasa", &models.ProfileRecord{Username: "nasa"})

	clk.t = clk.t.Add(59 * time.Second)
	_, ok := c.Get("nasa")
	assert.True(t, ok)

	clk.t = clk.t.Add(2 * time.Second)
	_, ok = c.Get("nasa")
	assert.False(t, ok)

	c.evictExpired()
	assert.Equal(t, 0, c.Len())
}

func TestCache_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	rec := &models.ProfileRecord{Username: "nasa", Bio: "space"}
	c.Set("nasa", rec)
	rec.Bio = "mutated"

	got, ok := c.Get("nasa")
	require.True(t, ok)
	assert.Equal(t, "space", got.Bio)

	got.Bio = "also mutated"
	again, _ := c.Get("nasa")
	assert.Equal(t, "space", again.Bio)
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)
	c.Set("a", &models.ProfileRecord{})
	c.Set("b", &models.ProfileRecord{})
	c.Set("b", &models.ProfileRecord{})
	assert.Equal(t, 2, c.Len())

	c.Set("c", &models.ProfileRecord{})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestCache_IgnoresNil(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)
	c.Set("a", nil)
	assert.Equal(t, 0, c.Len())
}
