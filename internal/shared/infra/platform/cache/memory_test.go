package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string `json:"title"`
}

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "hunt:id:1", entry{Title: "Parque"}, 0))

	var got entry
	hit, err := c.Get(ctx, "hunt:id:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Parque", got.Title)

	require.NoError(t, c.Delete(ctx, "hunt:id:1"))
	hit, err = c.Get(ctx, "hunt:id:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_Expiration(t *testing.T) {
	c := NewInMemoryCache(10*time.Millisecond, time.Hour)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Title: "x"}, 0))
	time.Sleep(20 * time.Millisecond)

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
