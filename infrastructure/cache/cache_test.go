package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Business Meeting", "business meeting"},
		{"  beach   day ", "beach day"},
		{"one\ttwo\nthree", "one two three"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeQuery(tc.in))
	}
}

func TestSuggestionKey_EquivalentQueriesShareKeys(t *testing.T) {
	a := SuggestionKey("user-1", "Business Meeting")
	b := SuggestionKey("user-1", "  business   meeting ")
	c := SuggestionKey("user-1", "beach day")
	d := SuggestionKey("user-2", "business meeting")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, SuggestionPrefix("user-1"))

	// owner:hash with a 16 character hash suffix.
	assert.Len(t, a, len("suggestion:user-1:")+16)
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, SuggestionKey("user-1", "query a"), []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, SuggestionKey("user-1", "query b"), []byte("b"), time.Minute))
	otherKey := SuggestionKey("user-2", "query a")
	require.NoError(t, c.Set(ctx, otherKey, []byte("c"), time.Minute))

	require.NoError(t, c.DeletePrefix(ctx, SuggestionPrefix("user-1")))

	_, ok, _ := c.Get(ctx, SuggestionKey("user-1", "query a"))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, otherKey)
	assert.True(t, ok)
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got)
}
