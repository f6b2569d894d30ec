package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	s := NewMemoryStore()
	s.Now = func() time.Time { return now }

	require.NoError(t, s.SetWithTimestamp(ctx, "alice", "otp", "123456"))

	now = start.Add(119 * time.Second)
	v, ok, err := s.GetIfNotExpired(ctx, "alice", "otp", DefaultTTL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123456", v)

	now = start.Add(121 * time.Second)
	_, ok, err = s.GetIfNotExpired(ctx, "alice", "otp", DefaultTTL)
	require.NoError(t, err)
	assert.False(t, ok)

	// Purged: going back in time does not resurrect it.
	now = start
	_, ok, _ = s.GetIfNotExpired(ctx, "alice", "otp", DefaultTTL)
	assert.False(t, ok)
}

func TestMemoryStoreScopesBySession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SetWithTimestamp(ctx, "alice", "k", "a"))
	require.NoError(t, s.SetWithTimestamp(ctx, "bob", "k", "b"))

	v, ok, _ := s.GetIfNotExpired(ctx, "alice", "k", DefaultTTL)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok, _ = s.GetIfNotExpired(ctx, "carol", "k", DefaultTTL)
	assert.False(t, ok)
}

func TestMemoryStoreOverwriteResetsClock(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	s := NewMemoryStore()
	s.Now = func() time.Time { return now }

	require.NoError(t, s.SetWithTimestamp(ctx, "alice", "k", "old"))
	now = start.Add(100 * time.Second)
	require.NoError(t, s.SetWithTimestamp(ctx, "alice", "k", "new"))

	now = start.Add(200 * time.Second)
	v, ok, _ := s.GetIfNotExpired(ctx, "alice", "k", DefaultTTL)
	assert.True(t, ok)
	assert.Equal(t, "new", v)
}
