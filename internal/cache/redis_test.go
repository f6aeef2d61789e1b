package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-connect/internal/db"
)

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	got, err := c.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil")

	require.NoError(t, c.SetProfile(ctx, &db.Profile{ID: "p1", Username: "alice", Interests: []string{"go"}}))
	assert.True(t, mr.Exists("profile:p1"))

	got, err = c.GetProfile(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{"go"}, []string(got.Interests))

	mr.FastForward(ProfileTTL + time.Second)
	got, err = c.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry is a miss")

	require.NoError(t, c.SetProfile(ctx, &db.Profile{ID: "p1"}))
	require.NoError(t, c.InvalidateProfile(ctx, "p1"))
	assert.False(t, mr.Exists("profile:p1"))
}

func TestProfileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, mr.Set("profile:bad", "{not json"))
	got, err := c.GetProfile(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("profile:bad"))
}

func TestRevocation(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	revoked, err := c.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.RevokeToken(ctx, "jti-1", time.Minute))
	revoked, err = c.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = c.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	since, err := c.UserRevokedSince(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, since.IsZero())

	at := time.Unix(1700000000, 0)
	require.NoError(t, c.RevokeUser(ctx, "u1", at, time.Hour))
	since, err = c.UserRevokedSince(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, since.Equal(at))
}

func TestMessageIdempotency(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	id, first, err := c.ReserveMessageKey(ctx, "alice", "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Zero(t, id)

	// in flight
	id, first, err = c.ReserveMessageKey(ctx, "alice", "k1", time.Hour)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Zero(t, id)

	require.NoError(t, c.CompleteMessageKey(ctx, "alice", "k1", 42, time.Hour))
	id, first, err = c.ReserveMessageKey(ctx, "alice", "k1", time.Hour)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, uint64(42), id)

	// keys are per sender
	_, first, err = c.ReserveMessageKey(ctx, "bob", "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, c.ReleaseMessageKey(ctx, "bob", "k1"))
	_, first, err = c.ReserveMessageKey(ctx, "bob", "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
}
