package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asdm/internal/app/apperr"
	"asdm/internal/app/config"
	"asdm/internal/app/ds"
	"asdm/internal/app/role"
)

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(rc, config.RedisConfig{}, ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSessionLifecycle(t *testing.T) {
	c, mr := newTestClient(t, time.Hour)
	ctx := context.Background()

	s, err := c.CreateSession(ctx, &ds.User{ID: 7, Role: role.Agent})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	assert.True(t, mr.Exists("session:"+s.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID))

	got, err := c.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, role.Agent, got.Role)

	require.NoError(t, c.DeleteSession(ctx, s.ID))
	_, err = c.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	require.NoError(t, c.DeleteSession(ctx, s.ID), "deleting twice is fine")
}

func TestSessionExpires(t *testing.T) {
	c, mr := newTestClient(t, time.Minute)
	ctx := context.Background()

	s, err := c.CreateSession(ctx, &ds.User{ID: 1, Role: role.Demandeur})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = c.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestGetSession_Unknown(t *testing.T) {
	c, _ := newTestClient(t, 0)
	ctx := context.Background()

	_, err := c.GetSession(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = c.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
