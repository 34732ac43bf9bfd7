package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestInFlightGuard_Exclusive(t *testing.T) {
	mr, rdb := newTestClient(t)
	g := NewInFlightGuard(rdb, time.Minute)
	ctx := context.Background()

	release, ok, err := g.Acquire(ctx, "participation:1:10")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("activity-bff:participation:1:10"))

	_, ok, err = g.Acquire(ctx, "participation:1:10")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = g.Acquire(ctx, "participation:2:10")
	require.NoError(t, err)
	assert.True(t, ok)

	release()
	assert.False(t, mr.Exists("activity-bff:participation:1:10"))

	_, ok, err = g.Acquire(ctx, "participation:1:10")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInFlightGuard_ExpiresAndKeepsNewHolder(t *testing.T) {
	mr, rdb := newTestClient(t)
	g := NewInFlightGuard(rdb, time.Second)
	ctx := context.Background()

	stale, ok, err := g.Acquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = g.Acquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	stale()
	assert.True(t, mr.Exists("activity-bff:k"))
}

func TestInFlightGuard_RedisDown(t *testing.T) {
	mr, rdb := newTestClient(t)
	g := NewInFlightGuard(rdb, time.Minute)
	mr.Close()

	_, ok, err := g.Acquire(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestChecker(t *testing.T) {
	mr, rdb := newTestClient(t)
	c := NewChecker(rdb)
	assert.Equal(t, "redis", c.Name())
	assert.NoError(t, c.Check(context.Background()))

	mr.Close()
	assert.Error(t, c.Check(context.Background()))
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer rdb.Close()

	_, err = New("not a url")
	assert.Error(t, err)
}
