package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a connected cache.
func setupRedis(t *testing.T) (*CooldownCache, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, rdb.Ping(ctx).Err())

	cache := NewCooldownCacheWithClient(rdb)
	cleanup := func() {
		cache.Close()
		_ = container.Terminate(ctx)
	}
	return cache, cleanup
}

// fakeStore counts fallback lookups.
type fakeStore struct {
	recent bool
	calls  int
}

func (f *fakeStore) HasRecentAlert(context.Context, string, string, time.Duration) (bool, error) {
	f.calls++
	return f.recent, nil
}

func TestCooldownCache_MarkAndHas(t *testing.T) {
	cache, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	hit, err := cache.Has(ctx, "tok", "pair")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Mark(ctx, "tok", "pair", time.Minute))

	hit, err = cache.Has(ctx, "tok", "other")
	require.NoError(t, err)
	assert.True(t, hit, "token key matches")

	hit, err = cache.Has(ctx, "other", "pair")
	require.NoError(t, err)
	assert.True(t, hit, "pair key matches")

	hit, err = cache.Has(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCooldownCache_Expires(t *testing.T) {
	cache, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Mark(ctx, "tok", "", 1100*time.Millisecond))

	assert.Eventually(t, func() bool {
		hit, err := cache.Has(ctx, "tok", "")
		return err == nil && !hit
	}, 5*time.Second, 100*time.Millisecond)
}

func TestDedup_CacheHitSkipsStore(t *testing.T) {
	cache, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := &fakeStore{}
	d := NewDedup(cache, store, nil)

	d.MarkAlerted(ctx, "tok", "pair", time.Minute)

	recent, err := d.HasRecentAlert(ctx, "tok", "x", time.Minute)
	require.NoError(t, err)
	assert.True(t, recent)
	assert.Equal(t, 0, store.calls)

	// Miss falls through to the store.
	store.recent = true
	recent, err = d.HasRecentAlert(ctx, "new", "y", time.Minute)
	require.NoError(t, err)
	assert.True(t, recent)
	assert.Equal(t, 1, store.calls)
}

func TestDedup_UnreachableRedisFallsBack(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := NewCooldownCacheWithClient(rdb)
	defer cache.Close()

	logger, hook := test.NewNullLogger()
	store := &fakeStore{recent: true}
	d := NewDedup(cache, store, logger)

	recent, err := d.HasRecentAlert(context.Background(), "tok", "pair", time.Minute)
	require.NoError(t, err)
	assert.True(t, recent)
	assert.Equal(t, 1, store.calls)

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
