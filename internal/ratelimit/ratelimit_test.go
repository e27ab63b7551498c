package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-shop-auth/internal/config"
)

// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/ratelimit -v -count=1

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	return rdb
}

func testCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       3,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
	}
}

func TestIntegration_Allow_ExhaustsAndRefills(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000)
	l := New(rdb, "test:", testCfg())
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4:login")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, int64(2-i), d.Remaining)
		require.Equal(t, 3, d.Limit)
	}

	d, err := l.Allow(ctx, "1.2.3.4:login")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, time.Second, d.RetryAfter)

	// Другие ключи независимы.
	d, err = l.Allow(ctx, "5.6.7.8:login")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Через интервал появляется один токен.
	now = now.Add(1500 * time.Millisecond)
	d, err = l.Allow(ctx, "1.2.3.4:login")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "1.2.3.4:login")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 500*time.Millisecond, d.RetryAfter)

	ttl, err := rdb.TTL(ctx, "test:rl:1.2.3.4:login").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}

func TestAllow_RedisDown_ReturnsError(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	_, err := New(rdb, "test:", testCfg()).Allow(context.Background(), "k")
	require.Error(t, err)
}

func TestAsInt64(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(7), asInt64(int64(7)))
	require.Equal(t, int64(9), asInt64("9"))
	require.Equal(t, int64(0), asInt64(nil))
	require.Equal(t, int64(0), asInt64("x"))
}
