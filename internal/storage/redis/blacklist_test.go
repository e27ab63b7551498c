package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты чёрного списка на реальном Redis (redis:7-alpine).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/redis -v -count=1

func startRedis(t *testing.T) (*Blacklist, func()) {
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

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	bl, err := New(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "test:")
	require.NoError(t, err)

	cleanup := func() {
		_ = bl.Close()
		_ = c.Terminate(context.Background())
	}
	return bl, cleanup
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "not-a-url://", "")
	require.Error(t, err)
}

func TestIntegration_Blacklist_Flow(t *testing.T) {
	bl, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	ok, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, bl.BlacklistToken(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, bl.BlacklistToken(ctx, "jti-1", time.Now().Add(time.Minute)))

	ok, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := bl.Client().TTL(ctx, "test:bl:jti-1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, time.Minute)
}

func TestIntegration_Blacklist_ExpiresByTTL(t *testing.T) {
	bl, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, bl.BlacklistToken(ctx, "short", time.Now().Add(1100*time.Millisecond)))

	require.Eventually(t, func() bool {
		ok, err := bl.IsBlacklisted(ctx, "short")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)

	n, err := bl.DeleteExpiredBlacklist(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIntegration_Blacklist_AlreadyExpiredIsSkipped(t *testing.T) {
	bl, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, bl.BlacklistToken(ctx, "gone", time.Now().Add(-time.Second)))

	ok, err := bl.IsBlacklisted(ctx, "gone")
	require.NoError(t, err)
	require.False(t, ok)
}
