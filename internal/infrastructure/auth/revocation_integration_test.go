//go:build integration

package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRevocationList(t *testing.T) {
	client := startRedisClient(t)
	ctx := context.Background()
	l := NewRedisRevocationList(client)

	require.NoError(t, client.Set(ctx, "token:blacklist:jti:abc", "1", time.Minute).Err())

	revoked, err := l.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = l.IsRevoked(ctx, "def")
	require.NoError(t, err)
	assert.False(t, revoked)

	cutoff := time.Now().Truncate(time.Second)
	require.NoError(t, client.Set(ctx, "token:blacklist:user:u-1", strconv.FormatInt(cutoff.Unix(), 10), time.Minute).Err())

	invalid, err := l.IsUserTokenInvalidated(ctx, "u-1", cutoff.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalid)

	invalid, err = l.IsUserTokenInvalidated(ctx, "u-1", cutoff.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalid)

	invalid, err = l.IsUserTokenInvalidated(ctx, "u-2", cutoff)
	require.NoError(t, err)
	assert.False(t, invalid)

	require.NoError(t, client.Set(ctx, "token:blacklist:user:u-3", "yesterday", time.Minute).Err())
	_, err = l.IsUserTokenInvalidated(ctx, "u-3", cutoff)
	assert.Error(t, err)
}
