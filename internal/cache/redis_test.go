package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()
	port := nat.Port("6379/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	c := NewFromClient(redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, mapped.Port())}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_SetGetInvalidate(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	type item struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}

	var got item
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "sub:1", item{ID: "1", Status: "active"}, time.Minute))
	found, err = c.Get(ctx, "sub:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, item{ID: "1", Status: "active"}, got)

	require.NoError(t, c.Invalidate(ctx, "sub:1"))
	found, err = c.Get(ctx, "sub:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var n Nop
	require.NoError(t, n.Set(ctx, "k", 1, time.Minute))
	var v int
	found, err := n.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, n.Invalidate(ctx, "k"))
}
