package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-router/internal/redis"
)

func setupManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	manager, err := NewManager(client, nil)
	require.NoError(t, err)
	t.Cleanup(manager.Close)
	return manager
}

func TestAcquireAndRelease(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	lock, acquired, err := manager.Acquire(ctx, "prune", 30*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	_, taken, err := manager.Acquire(ctx, "prune", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, taken)

	lock.Release()

	_, retaken, err := manager.Acquire(ctx, "prune", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, retaken)
}

func TestIndependentKeys(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	_, first, err := manager.Acquire(ctx, "a", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, first)

	_, second, err := manager.Acquire(ctx, "b", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, second)
}

func TestNilClientRejected(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.Error(t, err)
}
