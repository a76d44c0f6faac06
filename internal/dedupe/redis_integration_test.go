//go:build integration

package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractflow/pkg/testutil/containers"
)

func TestRedisStoreClaim(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.Client.Health(ctx))
	require.NoError(t, rc.FlushAll(ctx))

	store := NewRedisStore(rc.Client, "test:")

	first, err := store.Claim(ctx, "webhook:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	dup, err := store.Claim(ctx, "webhook:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, dup)

	ttl, err := rc.Client.TTL(ctx, "test:webhook:abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, store.Release(ctx, "webhook:abc"))
	again, err := store.Claim(ctx, "webhook:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}
