package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before))
}

func TestInjectedValuesSurviveWithoutCancel(t *testing.T) {
	pinned := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	ctx = WithTime(ctx, pinned)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSource(ctx, "slack")

	detached := context.WithoutCancel(ctx)
	cancel()

	assert.NoError(t, detached.Err())
	assert.Equal(t, pinned, Now(detached))
	assert.Equal(t, "req-1", RequestID(detached))
	assert.Equal(t, "slack", Source(detached))
}
