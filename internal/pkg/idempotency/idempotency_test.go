package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTracker(t *testing.T) *StateTracker {
	t.Helper()

	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return New(client)
}

func TestStateTracker_AcquireRelease(t *testing.T) {
	s := newTracker(t)
	ctx := context.Background()

	first, err := s.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, first.Acquired())

	second, err := s.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, second.Acquired())
	assert.Equal(t, StateInProgress, second.State)

	require.NoError(t, s.Release(ctx, second), "releasing a lease that was never held is a no-op")
	again, err := s.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, again.State)

	require.NoError(t, s.Release(ctx, first))

	third, err := s.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, third.Acquired())
}

func TestStateTracker_StaleReleaseKeepsNewOwner(t *testing.T) {
	s := newTracker(t)
	ctx := context.Background()

	stale, err := s.Acquire(ctx, "enroll", time.Second)
	require.NoError(t, err)
	require.True(t, stale.Acquired())

	require.Eventually(t, func() bool {
		fresh, err := s.Acquire(ctx, "enroll", time.Minute)
		return err == nil && fresh.Acquired()
	}, 5*time.Second, 100*time.Millisecond)

	require.NoError(t, s.Release(ctx, stale))

	blocked, err := s.Acquire(ctx, "enroll", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, blocked.State, "stale release must not free the new owner's lock")
}

func TestStateTracker_Exec(t *testing.T) {
	s := newTracker(t)
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, s.Exec(ctx, "once", fn))
	assert.ErrorIs(t, s.Exec(ctx, "once", fn), ErrAlreadyCompleted)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	err := s.Exec(ctx, "fails", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Exec(ctx, "fails", fn), ErrAlreadyFailed)
}
