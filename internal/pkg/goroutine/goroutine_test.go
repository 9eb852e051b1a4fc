package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPublish = errors.New("broker down")

func TestManager_RunsAndCollects(t *testing.T) {
	gm := NewManager(4)

	ran := make(chan string, 2)
	gm.Go(context.Background(), "ok", func(context.Context) error {
		ran <- "ok"
		return nil
	})
	gm.Go(context.Background(), "fail", func(context.Context) error {
		ran <- "fail"
		return errPublish
	})

	err := gm.Wait()
	require.ErrorIs(t, err, errPublish)
	assert.Len(t, ran, 2)
}

func TestManager_DetachesFromCaller(t *testing.T) {
	gm := NewManager(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	gm.Go(ctx, "detached", func(ctx context.Context) error {
		seen = ctx.Err()
		return nil
	})

	require.NoError(t, gm.Wait())
	assert.NoError(t, seen)
}

func TestManager_RecoversPanic(t *testing.T) {
	gm := NewManager(1)

	gm.Go(context.Background(), "boom", func(context.Context) error {
		panic("boom")
	})

	assert.ErrorIs(t, gm.Wait(), ErrPanic)
}

func TestManager_DropsWhenSaturated(t *testing.T) {
	gm := NewManager(1)

	release := make(chan struct{})
	started := make(chan struct{})
	gm.Go(context.Background(), "slow", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	gm.Go(context.Background(), "extra", func(context.Context) error {
		t.Error("saturated manager must not run the task")
		return nil
	})
	close(release)

	require.NoError(t, gm.Wait())
	assert.Equal(t, int64(1), gm.Dropped())
}

func TestManager_ClosedAfterWait(t *testing.T) {
	gm := NewManager(1)
	require.NoError(t, gm.Wait())

	gm.Go(context.Background(), "late", func(context.Context) error {
		t.Error("closed manager must not run the task")
		return nil
	})
	assert.NoError(t, gm.Wait())
}
