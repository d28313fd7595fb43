package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_CleanStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var g Group

	for _, name := range []string{"a", "b"} {
		g.Go(ctx, name, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}

	cancel()
	assert.NoError(t, g.Wait())
}

func TestGroup_PanicStopsOnlyThatDaemon(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var g Group
	var ticks atomic.Int32

	g.Go(ctx, "crasher", func(context.Context) error {
		panic("boom")
	})
	g.Go(ctx, "survivor", func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
				ticks.Add(1)
			}
		}
	})

	require.Eventually(t, func() bool { return ticks.Load() > 5 }, 5*time.Second, time.Millisecond)
	cancel()

	err := g.Wait()
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "crasher", derr.Name)
	assert.True(t, derr.Panic)
	assert.Contains(t, derr.Error(), "boom")
}

func TestGroup_ReportsReturnedError(t *testing.T) {
	sentinel := errors.New("store unavailable")
	var g Group

	g.Go(context.Background(), "poller", func(context.Context) error {
		return sentinel
	})

	err := g.Wait()
	assert.ErrorIs(t, err, sentinel)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.False(t, derr.Panic)
	assert.Equal(t, "daemon poller: store unavailable", derr.Error())
}

func TestGroup_WaitWithNoDaemons(t *testing.T) {
	var g Group
	assert.NoError(t, g.Wait())
}
