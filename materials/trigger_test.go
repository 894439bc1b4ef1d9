package materials_test

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/materials"
	"github.com/stretchr/testify/require"
)

// runWatcher starts w in the background; the returned channel receives its exit error
func runWatcher(t *testing.T, w *materials.Watcher, trigger materials.Trigger) <-chan error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	exit := make(chan error, 1)
	go func() {
		exit <- w.Run(ctx, trigger)
	}()
	return exit
}

func TestWatcher_LoadsUntilExhausted(t *testing.T) {
	f := setupTestFixture(t)
	f.api.GetMaterialsFunc = serve(25)

	results := make(chan materials.Result, 4)
	var starts []int
	trigger := materials.NewChannelTrigger()
	w := materials.NewWatcher(f.loader,
		materials.OnStart(func(c materials.Cursor) { starts = append(starts, c.Offset) }),
		materials.OnResult(func(r materials.Result) { results <- r }),
	)
	exit := runWatcher(t, w, trigger)

	trigger.Notify()
	res := <-results
	require.Equal(t, materials.Appended, res.Kind)
	require.True(t, res.Cursor.HasMore)

	trigger.Notify()
	res = <-results
	require.Equal(t, materials.Appended, res.Kind)
	require.False(t, res.Cursor.HasMore)

	// The watcher stops once the list is exhausted
	require.NoError(t, <-exit)
	require.Len(t, f.loader.Items(), 25)
	require.Equal(t, 2, f.api.MaterialsCalls())
	require.Equal(t, []int{0, 20}, starts)
}

func TestWatcher_AuthRetryExhausted(t *testing.T) {
	f := setupTestFixture(t)

	trigger := materials.NewChannelTrigger()
	exit := runWatcher(t, materials.NewWatcher(f.loader), trigger)

	trigger.Notify()
	err := <-exit
	require.True(t, apperrors.Is(err, apperrors.ErrAuthExpired))
	require.Empty(t, f.loader.Items())
}

func TestWatcher_ClosedTrigger(t *testing.T) {
	f := setupTestFixture(t)

	trigger := materials.NewChannelTrigger()
	exit := runWatcher(t, materials.NewWatcher(f.loader), trigger)

	trigger.Close()
	trigger.Close()
	require.NoError(t, <-exit)
	require.Zero(t, f.api.MaterialsCalls())
}

func TestWatcher_ThrottleDelaysLoad(t *testing.T) {
	f := setupTestFixture(t)
	f.api.GetMaterialsFunc = serve(100)

	results := make(chan materials.Result, 4)
	trigger := materials.NewChannelTrigger()
	w := materials.NewWatcher(f.loader,
		materials.WithRate(10),
		materials.OnResult(func(r materials.Result) { results <- r }),
	)
	exit := runWatcher(t, w, trigger)

	trigger.Notify()
	require.Equal(t, materials.Appended, (<-results).Kind)
	first := time.Now()

	// The second intersection arrives before the limiter allows another load
	trigger.Notify()
	res := <-results
	require.Equal(t, materials.Appended, res.Kind)
	require.GreaterOrEqual(t, time.Since(first), 50*time.Millisecond)
	require.Equal(t, 40, res.Cursor.Offset)

	trigger.Close()
	require.NoError(t, <-exit)
	require.Equal(t, 2, f.api.MaterialsCalls())
	require.Len(t, f.loader.Items(), 40)
}

func TestWatcher_CancelledWhileThrottled(t *testing.T) {
	f := setupTestFixture(t)
	f.api.GetMaterialsFunc = serve(100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan materials.Result, 4)
	trigger := materials.NewChannelTrigger()
	w := materials.NewWatcher(f.loader,
		materials.WithRate(0.001),
		materials.OnResult(func(r materials.Result) { results <- r }),
	)
	exit := make(chan error, 1)
	go func() {
		exit <- w.Run(ctx, trigger)
	}()

	trigger.Notify()
	require.Equal(t, materials.Appended, (<-results).Kind)

	trigger.Notify()
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-exit, context.Canceled)
	require.Equal(t, 1, f.api.MaterialsCalls())
	require.Len(t, f.loader.Items(), 20)
}

func TestWatcher_ContextCancelled(t *testing.T) {
	f := setupTestFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	exit := make(chan error, 1)
	go func() {
		exit <- materials.NewWatcher(f.loader).Run(ctx, materials.NewChannelTrigger())
	}()

	cancel()
	require.ErrorIs(t, <-exit, context.Canceled)
}

func TestChannelTrigger_MergesPendingEvents(t *testing.T) {
	trigger := materials.NewChannelTrigger()
	trigger.Notify()
	trigger.Notify()
	trigger.Notify()
	trigger.Close()

	count := 0
	for range trigger.Intersections() {
		count++
	}
	require.Equal(t, 1, count)
}
