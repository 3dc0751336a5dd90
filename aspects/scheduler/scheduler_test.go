package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/aspect_ive_go/aspects/log"
	"github.com/on-the-ground/aspect_ive_go/aspects/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestQueue_RunsTasksInOrder(t *testing.T) {
	q := scheduler.NewQueue(context.Background(), 4, log.NewTest())

	var (
		mu  sync.Mutex
		ran []int
		wg  sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, q.Schedule(context.Background(), func(context.Context) {
			defer wg.Done()
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		}))
	}
	wg.Wait()
	require.NoError(t, q.Close())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ran)
}

func TestQueue_ScheduleDoesNotWaitForTask(t *testing.T) {
	q := scheduler.NewQueue(context.Background(), 1, log.NewTest())
	defer q.Close()

	release := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, q.Schedule(context.Background(), func(context.Context) {
		<-release
		close(finished)
	}))

	select {
	case <-finished:
		t.Fatal("task finished before it was released")
	default:
	}
	close(release)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestQueue_CloseDrainsPendingTasks(t *testing.T) {
	q := scheduler.NewQueue(context.Background(), 1, log.NewTest())

	gate := make(chan struct{})
	var count int
	require.NoError(t, q.Schedule(context.Background(), func(context.Context) { <-gate }))
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Schedule(context.Background(), func(context.Context) { count++ }))
	}
	close(gate)

	require.NoError(t, q.Close())
	assert.Equal(t, 5, count)
}

func TestQueue_ScheduleAfterClose(t *testing.T) {
	q := scheduler.NewQueue(context.Background(), 1, log.NewTest())
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	err := q.Schedule(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, scheduler.ErrClosed)
}

func TestQueue_ScheduleWithCanceledContext(t *testing.T) {
	q := scheduler.NewQueue(context.Background(), 1, log.NewTest())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Schedule(ctx, func(context.Context) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_SurvivesPanickingTask(t *testing.T) {
	q := scheduler.NewQueue(context.Background(), 1, log.NewTest())

	done := make(chan struct{})
	require.NoError(t, q.Schedule(context.Background(), func(context.Context) { panic("boom") }))
	require.NoError(t, q.Schedule(context.Background(), func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker stopped after panic")
	}
	require.NoError(t, q.Close())
}

func TestLoop_NothingRunsUntilRunPending(t *testing.T) {
	l := scheduler.NewLoop(log.NewTest())

	var ran []string
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { ran = append(ran, "a") }))
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { ran = append(ran, "b") }))
	ran = append(ran, "caller")

	assert.Equal(t, 2, l.Pending())
	require.NoError(t, l.RunPending(context.Background()))
	assert.Equal(t, []string{"caller", "a", "b"}, ran)
	assert.Equal(t, 0, l.Pending())
}

func TestLoop_RunsTasksScheduledByTasks(t *testing.T) {
	l := scheduler.NewLoop(log.NewTest())

	var ran []string
	require.NoError(t, l.Schedule(context.Background(), func(ctx context.Context) {
		ran = append(ran, "outer")
		_ = l.Schedule(ctx, func(context.Context) { ran = append(ran, "inner") })
	}))
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { ran = append(ran, "second") }))

	require.NoError(t, l.RunPending(context.Background()))
	assert.Equal(t, []string{"outer", "second", "inner"}, ran)
}

func TestLoop_CollectsPanics(t *testing.T) {
	l := scheduler.NewLoop(log.NewTest())

	var ran bool
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { panic("first") }))
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { ran = true }))
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { panic("second") }))

	err := l.RunPending(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, scheduler.ErrTaskPanicked)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, ran)
}

func TestLoop_CloseDrainsThenRefuses(t *testing.T) {
	l := scheduler.NewLoop(log.NewTest())

	var ran bool
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) { ran = true }))
	require.NoError(t, l.Close())
	assert.True(t, ran)

	err := l.Schedule(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, scheduler.ErrClosed)
}

func TestLoop_StopsOnCanceledContext(t *testing.T) {
	l := scheduler.NewLoop(log.NewTest())
	require.NoError(t, l.Schedule(context.Background(), func(context.Context) {}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.RunPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, l.Pending())
}
