package aspects_test

import (
	"context"
	"sync"
	"testing"

	"github.com/on-the-ground/aspect_ive_go/aspects"
	"github.com/on-the-ground/aspect_ive_go/aspects/scheduler"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// newTestEngine binds an engine whose deferred calls only run when the
// returned loop is pumped.
func newTestEngine(t *testing.T, opts ...aspects.Option) (context.Context, *scheduler.Loop, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	loop := scheduler.NewLoop(logger)

	opts = append([]aspects.Option{
		aspects.WithLogger(logger),
		aspects.WithScheduler(loop),
	}, opts...)
	ctx, end := aspects.WithEngine(context.Background(), aspects.NewConfig(), opts...)
	t.Cleanup(func() { end() })
	return ctx, loop, logs
}

// recorder collects callback events.
type recorder struct {
	mu     sync.Mutex
	events []aspects.Event
}

func (r *recorder) callback() aspects.Callback {
	return aspects.Observe(func(_ context.Context, ev aspects.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	})
}

func (r *recorder) all() []aspects.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]aspects.Event(nil), r.events...)
}
