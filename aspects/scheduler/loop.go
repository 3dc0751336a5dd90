package scheduler

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var _ Scheduler = (*Loop)(nil)

// Loop is a cooperative event queue. Nothing runs until RunPending is called,
// so a caller always finishes its current turn before any task it scheduled.
type Loop struct {
	logger *zap.Logger

	mu      sync.Mutex
	pending []Task
	closed  bool
}

func NewLoop(logger *zap.Logger) *Loop {
	return &Loop{logger: logger}
}

func (l *Loop) Schedule(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.pending = append(l.pending, task)
	return nil
}

// Pending reports how many tasks wait for the next RunPending.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// RunPending runs tasks in scheduling order until none are left, including
// tasks scheduled by the tasks it runs. Panicking tasks are logged and reported
// together in the returned error.
func (l *Loop) RunPending(ctx context.Context) error {
	var errs error
	for {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		task, ok := l.pop()
		if !ok {
			return errs
		}
		if err := runSafely(ctx, task); err != nil {
			l.logger.Error("panic in scheduled task", zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
}

func (l *Loop) pop() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, false
	}
	task := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return task, true
}

// Close drains the loop, then refuses new tasks.
func (l *Loop) Close() error {
	err := l.RunPending(context.Background())
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return err
}
