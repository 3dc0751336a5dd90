// Package scheduler runs deferred tasks on a later turn.
//
// Two implementations are provided. Queue owns a single worker goroutine that
// runs tasks in the order they were scheduled. Loop is cooperative: tasks only
// run when the owner calls RunPending, which makes "the caller continues before
// the task runs" a deterministic guarantee.
//
// Neither implementation can cancel a task once it has been scheduled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrClosed       = errors.New("scheduler is closed")
	ErrTaskPanicked = errors.New("scheduled task panicked")
)

type Task func(ctx context.Context)

type Scheduler interface {
	// Schedule never waits for the task to run.
	Schedule(ctx context.Context, task Task) error
	// Close runs every task already scheduled, then refuses new ones.
	Close() error
}

// Cooperative is a Scheduler whose tasks run only when its owner pumps it.
type Cooperative interface {
	Scheduler
	RunPending(ctx context.Context) error
}

var _ Cooperative = (*Loop)(nil)

// runSafely runs task and converts a panic into an error.
func runSafely(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	task(ctx)
	return nil
}
