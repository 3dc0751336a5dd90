package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ Scheduler = (*Queue)(nil)

// Queue runs tasks first-scheduled-first-run on one worker goroutine.
// Pending tasks are unbounded so Schedule never blocks the caller.
type Queue struct {
	Id string

	ctx    context.Context
	logger *zap.Logger

	mu      sync.Mutex
	pending []Task
	closed  bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue starts the worker. Tasks receive ctx.
// initialCap only sizes the pending list.
func NewQueue(ctx context.Context, initialCap int, logger *zap.Logger) *Queue {
	if initialCap <= 0 {
		initialCap = 1
	}
	q := &Queue{
		Id:      uuid.New().String(),
		ctx:     ctx,
		logger:  logger,
		pending: make([]Task, 0, initialCap),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	ready := make(chan struct{})
	go func() {
		defer close(q.done)
		close(ready)
		for {
			task, ok := q.next()
			if !ok {
				return
			}
			if err := runSafely(q.ctx, task); err != nil {
				q.logger.Error("panic in scheduled task",
					zap.String("scheduler", q.Id),
					zap.Error(err),
				)
			}
		}
	}()
	<-ready

	return q
}

// next blocks until a task is available. It reports false once the queue is
// closed and fully drained.
func (q *Queue) next() (Task, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			task := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return task, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}
		<-q.wake
	}
}

func (q *Queue) Schedule(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, task)
	q.mu.Unlock()
	q.signal()
	return nil
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close waits until every task scheduled before it has run.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		q.signal()
		<-q.done
		q.logger.Debug("scheduler closed", zap.String("scheduler", q.Id))
	})
	<-q.done
	return nil
}
