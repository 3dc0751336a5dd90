package aspects

import (
	"context"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"go.uber.org/zap"
)

// async schedules the call and returns nil at once. The deferred call keeps the
// caller's receiver, arguments and context values but not its cancellation.
func (e *Engine) async(t target, cb Callback) namespace.Func {
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		deferredCtx := context.WithoutCancel(ctx)
		err := e.sched.Schedule(ctx, func(context.Context) {
			res, err := t.prev(deferredCtx, inv)
			if err != nil {
				e.logger.Warn("deferred call failed",
					zap.String("name", t.name),
					zap.String("namespace", t.ns.Name()),
					zap.Error(err),
				)
				return
			}
			ev := t.event(KindAsync, inv.Args)
			ev.Result = res
			if err := notify(deferredCtx, cb, ev); err != nil {
				e.logger.Warn("deferred callback failed",
					zap.String("name", t.name),
					zap.String("namespace", t.ns.Name()),
					zap.Error(err),
				)
			}
		})
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
}
