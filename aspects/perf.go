package aspects

import (
	"context"
	"time"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"github.com/rickb777/date/v2/timespan"
)

func performanceLogged(t target, cb Callback) namespace.Func {
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		start := time.Now()
		res, err := t.prev(ctx, inv)
		end := time.Now()
		if err != nil {
			return nil, err
		}

		ev := t.event(KindPerformanceLogged, inv.Args)
		ev.Result = res
		ev.Elapsed = end.Sub(start)
		ev.Span = timespan.BetweenTimes(start, end)
		if err := notify(ctx, cb, ev); err != nil {
			return nil, err
		}
		return res, nil
	}
}
