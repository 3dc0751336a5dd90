package aspects

import (
	"context"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

func logged(t target, cb Callback) namespace.Func {
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		res, err := t.prev(ctx, inv)
		if err != nil {
			return nil, err
		}
		ev := t.event(KindLogged, inv.Args)
		ev.Result = res
		if err := notify(ctx, cb, ev); err != nil {
			return nil, err
		}
		return res, nil
	}
}
