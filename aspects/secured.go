package aspects

import (
	"context"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

// secured skips the call and returns nil when cb denies it.
// Without a callback every call is allowed.
func secured(t target, cb Callback) namespace.Func {
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		if cb != nil {
			allowed, err := cb(ctx, t.event(KindSecured, inv.Args))
			if err != nil {
				return nil, err
			}
			if !allowed {
				return nil, nil
			}
		}
		return t.prev(ctx, inv)
	}
}
