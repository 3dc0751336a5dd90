package aspects

import (
	"context"

	"github.com/on-the-ground/aspect_ive_go/aspects/cachestore"
	"github.com/on-the-ground/aspect_ive_go/aspects/internal/fingerprint"
	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

// cached serves results from store by argument fingerprint.
// Nil results and failed calls are never stored.
func cached(t target, cb Callback, store cachestore.Store) namespace.Func {
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		key := fingerprint.Of(inv.Args)
		res, hit, err := store.Load(key)
		if err != nil {
			return nil, err
		}
		fromCache := hit && res != nil
		if !fromCache {
			if res, err = t.prev(ctx, inv); err != nil {
				return nil, err
			}
			if res != nil {
				if _, err := store.InsertIfAbsent(key, res); err != nil {
					return nil, err
				}
			}
		}

		ev := t.event(KindCached, inv.Args)
		ev.Result = res
		ev.FromCache = fromCache
		if err := notify(ctx, cb, ev); err != nil {
			return nil, err
		}
		return res, nil
	}
}
