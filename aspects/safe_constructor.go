package aspects

import (
	"context"
	"fmt"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

// safeConstructor turns plain calls into constructing calls over a fresh
// receiver. Constructing calls pass straight through.
func safeConstructor(t target) namespace.Func {
	alloc, constructible := t.ns.Allocator(t.name)
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		if inv.Constructing {
			return t.prev(ctx, inv)
		}
		if !constructible {
			return nil, fmt.Errorf("%w: %s in %s", namespace.ErrNotConstructible, t.name, t.ns.Name())
		}
		return namespace.ConstructWith(ctx, alloc, t.prev, inv.Args)
	}
}
