package aspects

import (
	"context"
	"sync"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

type singletonSlot struct {
	mu       sync.Mutex
	set      bool
	instance any
}

// claim records this as the instance unless one is recorded already.
// It returns the recorded instance and whether this call recorded it.
func (s *singletonSlot) claim(this any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return s.instance, false
	}
	s.set = true
	s.instance = this
	return this, true
}

// singleton records the receiver of the first call, nil included, and returns
// it from every later call without calling through.
func singleton(t target, slot *singletonSlot) namespace.Func {
	return func(ctx context.Context, inv namespace.Invocation) (any, error) {
		instance, first := slot.claim(inv.This)
		if !first {
			return instance, nil
		}
		return t.prev(ctx, inv)
	}
}
