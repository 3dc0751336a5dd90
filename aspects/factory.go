package aspects

import (
	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

// target is the function value an aspect is applied to.
type target struct {
	name       string
	ns         *namespace.Namespace
	prev       namespace.Func
	prevHandle namespace.Handle
	original   namespace.Handle
	source     string
}

func (t target) event(kind Kind, args []any) Event {
	return Event{
		Kind:      kind,
		Name:      t.name,
		Args:      args,
		Original:  t.original,
		Source:    t.source,
		Namespace: t.ns,
	}
}

// buildWrapper returns a nil wrapper for kinds it does not implement.
func (e *Engine) buildWrapper(t target, spec Spec) (namespace.Func, error) {
	switch spec.Kind {
	case KindLogged:
		return logged(t, spec.Callback), nil
	case KindSecured:
		return secured(t, spec.Callback), nil
	case KindCached:
		store, err := e.cacheStore(t.original)
		if err != nil {
			return nil, err
		}
		return cached(t, spec.Callback, store), nil
	case KindPerformanceLogged:
		return performanceLogged(t, spec.Callback), nil
	case KindSingleton:
		return singleton(t, e.singletonSlot(t.prevHandle)), nil
	case KindSafeConstructor:
		return safeConstructor(t), nil
	case KindAsync:
		return e.async(t, spec.Callback), nil
	default:
		return nil, nil
	}
}
