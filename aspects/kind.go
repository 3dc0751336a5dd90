package aspects

import (
	"context"
	"time"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"github.com/rickb777/date/v2/timespan"
	"github.com/samber/lo"
)

// Kind selects the wrapper built for an aspect.
// Strings other than the constants below are unsupported and decorate nothing.
type Kind string

const (
	KindLogged            Kind = "logged"
	KindSecured           Kind = "secured"
	KindCached            Kind = "cached"
	KindPerformanceLogged Kind = "performanceLogged"
	KindSingleton         Kind = "singleton"
	KindSafeConstructor   Kind = "safeConstructor"
	KindAsync             Kind = "async"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{
		KindLogged,
		KindSecured,
		KindCached,
		KindPerformanceLogged,
		KindSingleton,
		KindSafeConstructor,
		KindAsync,
	}
}

func (k Kind) Supported() bool {
	return lo.Contains(Kinds(), k)
}

// Spec describes one aspect to apply.
type Spec struct {
	Kind     Kind
	Callback Callback
	// Namespaces restricts where Decorate looks when it is given no namespaces.
	Namespaces []*namespace.Namespace
}

// Callback observes a decorated call.
//
// The boolean is an authorization decision and is read by the secured aspect
// only. A returned error propagates unchanged to the caller of the decorated
// function, except for deferred calls where the caller has already returned.
type Callback func(ctx context.Context, ev Event) (bool, error)

// Event describes a decorated call as seen by a Callback.
type Event struct {
	Kind Kind
	Name string
	Args []any
	// Result is nil before the call and for secured callbacks.
	Result any

	// FromCache is set by cached.
	FromCache bool
	// Elapsed and Span are set by performanceLogged.
	Elapsed time.Duration
	Span    timespan.TimeSpan

	Original namespace.Handle
	// Source is the symbol name of the pristine function.
	Source    string
	Namespace *namespace.Namespace
}

// Observe adapts a function that never denies and never fails.
func Observe(fn func(ctx context.Context, ev Event)) Callback {
	return func(ctx context.Context, ev Event) (bool, error) {
		fn(ctx, ev)
		return true, nil
	}
}

// Authorize adapts a plain authorization decision.
func Authorize(fn func(ctx context.Context, ev Event) bool) Callback {
	return func(ctx context.Context, ev Event) (bool, error) {
		return fn(ctx, ev), nil
	}
}

// notify runs cb if set and keeps only its error.
func notify(ctx context.Context, cb Callback, ev Event) error {
	if cb == nil {
		return nil
	}
	_, err := cb(ctx, ev)
	return err
}
