package aspects

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrInvalidPattern        = errors.New("invalid name pattern")
	ErrNoAspects             = errors.New("no aspects given")
	ErrDedecorateUnsupported = errors.New("removing decorations is not supported")
)

// Decorate wraps every own function binding whose name matches pattern with
// each aspect of specs, in order. pattern is a regular expression matched
// anywhere in the name unless anchored. Denylisted names are skipped.
//
// Namespaces are taken from the arguments, else from the specs, else the global
// namespace is used. Matching nothing is not an error.
func (e *Engine) Decorate(ctx context.Context, pattern string, specs []Spec, namespaces ...*namespace.Namespace) error {
	if len(specs) == 0 {
		return ErrNoAspects
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}

	for _, ns := range e.scope(specs, namespaces) {
		targets := lo.Filter(ns.Functions(), func(name string, _ int) bool {
			return re.MatchString(name) && !lo.Contains(e.cfg.Denylist, name)
		})
		for _, name := range targets {
			for _, spec := range specs {
				if err := e.apply(ctx, ns, name, spec); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Engine) scope(specs []Spec, namespaces []*namespace.Namespace) []*namespace.Namespace {
	if scoped := lo.Compact(namespaces); len(scoped) > 0 {
		return lo.Uniq(scoped)
	}
	fromSpecs := lo.Compact(lo.FlatMap(specs, func(s Spec, _ int) []*namespace.Namespace {
		return s.Namespaces
	}))
	if len(fromSpecs) > 0 {
		return lo.Uniq(fromSpecs)
	}
	return []*namespace.Namespace{e.global}
}

// apply replaces the binding name with one wrapper implementing spec.
func (e *Engine) apply(ctx context.Context, ns *namespace.Namespace, name string, spec Spec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prev, prevHandle, ok := ns.Own(name)
	if !ok {
		return nil
	}
	prevMeta, found, err := e.table.get(prevHandle)
	if err != nil {
		return err
	}
	var pristine *Metadata
	if !found {
		source, _ := ns.SourceOf(name)
		pristine = &Metadata{
			Handle:    prevHandle,
			Original:  prevHandle,
			BoundName: name,
			Namespace: ns,
			Source:    source,
			fn:        prev,
		}
		prevMeta = pristine
	}

	t := target{
		name:       name,
		ns:         ns,
		prev:       prev,
		prevHandle: prevHandle,
		original:   prevMeta.Original,
		source:     prevMeta.Source,
	}
	wrapper, err := e.buildWrapper(t, spec)
	if err != nil {
		return fmt.Errorf("decorate %s with %s: %w", name, spec.Kind, err)
	}
	if wrapper == nil {
		e.logger.Debug("unsupported aspect, binding left unchanged",
			zap.String("name", name),
			zap.String("aspect", string(spec.Kind)),
			zap.String("namespace", ns.Name()),
		)
		return nil
	}

	h, err := ns.Replace(name, wrapper)
	if err != nil {
		return err
	}
	if err := e.table.insert(pristine, &Metadata{
		Handle:      h,
		Original:    prevMeta.Original,
		Predecessor: prevHandle,
		Aspect:      spec,
		BoundName:   name,
		Namespace:   ns,
		Source:      prevMeta.Source,
		Depth:       prevMeta.Depth + 1,
		fn:          wrapper,
	}); err != nil {
		return err
	}

	e.logger.Debug("decorated function",
		zap.String("name", name),
		zap.String("aspect", string(spec.Kind)),
		zap.String("namespace", ns.Name()),
		zap.Int("depth", prevMeta.Depth+1),
	)
	return nil
}

// Dedecorate always fails with ErrDedecorateUnsupported and changes nothing.
func (e *Engine) Dedecorate(_ context.Context, pattern string, _ ...*namespace.Namespace) error {
	return fmt.Errorf("%w: %q", ErrDedecorateUnsupported, pattern)
}

// MetadataOf returns the record of the function currently bound under name.
// Functions that were never decorated have none.
func (e *Engine) MetadataOf(ns *namespace.Namespace, name string) (Metadata, bool) {
	_, h, ok := ns.Lookup(name)
	if !ok {
		return Metadata{}, false
	}
	m, ok, err := e.table.get(h)
	if err != nil {
		e.logger.Error("failed to read metadata", zap.String("name", name), zap.Error(err))
		return Metadata{}, false
	}
	if !ok {
		return Metadata{}, false
	}
	return *m, true
}

// OriginalOf returns the pristine function behind the binding name.
func (e *Engine) OriginalOf(ns *namespace.Namespace, name string) (namespace.Func, bool) {
	m, ok := e.MetadataOf(ns, name)
	if !ok {
		return nil, false
	}
	orig, ok, err := e.table.get(m.Original)
	if err != nil || !ok {
		return nil, false
	}
	return orig.fn, true
}

// Layers lists the pristine function and every wrapper built around it,
// innermost first.
func (e *Engine) Layers(ns *namespace.Namespace, name string) []Metadata {
	m, ok := e.MetadataOf(ns, name)
	if !ok {
		return nil
	}
	records, err := e.table.chain(m.Original)
	if err != nil {
		e.logger.Error("failed to read metadata chain", zap.String("name", name), zap.Error(err))
		return nil
	}
	return lo.Map(records, func(r *Metadata, _ int) Metadata { return *r })
}

func Decorate(ctx context.Context, pattern string, specs []Spec, namespaces ...*namespace.Namespace) error {
	return MustEngineFrom(ctx).Decorate(ctx, pattern, specs, namespaces...)
}

func Dedecorate(ctx context.Context, pattern string, namespaces ...*namespace.Namespace) error {
	return MustEngineFrom(ctx).Dedecorate(ctx, pattern, namespaces...)
}

func MetadataOf(ctx context.Context, ns *namespace.Namespace, name string) (Metadata, bool) {
	return MustEngineFrom(ctx).MetadataOf(ns, name)
}

func OriginalOf(ctx context.Context, ns *namespace.Namespace, name string) (namespace.Func, bool) {
	return MustEngineFrom(ctx).OriginalOf(ns, name)
}

func Layers(ctx context.Context, ns *namespace.Namespace, name string) []Metadata {
	return MustEngineFrom(ctx).Layers(ns, name)
}

func decorateOne(ctx context.Context, kind Kind, pattern string, cb Callback, namespaces []*namespace.Namespace) error {
	return Decorate(ctx, pattern, []Spec{{Kind: kind, Callback: cb}}, namespaces...)
}

func Logged(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindLogged, pattern, cb, namespaces)
}

func Secured(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindSecured, pattern, cb, namespaces)
}

func Cached(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindCached, pattern, cb, namespaces)
}

func PerformanceLogged(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindPerformanceLogged, pattern, cb, namespaces)
}

// Singleton takes a callback for symmetry only; the singleton aspect never calls it.
func Singleton(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindSingleton, pattern, cb, namespaces)
}

// SafeConstructor takes a callback for symmetry only; the aspect never calls it.
func SafeConstructor(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindSafeConstructor, pattern, cb, namespaces)
}

func Async(ctx context.Context, pattern string, cb Callback, namespaces ...*namespace.Namespace) error {
	return decorateOne(ctx, KindAsync, pattern, cb, namespaces)
}
