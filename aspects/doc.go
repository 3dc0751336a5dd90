// Package aspects decorates functions held in a namespace with cross-cutting
// behavior such as logging, authorization, caching, timing, singleton-ization,
// constructor normalization and deferred execution.
//
// # How does it work?
//
// An Engine is bound to a context with WithEngine. Decorate scans namespaces for
// own function bindings whose name matches a pattern and, for every aspect in
// list order, replaces the binding with a wrapper around the previous function.
// Given aspects [A, B] the call path becomes B(A(original)).
//
// Callers resolve functions by name on every call, so they never notice the
// replacement. Every wrapper is described by a Metadata record in a side table
// keyed by the wrapper's handle. The record always points back at the pristine
// function, however many times the binding is decorated again.
//
// Decorations cannot be removed: Dedecorate always fails.
//
// Deferred calls of the async aspect wait on a cooperative loop by default.
// They run when the host calls RunPending, or at teardown.
//
// Example:
//
//	ctx, end := aspects.WithEngine(ctx, aspects.NewConfig())
//	defer end()
//
//	ns := aspects.Global(ctx)
//	ns.Register("isPrime", namespace.FuncI1O1(isPrime))
//
//	_ = aspects.Decorate(ctx, "isPrim.*", []aspects.Spec{
//	    {Kind: aspects.KindCached, Callback: aspects.LogCacheLookups(logger, log.LogInfo)},
//	    {Kind: aspects.KindPerformanceLogged, Callback: aspects.LogTimings(logger, log.LogInfo)},
//	})
//	prime, err := namespace.CallAs[bool](ctx, ns, "isPrime", 173)
package aspects
