// Package namespace provides the typed registry that decoration targets live in.
//
// A Namespace maps names to bindings. A binding is either a plain value or a
// function with the Func calling convention. Callers resolve functions by name on
// every call, so replacing a binding (as the decoration engine does) is invisible
// to them. Bindings are kept in insertion order, and a namespace may inherit the
// bindings of a parent without owning them.
package namespace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrNoSuchName       = errors.New("no such name")
	ErrNotFunction      = errors.New("binding is not a function")
	ErrNotConstructible = errors.New("binding has no allocator")
)

type binding struct {
	value  any
	fn     Func
	handle Handle
	alloc  func() any
	source string
}

func (b *binding) isFunc() bool {
	return b.fn != nil
}

// Namespace is safe for concurrent use. Functions are invoked outside of its lock,
// so a function may call back into the namespace it lives in.
type Namespace struct {
	name     string
	parent   *Namespace
	mu       sync.RWMutex
	bindings *orderedmap.OrderedMap[string, *binding]
}

func New(name string) *Namespace {
	return &Namespace{
		name:     name,
		bindings: orderedmap.New[string, *binding](),
	}
}

// NewChild returns a namespace whose lookups fall back to parent.
// The parent's bindings are inherited, not owned.
func NewChild(name string, parent *Namespace) *Namespace {
	ns := New(name)
	ns.parent = parent
	return ns
}

func (ns *Namespace) Name() string {
	return ns.name
}

func (ns *Namespace) Parent() *Namespace {
	return ns.parent
}

// Set binds a plain value. A Callable value is registered as a function instead.
func (ns *Namespace) Set(name string, value any) {
	if c, ok := value.(Callable); ok {
		ns.Register(name, c)
		return
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.bindings.Set(name, &binding{value: value})
}

// Register binds fn under name and returns its handle.
func (ns *Namespace) Register(name string, fn Callable) Handle {
	f, source := fn.callable()
	return ns.bind(name, &binding{fn: f, source: source, handle: NewHandle()})
}

// RegisterConstructor binds a function that can also be invoked through Construct.
func (ns *Namespace) RegisterConstructor(name string, c Constructor) Handle {
	source := c.Source
	if source == "" {
		source = SymbolOf(c.Fn)
	}
	return ns.bind(name, &binding{fn: c.Fn, alloc: c.Alloc, source: source, handle: NewHandle()})
}

func (ns *Namespace) bind(name string, b *binding) Handle {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.bindings.Set(name, b)
	return b.handle
}

// Replace swaps the own function binding under name for fn, keeping its
// allocator and source.
func (ns *Namespace) Replace(name string, fn Func) (Handle, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	b, ok := ns.bindings.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrNoSuchName, name, ns.name)
	}
	if !b.isFunc() {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFunction, name, ns.name)
	}
	next := &binding{fn: fn, alloc: b.alloc, source: b.source, handle: NewHandle()}
	ns.bindings.Set(name, next)
	return next.handle, nil
}

// Own returns the function bound directly in this namespace.
func (ns *Namespace) Own(name string) (Func, Handle, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	b, ok := ns.bindings.Get(name)
	if !ok || !b.isFunc() {
		return nil, "", false
	}
	return b.fn, b.handle, true
}

// Lookup returns the function bound under name, here or in an ancestor.
func (ns *Namespace) Lookup(name string) (Func, Handle, bool) {
	b, ok := ns.resolve(name)
	if !ok || !b.isFunc() {
		return nil, "", false
	}
	return b.fn, b.handle, true
}

// SourceOf names the Go function first bound under name, here or in an ancestor.
func (ns *Namespace) SourceOf(name string) (string, bool) {
	b, ok := ns.resolve(name)
	if !ok || !b.isFunc() {
		return "", false
	}
	return b.source, true
}

// Value returns the plain value bound under name, here or in an ancestor.
func (ns *Namespace) Value(name string) (any, bool) {
	b, ok := ns.resolve(name)
	if !ok || b.isFunc() {
		return nil, false
	}
	return b.value, true
}

// Allocator returns the receiver allocator of a constructor binding.
func (ns *Namespace) Allocator(name string) (func() any, bool) {
	b, ok := ns.resolve(name)
	if !ok || b.alloc == nil {
		return nil, false
	}
	return b.alloc, true
}

// Names lists own binding names in insertion order.
func (ns *Namespace) Names() []string {
	return ns.collect(func(*binding) bool { return true })
}

// Functions lists own function binding names in insertion order.
func (ns *Namespace) Functions() []string {
	return ns.collect((*binding).isFunc)
}

func (ns *Namespace) collect(keep func(*binding) bool) []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	names := make([]string, 0, ns.bindings.Len())
	for pair := ns.bindings.Oldest(); pair != nil; pair = pair.Next() {
		if keep(pair.Value) {
			names = append(names, pair.Key)
		}
	}
	return names
}

func (ns *Namespace) resolve(name string) (*binding, bool) {
	ns.mu.RLock()
	b, ok := ns.bindings.Get(name)
	ns.mu.RUnlock()
	if ok {
		return b, true
	}
	if ns.parent != nil {
		return ns.parent.resolve(name)
	}
	return nil, false
}

func (ns *Namespace) function(name string) (*binding, error) {
	b, ok := ns.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoSuchName, name, ns.name)
	}
	if !b.isFunc() {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFunction, name, ns.name)
	}
	return b, nil
}

// Call invokes name without a receiver.
func (ns *Namespace) Call(ctx context.Context, name string, args ...any) (any, error) {
	return ns.CallWith(ctx, nil, name, args...)
}

// CallWith invokes name with this as its receiver.
func (ns *Namespace) CallWith(ctx context.Context, this any, name string, args ...any) (any, error) {
	b, err := ns.function(name)
	if err != nil {
		return nil, err
	}
	return b.fn(ctx, Invocation{This: this, Args: args})
}

// Construct invokes name in a constructing context on a freshly allocated receiver.
// It returns the function's result when non-nil, otherwise the receiver.
func (ns *Namespace) Construct(ctx context.Context, name string, args ...any) (any, error) {
	b, err := ns.function(name)
	if err != nil {
		return nil, err
	}
	if b.alloc == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotConstructible, name, ns.name)
	}
	return ConstructWith(ctx, b.alloc, b.fn, args)
}

// ConstructWith runs fn as a constructor over a receiver obtained from alloc.
func ConstructWith(ctx context.Context, alloc func() any, fn Func, args []any) (any, error) {
	this := alloc()
	res, err := fn(ctx, Invocation{This: this, Constructing: true, Args: args})
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return this, nil
}
