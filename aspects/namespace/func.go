package namespace

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"

	"github.com/google/uuid"
	"github.com/on-the-ground/aspect_ive_go/shared/helper"
)

// Handle identifies one function value registered in a namespace.
// Every registration and every replacement yields a fresh handle.
type Handle string

// NewHandle returns a new unique handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// Invocation carries the receiver binding and positional arguments of a call.
type Invocation struct {
	// This is the receiver the call runs against; nil for plain calls.
	This any
	// Constructing reports whether the call runs in a constructing context.
	Constructing bool
	Args         []any
}

// Func is the calling convention of every function held by a namespace.
// A returned error plays the role of a raised exception and propagates unchanged.
type Func func(ctx context.Context, inv Invocation) (any, error)

var (
	ErrArity   = errors.New("not enough arguments")
	ErrArgType = errors.New("argument type mismatch")
)

// Callable is what Register accepts: a Func or an Adapted Go function.
type Callable interface {
	callable() (Func, string)
}

func (f Func) callable() (Func, string) {
	return f, SymbolOf(f)
}

// Adapted is a typed Go function converted to the Func convention.
// Source names the Go function, not the adapter.
type Adapted struct {
	Fn     Func
	Source string
}

func (a Adapted) callable() (Func, string) {
	return a.Fn, a.Source
}

func adapt(orig any, fn Func) Adapted {
	return Adapted{Fn: fn, Source: SymbolOf(orig)}
}

// SymbolOf returns the linker symbol of a function value, or "" for anything else.
func SymbolOf(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

// Constructor pairs a receiver allocator with the function initializing it.
type Constructor struct {
	Alloc func() any
	Fn    Func
	// Source defaults to the symbol of Fn.
	Source string
}

// Ctor builds a Constructor whose receivers are freshly allocated *T values.
func Ctor[T any](init func(this *T, args []any) error) Constructor {
	return Constructor{
		Source: SymbolOf(init),
		Alloc:  func() any { return new(T) },
		Fn: func(_ context.Context, inv Invocation) (any, error) {
			this, ok := inv.This.(*T)
			if !ok {
				return nil, fmt.Errorf("%w: receiver %T, want %T", ErrArgType, inv.This, new(T))
			}
			return nil, init(this, inv.Args)
		},
	}
}

func FuncI0O1[O1 any](fn func() O1) Adapted {
	return adapt(fn, func(_ context.Context, _ Invocation) (any, error) {
		return fn(), nil
	})
}

func FuncI1O1[I1, O1 any](fn func(I1) O1) Adapted {
	return adapt(fn, func(_ context.Context, inv Invocation) (any, error) {
		if err := checkArity(inv, 1); err != nil {
			return nil, err
		}
		i1, err := argAt[I1](inv, 0)
		if err != nil {
			return nil, err
		}
		return fn(i1), nil
	})
}

func FuncI2O1[I1, I2, O1 any](fn func(I1, I2) O1) Adapted {
	return adapt(fn, func(_ context.Context, inv Invocation) (any, error) {
		if err := checkArity(inv, 2); err != nil {
			return nil, err
		}
		i1, err := argAt[I1](inv, 0)
		if err != nil {
			return nil, err
		}
		i2, err := argAt[I2](inv, 1)
		if err != nil {
			return nil, err
		}
		return fn(i1, i2), nil
	})
}

func FuncI3O1[I1, I2, I3, O1 any](fn func(I1, I2, I3) O1) Adapted {
	return adapt(fn, func(_ context.Context, inv Invocation) (any, error) {
		if err := checkArity(inv, 3); err != nil {
			return nil, err
		}
		i1, err := argAt[I1](inv, 0)
		if err != nil {
			return nil, err
		}
		i2, err := argAt[I2](inv, 1)
		if err != nil {
			return nil, err
		}
		i3, err := argAt[I3](inv, 2)
		if err != nil {
			return nil, err
		}
		return fn(i1, i2, i3), nil
	})
}

func FuncI4O1[I1, I2, I3, I4, O1 any](fn func(I1, I2, I3, I4) O1) Adapted {
	return adapt(fn, func(_ context.Context, inv Invocation) (any, error) {
		if err := checkArity(inv, 4); err != nil {
			return nil, err
		}
		i1, err := argAt[I1](inv, 0)
		if err != nil {
			return nil, err
		}
		i2, err := argAt[I2](inv, 1)
		if err != nil {
			return nil, err
		}
		i3, err := argAt[I3](inv, 2)
		if err != nil {
			return nil, err
		}
		i4, err := argAt[I4](inv, 3)
		if err != nil {
			return nil, err
		}
		return fn(i1, i2, i3, i4), nil
	})
}

// FuncI1O1E adapts a single-argument function that can fail.
func FuncI1O1E[I1, O1 any](fn func(context.Context, I1) (O1, error)) Adapted {
	return adapt(fn, func(ctx context.Context, inv Invocation) (any, error) {
		if err := checkArity(inv, 1); err != nil {
			return nil, err
		}
		i1, err := argAt[I1](inv, 0)
		if err != nil {
			return nil, err
		}
		return fn(ctx, i1)
	})
}

// Extra arguments are ignored, missing ones are not.
func checkArity(inv Invocation, n int) error {
	if len(inv.Args) < n {
		return fmt.Errorf("%w: got %d, want %d", ErrArity, len(inv.Args), n)
	}
	return nil
}

func argAt[T any](inv Invocation, idx int) (T, error) {
	v, err := helper.GetTypedValueOf[T](func() (any, error) {
		return inv.Args[idx], nil
	})
	if err != nil {
		return v, fmt.Errorf("%w: argument %d: %w", ErrArgType, idx, err)
	}
	return v, nil
}
