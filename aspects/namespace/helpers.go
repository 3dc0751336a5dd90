package namespace

import (
	"context"

	"github.com/on-the-ground/aspect_ive_go/shared/helper"
)

// CallAs calls name and asserts its result to T.
func CallAs[T any](ctx context.Context, ns *Namespace, name string, args ...any) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return ns.Call(ctx, name, args...)
	})
}

// ConstructAs constructs name and asserts the constructed value to T.
func ConstructAs[T any](ctx context.Context, ns *Namespace, name string, args ...any) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return ns.Construct(ctx, name, args...)
	})
}

// ValueAs returns the plain value under name asserted to T.
func ValueAs[T any](ns *Namespace, name string) (T, bool) {
	return helper.GetTypedValueOf2[T](func() (any, bool) {
		return ns.Value(name)
	})
}
