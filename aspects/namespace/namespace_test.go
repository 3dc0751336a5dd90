package namespace_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

func newPointCtor() namespace.Constructor {
	return namespace.Ctor(func(this *point, args []any) error {
		this.X = args[0].(int)
		this.Y = args[1].(int)
		return nil
	})
}

func TestNamespace_RegisterAndCall(t *testing.T) {
	ctx := context.Background()
	ns := namespace.New("lib")
	ns.Register("add", namespace.FuncI2O1(func(a, b int) int { return a + b }))

	v, err := namespace.CallAs[int](ctx, ns, "add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestNamespace_CallErrors(t *testing.T) {
	ctx := context.Background()
	ns := namespace.New("lib")
	ns.Set("bar", 10)

	_, err := ns.Call(ctx, "missing")
	assert.ErrorIs(t, err, namespace.ErrNoSuchName)

	_, err = ns.Call(ctx, "bar")
	assert.ErrorIs(t, err, namespace.ErrNotFunction)

	ns.Register("inc", namespace.FuncI1O1(func(i int) int { return i + 1 }))
	_, err = ns.Call(ctx, "inc")
	assert.ErrorIs(t, err, namespace.ErrArity)

	_, err = ns.Call(ctx, "inc", "one")
	assert.ErrorIs(t, err, namespace.ErrArgType)
}

func TestNamespace_InsertionOrderAndKinds(t *testing.T) {
	ns := namespace.New("global")
	ns.Register("foo", namespace.FuncI0O1(func() string { return "foo" }))
	ns.Set("bar", 10)
	ns.Register("baz", namespace.FuncI0O1(func() string { return "baz" }))

	assert.Equal(t, []string{"foo", "bar", "baz"}, ns.Names())
	assert.Equal(t, []string{"foo", "baz"}, ns.Functions())

	v, ok := namespace.ValueAs[int](ns, "bar")
	assert.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestNamespace_ReplaceKeepsCallersUnaware(t *testing.T) {
	ctx := context.Background()
	ns := namespace.New("lib")
	before := ns.Register("greet", namespace.FuncI1O1(func(s string) string { return "hi " + s }))

	_, _, ok := ns.Own("greet")
	require.True(t, ok)

	after, err := ns.Replace("greet", func(ctx context.Context, inv namespace.Invocation) (any, error) {
		return "hello " + inv.Args[0].(string), nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	v, err := namespace.CallAs[string](ctx, ns, "greet", "bob")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", v)

	_, err = ns.Replace("nope", nil)
	assert.ErrorIs(t, err, namespace.ErrNoSuchName)

	ns.Set("bar", 1)
	_, err = ns.Replace("bar", nil)
	assert.ErrorIs(t, err, namespace.ErrNotFunction)
}

func TestNamespace_Construct(t *testing.T) {
	ctx := context.Background()
	ns := namespace.New("lib")
	ns.RegisterConstructor("Point", newPointCtor())

	p, err := namespace.ConstructAs[*point](ctx, ns, "Point", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, &point{X: 1, Y: 2}, p)

	ns.Register("plain", namespace.FuncI0O1(func() int { return 1 }))
	_, err = ns.Construct(ctx, "plain")
	assert.ErrorIs(t, err, namespace.ErrNotConstructible)

	// a plain call carries no receiver
	_, err = ns.Call(ctx, "Point", 1, 2)
	assert.ErrorIs(t, err, namespace.ErrArgType)
}

func TestNamespace_ConstructReturnsExplicitResult(t *testing.T) {
	ctx := context.Background()
	shared := &point{X: 9}
	ns := namespace.New("lib")
	ns.RegisterConstructor("Shared", namespace.Constructor{
		Alloc: func() any { return &point{} },
		Fn: func(context.Context, namespace.Invocation) (any, error) {
			return shared, nil
		},
	})

	v, err := ns.Construct(ctx, "Shared")
	require.NoError(t, err)
	assert.Same(t, shared, v)
}

func TestNamespace_ChildInheritsButDoesNotOwn(t *testing.T) {
	ctx := context.Background()
	parent := namespace.New("parent")
	parent.Register("up", namespace.FuncI0O1(func() string { return "from parent" }))
	child := namespace.NewChild("child", parent)
	child.Register("own", namespace.FuncI0O1(func() string { return "own" }))

	v, err := namespace.CallAs[string](ctx, child, "up")
	require.NoError(t, err)
	assert.Equal(t, "from parent", v)

	_, _, ok := child.Own("up")
	assert.False(t, ok)
	_, _, ok = child.Lookup("up")
	assert.True(t, ok)
	assert.Equal(t, []string{"own"}, child.Functions())
	assert.Same(t, parent, child.Parent())
}

func TestNamespace_ErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("boom")
	ns := namespace.New("lib")
	ns.Register("fail", namespace.FuncI1O1E(func(_ context.Context, s string) (string, error) {
		return "", boom
	}))

	_, err := ns.Call(context.Background(), "fail", "x")
	assert.Same(t, boom, err)
}

func TestFuncAdapters(t *testing.T) {
	ctx := context.Background()
	ns := namespace.New("lib")
	ns.Register("bar", namespace.FuncI3O1(func(a, b, c int) int { return a + b + c + 1 }))
	ns.Register("sum4", namespace.FuncI4O1(func(a, b, c, d int) int { return a + b + c + d }))

	v, err := namespace.CallAs[int](ctx, ns, "bar", 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = namespace.CallAs[int](ctx, ns, "sum4", 1, 2, 3, 4, 99)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func addInts(a, b int) int { return a + b }

func initPoint(this *point, args []any) error {
	this.X = args[0].(int)
	return nil
}

func rawEcho(_ context.Context, inv namespace.Invocation) (any, error) {
	return inv.Args, nil
}

func TestNamespace_SourceOfNamesUserFunction(t *testing.T) {
	parent := namespace.New("global")
	ns := namespace.NewChild("lib", parent)
	ns.Register("add", namespace.FuncI2O1(addInts))
	ns.Register("echo", namespace.Func(rawEcho))
	ns.RegisterConstructor("Point", namespace.Ctor(initPoint))
	parent.Register("up", namespace.FuncI2O1(addInts))
	ns.Set("bar", 1)

	for name, want := range map[string]string{
		"add":   "namespace_test.addInts",
		"echo":  "namespace_test.rawEcho",
		"Point": "namespace_test.initPoint",
		"up":    "namespace_test.addInts",
	} {
		got, ok := ns.SourceOf(name)
		require.True(t, ok, name)
		assert.True(t, strings.HasSuffix(got, want), got)
	}

	_, ok := ns.SourceOf("bar")
	assert.False(t, ok)
	_, ok = ns.SourceOf("missing")
	assert.False(t, ok)

	_, err := ns.Replace("add", func(context.Context, namespace.Invocation) (any, error) { return 0, nil })
	require.NoError(t, err)
	got, _ := ns.SourceOf("add")
	assert.True(t, strings.HasSuffix(got, "namespace_test.addInts"), got)
}
