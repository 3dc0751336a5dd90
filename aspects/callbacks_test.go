package aspects_test

import (
	"testing"

	"github.com/on-the-ground/aspect_ive_go/aspects"
	"github.com/on-the-ground/aspect_ive_go/aspects/log"
	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogCalls(t *testing.T) {
	ctx, _, _ := newTestEngine(t)
	core, logs := observer.New(zap.DebugLevel)
	ns := namespace.New("lib")
	ns.Register("foo", namespace.FuncI2O1(foo))

	require.NoError(t, aspects.Logged(ctx, "foo", aspects.LogCalls(zap.New(core), log.LogInfo), ns))
	_, err := ns.Call(ctx, "foo", "beautiful", "world")
	require.NoError(t, err)

	entries := logs.FilterMessage("function called").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "foo", fields["name"])
	assert.Equal(t, "logged", fields["aspect"])
	assert.Equal(t, "hello beautiful world", fields["result"])
	assert.Equal(t, "lib", fields["namespace"])
}

func TestLogCacheLookupsAndTimings(t *testing.T) {
	ctx, _, _ := newTestEngine(t)
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	ns := namespace.New("lib")
	var checks int
	ns.Register("isPrime", namespace.FuncI1O1(isPrimeCounting(&checks)))

	require.NoError(t, aspects.Decorate(ctx, "isPrime", []aspects.Spec{
		{Kind: aspects.KindCached, Callback: aspects.LogCacheLookups(logger, log.LogDebug)},
		{Kind: aspects.KindPerformanceLogged, Callback: aspects.LogTimings(logger, log.LogWarn)},
	}, ns))

	for i := 0; i < 2; i++ {
		_, err := ns.Call(ctx, "isPrime", 173)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, logs.FilterMessage("result stored to cache").Len())
	assert.Equal(t, 1, logs.FilterMessage("result served from cache").Len())

	timed := logs.FilterMessage("function timed").All()
	require.Len(t, timed, 2)
	assert.Equal(t, zap.WarnLevel, timed[0].Level)
	assert.Contains(t, timed[0].ContextMap(), "elapsed")
}
