package aspects

import (
	"context"

	"github.com/on-the-ground/aspect_ive_go/aspects/log"
	"go.uber.org/zap"
)

// LogCalls logs every observed call at level. It never denies a call.
func LogCalls(logger *zap.Logger, level log.LogLevel) Callback {
	return Observe(func(_ context.Context, ev Event) {
		log.Emit(logger, level, "function called", map[string]any{
			"name":      ev.Name,
			"aspect":    string(ev.Kind),
			"args":      ev.Args,
			"result":    ev.Result,
			"namespace": namespaceName(ev),
		})
	})
}

// LogTimings logs how long each observed call ran.
func LogTimings(logger *zap.Logger, level log.LogLevel) Callback {
	return Observe(func(_ context.Context, ev Event) {
		log.Emit(logger, level, "function timed", map[string]any{
			"name":      ev.Name,
			"args":      ev.Args,
			"elapsed":   ev.Elapsed,
			"started":   ev.Span.Start(),
			"namespace": namespaceName(ev),
		})
	})
}

// LogCacheLookups logs whether each result was served from or stored to cache.
func LogCacheLookups(logger *zap.Logger, level log.LogLevel) Callback {
	return Observe(func(_ context.Context, ev Event) {
		msg := "result stored to cache"
		if ev.FromCache {
			msg = "result served from cache"
		}
		log.Emit(logger, level, msg, map[string]any{
			"name":      ev.Name,
			"args":      ev.Args,
			"result":    ev.Result,
			"namespace": namespaceName(ev),
		})
	})
}

func namespaceName(ev Event) string {
	if ev.Namespace == nil {
		return ""
	}
	return ev.Namespace.Name()
}
