package aspects

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/on-the-ground/aspect_ive_go/aspects/cachestore"
	"github.com/on-the-ground/aspect_ive_go/aspects/log"
	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
	"github.com/on-the-ground/aspect_ive_go/aspects/scheduler"
	"github.com/on-the-ground/aspect_ive_go/shared/helper"
	"go.uber.org/zap"
)

var ErrNoEngine = errors.New("no aspect engine in context")

type engineKey struct{}

// Engine owns the decoration state: the global namespace, the metadata side
// table, the per-function cache stores and singleton slots, and the scheduler
// running deferred calls.
type Engine struct {
	Id string

	cfg      Config
	logger   *zap.Logger
	global   *namespace.Namespace
	table    *metadataTable
	sched    scheduler.Scheduler
	newStore func() (cachestore.Store, error)

	mu         sync.Mutex
	caches     map[namespace.Handle]cachestore.Store
	singletons map[namespace.Handle]*singletonSlot
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithScheduler replaces the scheduler chosen by Config.DeferredMode.
// The engine closes it on teardown.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithGlobal sets the namespace used when Decorate is given none.
func WithGlobal(ns *namespace.Namespace) Option {
	return func(e *Engine) { e.global = ns }
}

// WithCacheStoreFactory replaces the store created for every cached function.
func WithCacheStoreFactory(newStore func() (cachestore.Store, error)) Option {
	return func(e *Engine) { e.newStore = newStore }
}

// NewEngine builds an engine. ctx is handed to the queue scheduler's tasks.
func NewEngine(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.normalize()
	e := &Engine{
		Id:         uuid.NewString(),
		cfg:        cfg,
		caches:     make(map[namespace.Handle]cachestore.Store),
		singletons: make(map[namespace.Handle]*singletonSlot),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		logger, err := log.New(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		e.logger = logger
	}
	if e.global == nil {
		e.global = namespace.New("global")
	}
	if e.newStore == nil {
		e.newStore = defaultStoreFactory(cfg)
	}
	if e.sched == nil {
		switch cfg.DeferredMode {
		case DeferredQueue:
			e.sched = scheduler.NewQueue(context.WithoutCancel(ctx), cfg.QueueBufferSize, e.logger)
		default:
			e.sched = scheduler.NewLoop(e.logger)
		}
	}

	table, err := newMetadataTable()
	if err != nil {
		return nil, err
	}
	e.table = table
	return e, nil
}

func defaultStoreFactory(cfg Config) func() (cachestore.Store, error) {
	if cfg.CacheMaxCost > 0 {
		return func() (cachestore.Store, error) {
			return cachestore.NewRistrettoStore(cfg.CacheMaxCost)
		}
	}
	return func() (cachestore.Store, error) {
		return cachestore.NewInMemoryStore(cfg.CacheShards)
	}
}

// WithEngine binds a new engine to ctx.
//
//   - Returns a context carrying the engine.
//   - Returns a teardown function that runs pending deferred calls, closes the
//     engine and returns the parent context.
//   - Panics if the engine cannot be built.
func WithEngine(ctx context.Context, cfg Config, opts ...Option) (context.Context, func() context.Context) {
	e, err := NewEngine(ctx, cfg, opts...)
	if err != nil {
		panic(fmt.Errorf("create aspect engine: %w", err))
	}
	ctxWith := context.WithValue(ctx, engineKey{}, e)
	e.logger.Debug("created aspect engine", zap.String("engine", e.Id))

	return ctxWith, func() context.Context {
		if err := e.Close(); err != nil {
			e.logger.Warn("failed to close aspect engine", zap.String("engine", e.Id), zap.Error(err))
		}
		return ctx
	}
}

func lookupEngine(ctx context.Context) (any, error) {
	raw := ctx.Value(engineKey{})
	if raw == nil {
		return nil, ErrNoEngine
	}
	return raw, nil
}

func EngineFrom(ctx context.Context) (*Engine, error) {
	return helper.GetTypedValueOf[*Engine](func() (any, error) {
		return lookupEngine(ctx)
	})
}

// MustEngineFrom panics with ErrNoEngine when ctx carries no engine.
func MustEngineFrom(ctx context.Context) *Engine {
	return helper.MustGetTypedValue[*Engine](func() (any, error) {
		return lookupEngine(ctx)
	})
}

// Global returns the namespace Decorate scans when it is given none.
func Global(ctx context.Context) *namespace.Namespace {
	return MustEngineFrom(ctx).Global()
}

func (e *Engine) Global() *namespace.Namespace {
	return e.global
}

func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

func (e *Engine) Scheduler() scheduler.Scheduler {
	return e.sched
}

func (e *Engine) Config() Config {
	return e.cfg
}

// RunPending runs the deferred calls waiting on a cooperative scheduler. Other
// schedulers run them on their own and RunPending returns nil.
func (e *Engine) RunPending(ctx context.Context) error {
	coop, ok := e.sched.(scheduler.Cooperative)
	if !ok {
		return nil
	}
	return coop.RunPending(ctx)
}

// RunPending pumps the scheduler of the engine bound to ctx.
func RunPending(ctx context.Context) error {
	return MustEngineFrom(ctx).RunPending(ctx)
}

// Close runs every pending deferred call, then releases the cache stores.
func (e *Engine) Close() error {
	err := e.sched.Close()

	e.mu.Lock()
	for _, store := range e.caches {
		store.Close()
	}
	clear(e.caches)
	e.mu.Unlock()

	e.logger.Debug("closed aspect engine", zap.String("engine", e.Id))
	log.Sync(e.logger)
	return err
}

// cacheStore returns the store shared by every cached layer around original.
func (e *Engine) cacheStore(original namespace.Handle) (cachestore.Store, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if store, ok := e.caches[original]; ok {
		return store, nil
	}
	store, err := e.newStore()
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	e.caches[original] = store
	return store, nil
}

// singletonSlot returns the slot owned by the function value predecessor.
func (e *Engine) singletonSlot(predecessor namespace.Handle) *singletonSlot {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.singletons[predecessor]
	if !ok {
		slot = &singletonSlot{}
		e.singletons[predecessor] = slot
	}
	return slot
}
