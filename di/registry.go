package di

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/kbukum/depkit/cache"
	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/observability"
)

// Registry caches dependencies by scope key.
//
// All reads and writes of the store happen under one mutex, which is never
// held while a factory or an observer runs; factories may therefore resolve
// other dependencies. A factory must not resolve its own key.
//
// Once a registry has been promoted away, every operation on it is
// forwarded to the registry that replaced it.
type Registry struct {
	name      string
	mu        sync.Mutex
	store     cache.Store
	flight    singleflight.Group
	logging   atomic.Bool
	log       Logger
	metrics   *observability.RegistryMetrics
	tracer    trace.Tracer
	events    *notifier
	successor atomic.Pointer[Registry]
}

// EntryInfo describes a cached dependency for introspection.
type EntryInfo struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Overrides int    `json:"overrides"`
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	o := resolveOptions(opts)
	r := &Registry{
		name:   o.name,
		store:  o.store,
		log:    o.logger,
		tracer: o.tracer,
	}
	r.logging.Store(o.logging)
	r.events = newNotifier(r.observerPanicked)

	metrics, err := observability.NewRegistryMetrics(o.meter)
	if err != nil {
		r.report(levelError, "registry metrics unavailable", logger.ErrorFields("metrics", err))
		metrics, _ = observability.NewRegistryMetrics(noop.NewMeterProvider().Meter(observability.InstrumentationName))
	}
	r.metrics = metrics
	return r
}

// Name returns the registry name used in log output.
func (r *Registry) Name() string {
	return r.latest().name
}

// SetLoggingEnabled toggles debug events. It has no effect on behaviour.
func (r *Registry) SetLoggingEnabled(enabled bool) {
	r.latest().logging.Store(enabled)
}

// LoggingEnabled reports whether debug events are emitted.
func (r *Registry) LoggingEnabled() bool {
	return r.latest().logging.Load()
}

// Subscribe registers fn to be called after every committed change.
// Subscriptions live as long as the registry; promotion drops them.
func (r *Registry) Subscribe(fn func(Event)) Subscription {
	return r.latest().events.subscribe(fn)
}

// Observers returns the number of active subscriptions.
func (r *Registry) Observers() int {
	return r.latest().events.count()
}

// Contains reports whether a dependency is cached for the scope.
func (r *Registry) Contains(s Scope) bool {
	key := r.keyOf(s)
	var ok bool
	r.read(func(t *Registry) {
		_, ok = t.store.Get(key)
	})
	return ok
}

// Remove evicts the dependency cached for the scope, together with any
// overrides installed on it. Tokens of those overrides become no-ops. The
// next resolution runs the factory again.
func (r *Registry) Remove(s Scope) bool {
	key := r.keyOf(s)
	var removed bool
	var layers int
	t := r.write(func(t *Registry) {
		v, ok := t.store.Get(key)
		if !ok {
			return
		}
		if sl, isSlot := v.(*slot); isSlot {
			layers = len(sl.layers)
		}
		t.store.Remove(key)
		removed = true
		t.events.enqueue(Event{Kind: Removed, Key: key})
	})
	if removed {
		t.metrics.OverridesChanged(context.Background(), -layers)
		t.debug("dependency removed", logger.Fields(logger.FieldKey, key, logger.FieldDepth, layers))
	}
	return removed
}

// Len returns the number of cached dependencies.
func (r *Registry) Len() int {
	var n int
	r.read(func(t *Registry) {
		n = t.store.Len()
	})
	return n
}

// Entries lists the cached dependencies sorted by key.
func (r *Registry) Entries() []EntryInfo {
	var out []EntryInfo
	r.read(func(t *Registry) {
		for key, v := range t.store.All() {
			if sl, ok := v.(*slot); ok {
				out = append(out, sl.info(key))
			}
		}
	})
	slices.SortFunc(out, func(a, b EntryInfo) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Entry describes the dependency cached under key.
func (r *Registry) Entry(key string) (EntryInfo, bool) {
	var info EntryInfo
	var ok bool
	r.read(func(t *Registry) {
		v, found := t.store.Get(key)
		if !found {
			return
		}
		var sl *slot
		if sl, ok = v.(*slot); ok {
			info = sl.info(key)
		}
	})
	return info, ok
}

func (s *slot) info(key string) EntryInfo {
	return EntryInfo{
		Key:       key,
		Name:      s.scope.Name,
		ID:        s.scope.ID,
		Type:      s.typeName,
		Overrides: len(s.layers),
	}
}

// --- locking ---

// latest follows the promotion chain to the registry currently in charge.
func (r *Registry) latest() *Registry {
	for {
		next := r.successor.Load()
		if next == nil {
			return r
		}
		r = next
	}
}

// lockLatest locks the newest registry in r's promotion chain. Promotion
// sets the successor while holding the old registry's lock, so a registry
// found without a successor under its own lock has not been migrated yet and
// anything written to it now will be carried along.
func (r *Registry) lockLatest() *Registry {
	for {
		r = r.latest()
		r.mu.Lock()
		if r.successor.Load() == nil {
			return r
		}
		r.mu.Unlock()
	}
}

func (r *Registry) read(fn func(t *Registry)) {
	t := r.lockLatest()
	defer t.mu.Unlock()
	fn(t)
}

// write runs fn under the lock and then delivers the events it queued.
func (r *Registry) write(fn func(t *Registry)) *Registry {
	t := r.lockLatest()
	func() {
		defer t.mu.Unlock()
		fn(t)
	}()
	t.events.drain()
	return t
}

// slotLocked returns the slot stored under key. The caller holds r.mu.
func (r *Registry) slotLocked(key string) (*slot, bool) {
	v, ok := r.store.Get(key)
	if !ok {
		return nil, false
	}
	sl, ok := v.(*slot)
	if !ok {
		r.fail(errors.TypeMismatch(key, "dependency slot", fmt.Sprintf("%T", v)))
	}
	return sl, true
}

// current returns the dependency callers see for key.
func (r *Registry) current(key string) (dep any, ok bool) {
	r.read(func(t *Registry) {
		var sl *slot
		if sl, ok = t.slotLocked(key); ok {
			dep = sl.current()
		}
	})
	return dep, ok
}

// storeIfAbsent stores sl under key unless another writer got there first,
// and returns whichever dependency is current afterwards.
func (r *Registry) storeIfAbsent(key string, sl *slot) any {
	var dep any
	r.write(func(t *Registry) {
		if existing, ok := t.slotLocked(key); ok {
			dep = existing.current()
			return
		}
		t.store.Set(key, sl)
		dep = sl.current()
		t.events.enqueue(Event{Kind: Created, Key: key})
	})
	return dep
}

// restore removes the override layer id from key. It never panics: it runs
// from Cancel and from garbage-collection cleanups.
func (r *Registry) restore(key string, id uuid.UUID) bool {
	var found, top bool
	var depth int
	t := r.write(func(t *Registry) {
		v, ok := t.store.Get(key)
		if !ok {
			return
		}
		sl, ok := v.(*slot)
		if !ok {
			return
		}
		var next *slot
		next, found, top = sl.withoutLayer(id)
		if !found {
			return
		}
		t.store.Set(key, next)
		depth = len(next.layers)
		if top {
			t.events.enqueue(Event{Kind: Restored, Key: key, Depth: depth})
		}
	})
	if !found {
		return false
	}
	t.metrics.OverridesChanged(context.Background(), -1)
	t.debug("override cancelled", logger.Fields(
		logger.FieldKey, key,
		logger.FieldOverride, id.String(),
		logger.FieldDepth, depth,
	))
	return true
}

// --- reporting ---

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

func (r *Registry) keyOf(s Scope) string {
	if err := s.Validate(); err != nil {
		appErr, _ := errors.AsAppError(err)
		r.fail(appErr)
	}
	return s.Key()
}

// fail logs a programmer error and panics with it.
func (r *Registry) fail(err *errors.AppError) {
	r.report(levelError, err.Message, logger.Fields(
		"code", string(err.Code),
		logger.FieldError, err.Error(),
	))
	panic(err)
}

func (r *Registry) debug(msg string, fields map[string]interface{}) {
	if r.logging.Load() {
		r.report(levelDebug, msg, fields)
	}
}

func (r *Registry) info(msg string, fields map[string]interface{}) {
	if r.logging.Load() {
		r.report(levelInfo, msg, fields)
	}
}

// report hands a message to the log sink. A misbehaving sink cannot break
// the registry.
func (r *Registry) report(lvl level, msg string, fields map[string]interface{}) {
	defer func() { _ = recover() }()
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields[logger.FieldRegistry] = r.name
	switch lvl {
	case levelDebug:
		r.log.Debug(msg, fields)
	case levelInfo:
		r.log.Info(msg, fields)
	default:
		r.log.Error(msg, fields)
	}
}

func (r *Registry) observerPanicked(ev Event, rec any) {
	r.report(levelError, "observer panicked", logger.Fields(
		logger.FieldKey, ev.Key,
		logger.FieldEventKind, ev.Kind.String(),
		logger.FieldError, fmt.Sprint(rec),
	))
}
