package di

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kbukum/depkit/logger"
)

// OverrideToken undoes one override. Cancelling restores the value the key
// held before the override was installed; later calls do nothing. A token
// that becomes unreachable without being cancelled is cancelled by the
// garbage collector.
type OverrideToken struct {
	state   *overrideState
	cleanup runtime.Cleanup
}

// overrideState must not reference its token, or the token would never be
// collected.
type overrideState struct {
	once     sync.Once
	done     atomic.Bool
	registry *Registry
	key      string
	id       uuid.UUID
}

func newOverrideToken(r *Registry, key string, id uuid.UUID) *OverrideToken {
	st := &overrideState{registry: r, key: key, id: id}
	tok := &OverrideToken{state: st}
	tok.cleanup = runtime.AddCleanup(tok, func(st *overrideState) {
		go st.release()
	}, st)
	return tok
}

func (s *overrideState) release() {
	s.once.Do(func() {
		s.done.Store(true)
		s.registry.restore(s.key, s.id)
	})
}

// Cancel removes the override. It is safe to call more than once and from
// multiple goroutines.
func (t *OverrideToken) Cancel() {
	t.cleanup.Stop()
	t.state.release()
}

// Active reports whether the token has not been cancelled yet.
func (t *OverrideToken) Active() bool {
	return !t.state.done.Load()
}

// ID identifies the override.
func (t *OverrideToken) ID() uuid.UUID {
	return t.state.id
}

// Key returns the storage key the override applies to.
func (t *OverrideToken) Key() string {
	return t.state.key
}

// Override installs value on top of the dependency for the scope, creating
// the dependency with factory first if needed. The override stays until the
// returned token is cancelled or collected.
//
// Overrides nest: cancelling the newest one restores the one beneath it, and
// cancelling an older one out of order drops it without disturbing the
// current value.
func Override[V any](r *Registry, s Scope, factory func() V, value V) *OverrideToken {
	key := s.Key()
	id := uuid.New()
	dep := Dependency[V]{Value: value, Scope: s}
	var t *Registry
	var depth int
	for t == nil {
		Get(r, s, factory)
		var found bool
		w := r.write(func(w *Registry) {
			sl, ok := w.slotLocked(key)
			if !ok {
				return
			}
			found = true
			as[V](w, key, sl.current())
			next := sl.withLayer(id, dep)
			w.store.Set(key, next)
			depth = len(next.layers)
			w.events.enqueue(Event{Kind: Overridden, Key: key, Depth: depth})
		})
		// Retry when the key was removed between resolution and install.
		if found {
			t = w
		}
	}
	t.metrics.OverridesChanged(context.Background(), 1)
	t.debug("dependency overridden", logger.Fields(
		logger.FieldKey, key,
		logger.FieldOverride, id.String(),
		logger.FieldDepth, depth,
	))
	return newOverrideToken(t, key, id)
}

// WithOverride runs fn with value installed over the scope's dependency and
// cancels the override when fn returns or panics.
func WithOverride[V any](r *Registry, s Scope, factory func() V, value V, fn func()) {
	tok := Override(r, s, factory, value)
	defer tok.Cancel()
	fn()
}
