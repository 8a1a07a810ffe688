package di

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/observability"
)

// Host is anything that owns a registry. Application types embed *Registry
// to extend it and become the shared registry with PromoteTo.
type Host interface {
	Base() *Registry
}

// Base implements Host.
func (r *Registry) Base() *Registry {
	return r
}

type sharedHost struct {
	host Host
}

var (
	sharedMu sync.Mutex
	shared   atomic.Pointer[sharedHost]
)

// SharedHost returns the process-wide host, creating a plain registry on
// first use.
func SharedHost() Host {
	if h := shared.Load(); h != nil {
		return h.host
	}
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if h := shared.Load(); h != nil {
		return h.host
	}
	r := New(WithName("shared"))
	shared.Store(&sharedHost{host: r})
	return r
}

// Shared returns the process-wide registry.
func Shared() *Registry {
	return SharedHost().Base()
}

// SharedAs returns the shared host as H, reporting false when the shared
// host has not been promoted to H.
func SharedAs[H Host]() (H, bool) {
	h, ok := SharedHost().(H)
	return h, ok
}

// PromoteTo makes the registry built by build the shared one. build receives
// a fresh registry created with opts; the entries of the current shared
// registry are moved into it, including installed overrides, and observers
// of the old registry are dropped.
//
//	type AppRegistry struct{ *di.Registry }
//	app := di.PromoteTo(func(r *di.Registry) *AppRegistry { return &AppRegistry{r} })
func PromoteTo[H Host](build func(*Registry) H, opts ...Option) H {
	host := build(New(opts...))
	Promote(host)
	return host
}

// Promote makes next the shared host, migrating every entry of the current
// shared registry into next's registry. Existing entries of next with the
// same key are replaced. It returns the number of entries moved.
//
// A host whose registry was itself promoted away only forwards to its
// successor and cannot be promoted again; Promote panics with an
// INVALID_INPUT *errors.AppError.
func Promote(next Host) int {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	to := next.Base()
	if to.successor.Load() != nil {
		to.fail(errors.InvalidInput("host", "registry "+to.name+" was already promoted away"))
	}

	var moved int
	if cur := shared.Load(); cur != nil {
		from := cur.host.Base().latest()
		if from != to {
			moved = from.migrateTo(to)
		}
	}
	shared.Store(&sharedHost{host: next})
	return moved
}

// ReplaceShared swaps the shared host without migrating anything and
// returns the previous one. Passing nil makes the next Shared call create a
// fresh registry.
func ReplaceShared(next Host) Host {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	var prev Host
	if cur := shared.Load(); cur != nil {
		prev = cur.host
	}
	if next == nil {
		shared.Store(nil)
	} else {
		shared.Store(&sharedHost{host: next})
	}
	return prev
}

// migrateTo moves every entry of r into next and forwards r to next.
func (r *Registry) migrateTo(next *Registry) int {
	ctx, span := next.tracer.Start(context.Background(), observability.SpanPromote)
	defer span.End()

	dropped := r.events.reset()

	var moved, overrides int
	r.mu.Lock()
	next.mu.Lock()
	for key, v := range maps.Collect(r.store.All()) {
		next.store.Set(key, v)
		r.store.Remove(key)
		if sl, ok := v.(*slot); ok {
			overrides += len(sl.layers)
		}
		next.events.enqueue(Event{Kind: Migrated, Key: key})
		moved++
	}
	r.successor.Store(next)
	next.mu.Unlock()
	r.mu.Unlock()
	next.events.drain()

	span.SetAttributes(attribute.Int(observability.AttrMigrated, moved))
	r.metrics.OverridesChanged(ctx, -overrides)
	next.metrics.OverridesChanged(ctx, overrides)
	next.metrics.RecordPromotion(ctx, moved)
	next.info("registry promoted", logger.Fields(
		logger.FieldCount, moved,
		"from", r.name,
		"observers_dropped", dropped,
	))
	return moved
}
