package di

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/observability"
)

// Get returns the dependency stored for the scope, running factory to create
// it on first use. Concurrent first calls for one key run factory once; every
// caller receives the same dependency.
//
// Get panics with a TYPE_MISMATCH *errors.AppError when the key already holds
// a value of another type, and with INVALID_SCOPE when the scope is invalid.
func Get[V any](r *Registry, s Scope, factory func() V) Dependency[V] {
	r = r.latest()
	key := r.keyOf(s)
	ctx := context.Background()

	if dep, ok := r.current(key); ok {
		r.metrics.RecordLookup(ctx, true)
		return as[V](r, key, dep)
	}
	r.metrics.RecordLookup(ctx, false)
	if factory == nil {
		r.fail(errors.InvalidInput("factory", "no factory for missing dependency "+key))
	}

	dep, err, _ := r.flight.Do(key, func() (dep any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = &factoryPanic{value: rec}
			}
		}()
		// A caller that lost the race to the flight may arrive after the
		// winner stored its result.
		if cached, ok := r.current(key); ok {
			return cached, nil
		}
		created := Dependency[V]{Value: construct(r, s, key, factory), Scope: s}
		return r.storeIfAbsent(key, newSlot(s, typeName[V](), created)), nil
	})
	if fp, ok := err.(*factoryPanic); ok {
		panic(fp.value)
	}
	return as[V](r, key, dep)
}

// factoryPanic carries a panic out of a construction flight so every caller
// waiting on it re-panics with the original value.
type factoryPanic struct {
	value any
}

func (p *factoryPanic) Error() string {
	return fmt.Sprintf("dependency factory panicked: %v", p.value)
}

// Load creates the dependency for the scope if it is not cached yet.
func Load[V any](r *Registry, s Scope, factory func() V) {
	Get(r, s, factory)
}

// Set replaces the current value for the scope, creating the entry when it is
// missing. When an override is installed the override's value is replaced
// and cancelling it still restores the value beneath.
func Set[V any](r *Registry, s Scope, value V) {
	key := r.keyOf(s)
	dep := Dependency[V]{Value: value, Scope: s}
	var depth int
	t := r.write(func(t *Registry) {
		sl, ok := t.slotLocked(key)
		if !ok {
			t.store.Set(key, newSlot(s, typeName[V](), dep))
			t.events.enqueue(Event{Kind: Created, Key: key})
			return
		}
		as[V](t, key, sl.current())
		t.store.Set(key, sl.withCurrent(dep))
		depth = len(sl.layers)
		t.events.enqueue(Event{Kind: Updated, Key: key, Depth: depth})
	})
	t.debug("dependency set", logger.Fields(logger.FieldKey, key, logger.FieldDepth, depth))
}

// Update resolves the dependency and replaces its current value with the
// result of fn applied to a copy. The read and the write happen atomically
// with respect to other writers. fn runs under the registry lock and must
// not call back into the registry.
func Update[V any](r *Registry, s Scope, factory func() V, fn func(*V)) Dependency[V] {
	key := s.Key()
	for {
		Get(r, s, factory)
		var out Dependency[V]
		var found bool
		var depth int
		t := r.write(func(t *Registry) {
			sl, ok := t.slotLocked(key)
			if !ok {
				return
			}
			found = true
			value := as[V](t, key, sl.current()).Value
			fn(&value)
			out = Dependency[V]{Value: value, Scope: s}
			t.store.Set(key, sl.withCurrent(out))
			depth = len(sl.layers)
			t.events.enqueue(Event{Kind: Updated, Key: key, Depth: depth})
		})
		if !found {
			// Removed between resolution and update.
			continue
		}
		t.debug("dependency updated", logger.Fields(logger.FieldKey, key, logger.FieldDepth, depth))
		return out
	}
}

func construct[V any](r *Registry, s Scope, key string, factory func() V) V {
	name := typeName[V]()
	ctx, span := r.tracer.Start(context.Background(), observability.SpanConstruct,
		trace.WithAttributes(
			attribute.String(observability.AttrDependencyKey, key),
			attribute.String(observability.AttrFeature, s.Name),
			attribute.String(observability.AttrType, name),
		),
	)
	defer span.End()

	start := time.Now()
	value := factory()
	elapsed := time.Since(start)

	r.metrics.RecordConstruct(ctx, s.Name, elapsed)
	r.debug("dependency created", logger.Fields(
		logger.FieldKey, key,
		logger.FieldType, name,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return value
}

// as asserts that dep holds a V.
func as[V any](r *Registry, key string, dep any) Dependency[V] {
	d, ok := dep.(Dependency[V])
	if !ok {
		r.fail(errors.TypeMismatch(key, typeName[V](), valueType(dep)))
	}
	return d
}

func typeName[V any]() string {
	return reflect.TypeFor[V]().String()
}

// valueType names the type of the value held by a Dependency[V].
func valueType(dep any) string {
	t := reflect.TypeOf(dep)
	if t != nil && t.Kind() == reflect.Struct && t.NumField() > 0 && t.Field(0).Name == "Value" {
		return t.Field(0).Type.String()
	}
	return fmt.Sprintf("%T", dep)
}
