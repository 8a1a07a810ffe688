package di

import "github.com/kbukum/depkit/errors"

// Provider declares a dependency once and resolves it on demand.
//
//	var Clock = di.Provide("app", func() Clock { return SystemClock{} })
//
//	now := Clock.Value().Now()
//
// The id of a Provider created with Provide is the source location of the
// Provide call, so two declarations never share storage. A Provider resolves
// against the shared registry unless bound to another with In.
type Provider[V any] struct {
	scope    Scope
	factory  func() V
	registry *Registry
}

// Provide declares a dependency of feature identified by the caller's
// source location.
func Provide[V any](feature string, factory func() V) *Provider[V] {
	return newProvider(NewScope(feature, Caller(1).ID()), factory)
}

// ProvideNamed declares a dependency with an explicit id.
func ProvideNamed[V any](feature, id string, factory func() V) *Provider[V] {
	return newProvider(NewScope(feature, id), factory)
}

func newProvider[V any](s Scope, factory func() V) *Provider[V] {
	if err := s.Validate(); err != nil {
		appErr, _ := errors.AsAppError(err)
		Shared().fail(appErr)
	}
	return &Provider[V]{scope: s, factory: factory}
}

// In returns a copy of the provider bound to r.
func (p *Provider[V]) In(r *Registry) *Provider[V] {
	cp := *p
	cp.registry = r
	return &cp
}

// Scope returns the storage scope.
func (p *Provider[V]) Scope() Scope { return p.scope }

// Registry returns the registry the provider resolves against.
func (p *Provider[V]) Registry() *Registry {
	if p.registry != nil {
		return p.registry.latest()
	}
	return Shared()
}

// Resolve returns the dependency, creating it on first use.
func (p *Provider[V]) Resolve() Dependency[V] {
	return Get(p.Registry(), p.scope, p.factory)
}

// Value returns the current value.
func (p *Provider[V]) Value() V {
	return p.Resolve().Value
}

// Load creates the dependency if it is not cached yet.
func (p *Provider[V]) Load() {
	Load(p.Registry(), p.scope, p.factory)
}

// Override installs value until the token is cancelled.
func (p *Provider[V]) Override(value V) *OverrideToken {
	return Override(p.Registry(), p.scope, p.factory, value)
}

// With runs fn with value installed.
func (p *Provider[V]) With(value V, fn func()) {
	WithOverride(p.Registry(), p.scope, p.factory, value, fn)
}

// Set replaces the current value.
func (p *Provider[V]) Set(value V) {
	Set(p.Registry(), p.scope, value)
}

// Update applies fn to the current value and stores the result.
func (p *Provider[V]) Update(fn func(*V)) V {
	return Update(p.Registry(), p.scope, p.factory, fn).Value
}

// Reset evicts the cached dependency so the next resolution runs the
// factory again.
func (p *Provider[V]) Reset() bool {
	return p.Registry().Remove(p.scope)
}
