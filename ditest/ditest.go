// Package ditest holds test helpers for code that resolves dependencies
// through the shared registry.
//
//	func TestCheckout(t *testing.T) {
//	    ditest.Isolate(t)
//	    ditest.Override(t, app.Clock, fakeClock)
//	    ...
//	}
package ditest

import (
	"testing"

	"github.com/kbukum/depkit/di"
	"github.com/kbukum/depkit/logger"
)

// Isolate installs a fresh shared registry for the rest of the test and
// restores the previous one on cleanup. Tests calling Isolate must not run
// in parallel with other tests that use the shared registry.
func Isolate(t testing.TB, opts ...di.Option) *di.Registry {
	t.Helper()
	r := di.New(append([]di.Option{di.WithName("test"), di.WithLogger(logger.Nop())}, opts...)...)
	prev := di.ReplaceShared(r)
	t.Cleanup(func() { di.ReplaceShared(prev) })
	return r
}

// Override installs value over p's dependency until the test ends.
func Override[V any](t testing.TB, p *di.Provider[V], value V) *di.OverrideToken {
	t.Helper()
	tok := p.Override(value)
	t.Cleanup(tok.Cancel)
	return tok
}

// Set replaces p's current value for the rest of the test and evicts it on
// cleanup, so the next test resolves it from its factory again.
func Set[V any](t testing.TB, p *di.Provider[V], value V) {
	t.Helper()
	p.Set(value)
	t.Cleanup(func() { p.Reset() })
}
