// Package di provides a process-wide dependency registry for depkit
// applications.
//
// Dependencies are values built lazily by a zero-argument factory and cached
// under a Scope, a (feature, id) pair rendered as the key "feature.id". The
// first resolution of a key runs its factory exactly once, even when many
// goroutines race for it; every later resolution returns the cached value.
//
// Values can be replaced temporarily with Override. The returned token puts
// the previous value back when cancelled, or when it is garbage collected
// without having been cancelled. Overrides of one key stack: cancelling the
// newest restores the one beneath it.
//
// Slices project a field of a dependency's value. They re-resolve the
// dependency on every access, so overrides and promotion are visible through
// any slice already handed out.
//
// # Declaring dependencies
//
//	var Clock = di.Provide("App", func() Clock { return systemClock{} })
//	var DSN = di.ProvideNamed("DB", "dsn", func() string { return os.Getenv("DSN") })
//
// Provide derives the scope id from the declaration's source location, so
// two declarations never share a key even under the same feature name.
//
// # Resolving and overriding
//
//	now := Clock.Value().Now()
//
//	tok := Clock.Override(fixedClock{t0})
//	defer tok.Cancel()
//
// # Promotion
//
// The shared registry can be swapped for one wrapped in an application type
// (anything embedding *Registry). PromoteTo moves every cached entry into
// the new registry:
//
//	type AppRegistry struct{ *di.Registry }
//	app := di.PromoteTo(func(r *di.Registry) *AppRegistry { return &AppRegistry{r} })
package di
