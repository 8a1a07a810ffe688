// Package cache defines the key/value store the dependency registry keeps
// its slots in, plus a map-backed in-memory implementation.
//
// A Store only has to honour two rules: a Set is visible to every later Get
// of the same key, and a Remove makes later Gets report the key as absent.
// The registry serializes its own access, so implementations need not
// provide compare-and-swap or transactions.
//
// # Usage
//
//	store := cache.NewMemory()
//	reg := di.New(di.WithStore(store))
package cache
