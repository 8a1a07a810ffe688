package di

// Dependency is a cached value together with the scope it is stored under.
// It is never mutated: changing a dependency stores a new Dependency at the
// same key.
type Dependency[V any] struct {
	Value V
	Scope Scope
}

// Key returns the storage key of the dependency.
func (d Dependency[V]) Key() string {
	return d.Scope.Key()
}
