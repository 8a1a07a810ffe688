package di

// Slice is a read-only view of part of a dependency.
//
//	type Settings struct{ Theme string; Volume int }
//	var settings = di.Provide("settings", func() Settings { return Settings{Volume: 5} })
//	var theme = di.SliceOf(settings, func(s Settings) string { return s.Theme })
type Slice[V, S any] struct {
	source *Provider[V]
	get    func(V) S
}

// SliceOf projects part of the dependency p provides.
func SliceOf[V, S any](p *Provider[V], get func(V) S) Slice[V, S] {
	return Slice[V, S]{source: p, get: get}
}

// Get reads the projected part of the current value.
func (s Slice[V, S]) Get() S {
	return s.get(s.source.Value())
}

// MutableSlice is a read/write view of part of a dependency. Writes replace
// the current value of the whole dependency atomically, so concurrent
// writers through different slices of one dependency do not lose updates.
type MutableSlice[V, S any] struct {
	Slice[V, S]
	set func(*V, S)
}

// MutableSliceOf projects part of the dependency p provides, written back
// with set.
func MutableSliceOf[V, S any](p *Provider[V], get func(V) S, set func(*V, S)) MutableSlice[V, S] {
	return MutableSlice[V, S]{Slice: SliceOf(p, get), set: set}
}

// Set writes the projected part.
func (m MutableSlice[V, S]) Set(value S) {
	m.source.Update(func(v *V) {
		m.set(v, value)
	})
}

// Modify applies fn to the projected part and returns the new part. fn runs
// under the registry lock and must not call back into the registry.
func (m MutableSlice[V, S]) Modify(fn func(*S)) S {
	var out S
	m.source.Update(func(v *V) {
		part := m.get(*v)
		fn(&part)
		m.set(v, part)
		out = part
	})
	return out
}
