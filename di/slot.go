package di

import (
	"slices"

	"github.com/google/uuid"
)

// slot is what the registry keeps in its store for one key: the dependency
// built by the factory plus the stack of overrides installed on top of it.
// Slots are copied on write so a value read from the store never changes.
type slot struct {
	scope    Scope
	typeName string
	base     any
	layers   []layer
}

type layer struct {
	id  uuid.UUID
	dep any
}

func newSlot(scope Scope, typeName string, dep any) *slot {
	return &slot{scope: scope, typeName: typeName, base: dep}
}

// current returns the dependency callers see: the newest override, or the
// base when no override is installed.
func (s *slot) current() any {
	if n := len(s.layers); n > 0 {
		return s.layers[n-1].dep
	}
	return s.base
}

func (s *slot) clone() *slot {
	cp := *s
	cp.layers = slices.Clone(s.layers)
	return &cp
}

// withCurrent replaces whichever dependency is current.
func (s *slot) withCurrent(dep any) *slot {
	next := s.clone()
	if n := len(next.layers); n > 0 {
		next.layers[n-1].dep = dep
	} else {
		next.base = dep
	}
	return next
}

func (s *slot) withLayer(id uuid.UUID, dep any) *slot {
	next := s.clone()
	next.layers = append(next.layers, layer{id: id, dep: dep})
	return next
}

// withoutLayer drops the layer installed by id. top reports whether that
// layer was the current one.
func (s *slot) withoutLayer(id uuid.UUID) (next *slot, found, top bool) {
	i := slices.IndexFunc(s.layers, func(l layer) bool { return l.id == id })
	if i < 0 {
		return s, false, false
	}
	next = s.clone()
	next.layers = slices.Delete(next.layers, i, i+1)
	return next, true, i == len(s.layers)-1
}
