package di

import (
	"strings"

	"github.com/kbukum/depkit/errors"
)

// KeySeparator joins a scope's name and id into its storage key.
const KeySeparator = "."

// Scope identifies the storage slot of a dependency.
//
// Name is the feature the dependency belongs to and must not contain
// KeySeparator; ID may contain anything. Splitting a key at its first
// separator therefore recovers the pair, and distinct scopes never share a
// key.
type Scope struct {
	Name string
	ID   string
}

// NewScope creates a scope for the given feature name and id.
func NewScope(name, id string) Scope {
	return Scope{Name: name, ID: id}
}

// Key returns the storage key "name.id".
func (s Scope) Key() string {
	return s.Name + KeySeparator + s.ID
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	return s.Key()
}

// Validate reports whether the scope can address a storage slot.
func (s Scope) Validate() error {
	switch {
	case s.Name == "":
		return errors.InvalidScope(s.Name, s.ID, "name is required")
	case strings.Contains(s.Name, KeySeparator):
		return errors.InvalidScope(s.Name, s.ID, "name must not contain "+KeySeparator)
	case s.ID == "":
		return errors.InvalidScope(s.Name, s.ID, "id is required")
	}
	return nil
}

// ParseKey splits a storage key back into its scope.
func ParseKey(key string) (Scope, error) {
	name, id, ok := strings.Cut(key, KeySeparator)
	if !ok {
		return Scope{}, errors.InvalidScope(key, "", "key has no "+KeySeparator)
	}
	s := Scope{Name: name, ID: id}
	if err := s.Validate(); err != nil {
		return Scope{}, err
	}
	return s, nil
}
