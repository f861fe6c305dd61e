// Package attributes implements the run-scoped shared attribute store that
// sections publish resolved values into and read cascade flags from.
package attributes

import (
	"sort"

	"github.com/edquist/osg-configure/pkg/telemetry"
)

// Attribute is one published name/value pair with the section that owns it.
type Attribute struct {
	Name  string
	Value any
	Owner string
}

// Store is the process-scoped mapping from published attribute name to
// resolved value. It is created empty at the start of a run, populated
// during the parse pass in section order, read during cross-validation and
// render, and discarded at run end. No locking: the pipeline is
// single-threaded and only the section currently parsing mutates it.
type Store struct {
	logger *telemetry.Logger
	values map[string]any
	owners map[string]string
}

// NewStore creates an empty store. Republish warnings go to logger.
func NewStore(logger *telemetry.Logger) *Store {
	return &Store{
		logger: logger,
		values: make(map[string]any),
		owners: make(map[string]string),
	}
}

// Publish records key with the given value. Keys are write-once per run
// under normal operation; a republish is last-write-wins with a warning,
// since a section overwriting a key it does not own is a design bug rather
// than a runtime-guarded invariant.
func (s *Store) Publish(owner, key string, value any) {
	if prev, ok := s.owners[key]; ok {
		s.logger.WithSection(owner).
			Warnf("attribute %s already published by %s, overwriting", key, prev)
	}
	s.values[key] = value
	s.owners[key] = owner
}

// Lookup returns the value for key and whether it was published this run.
func (s *Store) Lookup(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// LookupWithDefault returns the value for key, or fallback when absent.
func (s *Store) LookupWithDefault(key string, fallback any) any {
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

// String returns the value for key as a string. Absent or non-string values
// report false.
func (s *Store) String(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// StringWithDefault returns the string value for key, or fallback.
func (s *Store) StringWithDefault(key, fallback string) string {
	if v, ok := s.String(key); ok {
		return v
	}
	return fallback
}

// Bool returns the value for key as a bool. Absent or non-bool values
// report false.
func (s *Store) Bool(key string) (bool, bool) {
	v, ok := s.values[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// BoolWithDefault returns the bool value for key, or fallback.
func (s *Store) BoolWithDefault(key string, fallback bool) bool {
	if v, ok := s.Bool(key); ok {
		return v
	}
	return fallback
}

// All returns every published attribute sorted by name.
func (s *Store) All() []Attribute {
	out := make([]Attribute, 0, len(s.values))
	for k, v := range s.values {
		out = append(out, Attribute{Name: k, Value: v, Owner: s.owners[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of published attributes.
func (s *Store) Len() int {
	return len(s.values)
}
