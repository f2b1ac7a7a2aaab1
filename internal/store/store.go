// Package store holds the mutable table namespace every pipeline step reads and writes.
//
// A Store is unsynchronized: one session owns it and runs one statement at a
// time. Mutations are applied in place with no transaction boundary, so a batch that fails
// halfway leaves the effects of its earlier statements visible.
package store

import (
	"sort"

	"github.com/leengari/cohort-sql/internal/domain/schema"
)

// Store maps table names to tables. At most one table exists per name.
type Store struct {
	tables map[string]*schema.Table
}

// New creates an empty store
func New() *Store {
	return &Store{tables: make(map[string]*schema.Table)}
}

// Get returns the table registered under name
func (s *Store) Get(name string) (*schema.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Put registers a table under name, replacing any previous table of that name.
// The table's Name field is set to name.
func (s *Store) Put(name string, t *schema.Table) {
	t.Name = name
	s.tables[name] = t
}

// Delete removes the table registered under name.
// Returns false when no such table existed.
func (s *Store) Delete(name string) bool {
	if _, ok := s.tables[name]; !ok {
		return false
	}
	delete(s.tables, name)
	return true
}

// Has reports whether a table is registered under name
func (s *Store) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Names returns all table names in lexicographic order
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tables
func (s *Store) Len() int {
	return len(s.tables)
}

// Clone returns a store holding deep copies of every table
func (s *Store) Clone() *Store {
	out := New()
	for name, t := range s.tables {
		out.tables[name] = t.Clone()
	}
	return out
}
