package entry

import (
	"errors"
	"strings"
)

// ErrStop may be returned from a WalkFunc to end the walk early.
var ErrStop = errors.New("stop walk")

// WalkFunc is called for every entry visited by Store.Walk.
// depth is zero for top-level entries.
type WalkFunc func(e *Entry, depth int) error

// Store holds the entry tree of an open database.
// It is not safe for concurrent use.
type Store struct {
	roots []*Entry
}

// NewStore creates a store holding the given top-level entries.
func NewStore(roots ...*Entry) *Store {
	return &Store{roots: roots}
}

// Roots returns the top-level entries.
func (s *Store) Roots() []*Entry {
	return s.roots
}

// Add appends an entry under parent, or at the top level when parent is nil.
func (s *Store) Add(parent, e *Entry) error {
	if parent == nil {
		s.roots = append(s.roots, e)
		return nil
	}
	if !parent.IsFolder() {
		return ErrEntryType
	}
	parent.Children = append(parent.Children, e)
	return nil
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.roots = nil
}

// Import appends a deep copy of src's entries to the store.
func (s *Store) Import(src *Store) {
	if src == nil {
		return
	}
	for _, e := range src.roots {
		s.roots = append(s.roots, e.Clone())
	}
}

// Len returns the total number of entries, folders included.
func (s *Store) Len() int {
	n := 0
	s.Walk(func(*Entry, int) error {
		n++
		return nil
	})
	return n
}

// Walk visits every entry depth-first, parents before children, in stored
// order. A non-nil error from fn stops the walk; ErrStop is not returned.
func (s *Store) Walk(fn WalkFunc) error {
	err := walk(s.roots, 0, fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func walk(entries []*Entry, depth int, fn WalkFunc) error {
	for _, e := range entries {
		if err := fn(e, depth); err != nil {
			return err
		}
		if e.IsFolder() {
			if err := walk(e.Children, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find returns the entry with the given id.
func (s *Store) Find(id string) (*Entry, bool) {
	var found *Entry
	s.Walk(func(e *Entry, _ int) error {
		if e.ID == id {
			found = e
			return ErrStop
		}
		return nil
	})
	return found, found != nil
}

// Lookup resolves a slash separated path of entry names, e.g.
// "Work/Servers/db1". Names are matched case-insensitively.
func (s *Store) Lookup(path string) (*Entry, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	level := s.roots
	var current *Entry
	for _, part := range parts {
		current = nil
		for _, e := range level {
			if strings.EqualFold(e.Name, part) {
				current = e
				break
			}
		}
		if current == nil {
			return nil, false
		}
		level = current.Children
	}
	return current, current != nil
}

// Validate checks every entry against the data model.
func (s *Store) Validate() error {
	for _, e := range s.roots {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}
