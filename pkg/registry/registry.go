// Package registry maintains the authoritative name-to-id bijection for a
// description under construction. Registration order determines ids: the
// first registered name gets id 0, the next id 1, and so on. Ids are int64
// so they can be used directly as gonum graph node ids.
package registry

import (
	"errors"
	"fmt"
)

// ErrEmptyName is returned when a node is registered with an empty name.
var ErrEmptyName = errors.New("node name must not be empty")

// ErrFinalized is returned when a registry is used after Finalize.
var ErrFinalized = errors.New("registry already finalized")

// DuplicateNodeError reports a node name declared more than once.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q declared more than once", e.Name)
}

// UnknownNodeError reports a lookup of a name that was never registered.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %q is not declared", e.Name)
}

// Registry assigns stable sequential ids to node names during a build.
// It is not safe for concurrent use; a build is single-threaded by contract.
type Registry struct {
	ids       map[string]int64
	names     []string
	finalized bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{ids: make(map[string]int64)}
}

// Register adds a name and returns its assigned id. The id is the next
// index in registration order.
func (r *Registry) Register(name string) (int64, error) {
	if r.finalized {
		return 0, ErrFinalized
	}
	if name == "" {
		return 0, ErrEmptyName
	}
	if _, ok := r.ids[name]; ok {
		return 0, &DuplicateNodeError{Name: name}
	}
	id := int64(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id, nil
}

// Resolve looks up an already-registered name.
func (r *Registry) Resolve(name string) (int64, error) {
	id, ok := r.ids[name]
	if !ok {
		return 0, &UnknownNodeError{Name: name}
	}
	return id, nil
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	return len(r.names)
}

// Finalize freezes the registry into an immutable Table. The internal
// tables are handed over to the Table; the registry rejects further
// registration afterwards.
func (r *Registry) Finalize() *Table {
	r.finalized = true
	return &Table{ids: r.ids, names: r.names}
}

// Table is the immutable name-to-id bijection embedded in a finished
// description. It is safe to share across concurrent readers.
type Table struct {
	ids   map[string]int64
	names []string
}

// ID returns the id for a name, reporting whether the name is registered.
func (t *Table) ID(name string) (int64, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the name for an id, reporting whether the id is in range.
func (t *Table) Name(id int64) (string, bool) {
	if id < 0 || id >= int64(len(t.names)) {
		return "", false
	}
	return t.names[id], true
}

// Resolve looks up a name, failing with UnknownNodeError if absent.
// It is the lookup used during edge resolution, where absence is an
// authoring mistake rather than a plain query miss.
func (t *Table) Resolve(name string) (int64, error) {
	id, ok := t.ids[name]
	if !ok {
		return 0, &UnknownNodeError{Name: name}
	}
	return id, nil
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns all registered names in registration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
