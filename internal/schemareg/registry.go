// Package schemareg maps document namespaces to the schema versions that
// describe them. A Registry is built once at startup and is read-only
// afterwards, so concurrent runs may share it.
package schemareg

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"docprofile/internal/formal"
)

// ErrConflict is returned when a namespace is registered twice with
// different data.
var ErrConflict = errors.New("conflicting schema registration")

// ErrEmptyNamespace is returned for an entry without namespace.
var ErrEmptyNamespace = errors.New("schema entry without namespace")

// Entry describes one schema version.
type Entry struct {
	Namespace  string
	Version    int
	Label      string
	Schema     formal.Validator // nil skips formal validation
	Status     Lifecycle
	CodePrefix string
}

func (e Entry) sameAs(o Entry) bool {
	return e.Namespace == o.Namespace &&
		e.Version == o.Version &&
		e.Label == o.Label &&
		e.Status == o.Status &&
		e.CodePrefix == o.CodePrefix
}

// Builder collects entries before the registry is frozen.
type Builder struct {
	entries map[string]Entry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]Entry)}
}

// Register adds e. Registering an equal entry again is a no-op; a different
// entry for a known namespace fails with ErrConflict.
func (b *Builder) Register(e Entry) error {
	if e.Namespace == "" {
		return ErrEmptyNamespace
	}
	if prev, ok := b.entries[e.Namespace]; ok {
		if prev.sameAs(e) {
			return nil
		}
		return fmt.Errorf("%w: %s (version %d and %d)", ErrConflict, e.Namespace, prev.Version, e.Version)
	}
	b.entries[e.Namespace] = e
	return nil
}

// Build freezes the collected entries. The builder may keep being used; the
// returned registry does not see later registrations.
func (b *Builder) Build() *Registry {
	r := &Registry{byNamespace: maps.Clone(b.entries)}
	r.ordered = slices.Collect(maps.Values(r.byNamespace))
	slices.SortFunc(r.ordered, func(a, b Entry) int {
		if a.Version != b.Version {
			return a.Version - b.Version
		}
		if a.Namespace < b.Namespace {
			return -1
		}
		if a.Namespace > b.Namespace {
			return 1
		}
		return 0
	})
	return r
}

// Registry is an immutable namespace index.
type Registry struct {
	byNamespace map[string]Entry
	ordered     []Entry
}

// Resolve looks a namespace up. An unknown namespace is never mapped to a
// default entry.
func (r *Registry) Resolve(namespace string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, ok := r.byNamespace[namespace]
	return e, ok
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

// Entries returns the entries ordered by version, then namespace.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	return slices.Clone(r.ordered)
}
