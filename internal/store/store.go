// Package store implements the hierarchical key-path store.
//
// The store is a tree. Inner nodes (branches) map path segments to child
// nodes and remember insertion order; leaves hold a value.Value. Dotted keys
// are resolved segment by segment from the root branch.
//
// Two rules decide the shape of the tree:
//
//   - Setting a map value never creates a map leaf. The map is expanded into
//     branches, so Set("a", {b: 1}) is the same as Set("a.b", 1).
//   - Lists are always leaves. Their elements are not addressable by key.
//
// A Store is not safe for concurrent use.
package store

import (
	"github.com/redhatinsights/configurator/internal/keypath"
	"github.com/redhatinsights/configurator/internal/value"
)

// Entry is a single leaf in the flattened view of a Store.
type Entry struct {
	Key   string
	Value value.Value
}

type node struct {
	// children is nil for leaves.
	children map[string]*node
	order    []string
	leaf     value.Value
}

func newBranch() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) isBranch() bool {
	return n.children != nil
}

func (n *node) child(name string) (*node, bool) {
	c, ok := n.children[name]
	return c, ok
}

func (n *node) put(name string, c *node) {
	if _, ok := n.children[name]; !ok {
		n.order = append(n.order, name)
	}
	n.children[name] = c
}

func (n *node) remove(name string) {
	delete(n.children, name)
	for i, existing := range n.order {
		if existing == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}

// Store holds configuration values addressed by dotted keys.
type Store struct {
	root *node
}

// New returns an empty Store.
func New() *Store {
	return &Store{root: newBranch()}
}

// resolve walks key from the root. It fails when a segment is missing, when
// a leaf is reached before the key is exhausted, or when key is malformed.
func (s *Store) resolve(key string) (*node, bool) {
	segments, err := keypath.Parse(key)
	if err != nil {
		return nil, false
	}
	current := s.root
	for _, segment := range segments {
		if !current.isBranch() {
			return nil, false
		}
		next, ok := current.child(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Get returns the value stored under key, or def when key does not resolve.
// A key that resolves to a branch yields a map value holding a copy of the
// subtree.
func (s *Store) Get(key string, def value.Value) value.Value {
	v, ok := s.Lookup(key)
	if !ok {
		return def
	}
	return v
}

// Lookup is like Get but reports whether key resolved.
func (s *Store) Lookup(key string) (value.Value, bool) {
	n, ok := s.resolve(key)
	if !ok {
		return value.Value{}, false
	}
	return n.value(), true
}

// Has reports whether key resolves to a branch or a leaf.
func (s *Store) Has(key string) bool {
	_, ok := s.resolve(key)
	return ok
}

// Set stores v under key. Missing branches along the way are created and
// any leaf in the way is replaced by a branch. Map keys inside v may be
// dotted themselves and are expanded the same way. The only error is
// keypath.ErrInvalidKey, returned before anything is modified.
func (s *Store) Set(key string, v value.Value) error {
	segments, err := keypath.Parse(key)
	if err != nil {
		return err
	}
	if err := checkKeys(v); err != nil {
		return err
	}
	s.root.set(segments, v)
	return nil
}

// Delete removes key and everything below it. It reports whether key
// existed.
func (s *Store) Delete(key string) bool {
	segments, err := keypath.Parse(key)
	if err != nil {
		return false
	}
	parentKey := keypath.Join(segments[:len(segments)-1]...)
	parent := s.root
	if parentKey != "" {
		var ok bool
		if parent, ok = s.resolve(parentKey); !ok || !parent.isBranch() {
			return false
		}
	}
	name := segments[len(segments)-1]
	if _, ok := parent.child(name); !ok {
		return false
	}
	parent.remove(name)
	return true
}

// All flattens the store into one entry per leaf, depth first and in
// insertion order. Branches never appear as entries.
func (s *Store) All() []Entry {
	var entries []Entry
	s.root.flatten("", &entries)
	return entries
}

// Tree returns the whole store as a map value.
func (s *Store) Tree() value.Value {
	return s.root.value()
}

// Len returns the number of leaves.
func (s *Store) Len() int {
	return s.root.leaves()
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	return &Store{root: s.root.clone()}
}

func (n *node) set(segments []string, v value.Value) {
	current := n
	last := len(segments) - 1
	for _, segment := range segments[:last] {
		next, ok := current.child(segment)
		if !ok || !next.isBranch() {
			next = newBranch()
			current.put(segment, next)
		}
		current = next
	}
	current.put(segments[last], build(v))
}

func build(v value.Value) *node {
	m, ok := v.AsMap()
	if !ok {
		return &node{leaf: v.Clone()}
	}
	n := newBranch()
	m.Range(func(key string, item value.Value) bool {
		n.set(keypath.Split(key), item)
		return true
	})
	return n
}

func checkKeys(v value.Value) error {
	m, ok := v.AsMap()
	if !ok {
		return nil
	}
	var err error
	m.Range(func(key string, item value.Value) bool {
		if _, err = keypath.Parse(key); err != nil {
			return false
		}
		err = checkKeys(item)
		return err == nil
	})
	return err
}

func (n *node) value() value.Value {
	if !n.isBranch() {
		return n.leaf.Clone()
	}
	m := value.NewMap()
	for _, name := range n.order {
		m.Set(name, n.children[name].value())
	}
	return value.MapOf(m)
}

func (n *node) flatten(prefix string, entries *[]Entry) {
	for _, name := range n.order {
		c := n.children[name]
		key := keypath.Join(prefix, name)
		if c.isBranch() {
			c.flatten(key, entries)
			continue
		}
		*entries = append(*entries, Entry{Key: key, Value: c.leaf.Clone()})
	}
}

func (n *node) leaves() int {
	if !n.isBranch() {
		return 1
	}
	count := 0
	for _, c := range n.children {
		count += c.leaves()
	}
	return count
}

func (n *node) clone() *node {
	if !n.isBranch() {
		return &node{leaf: n.leaf.Clone()}
	}
	c := newBranch()
	for _, name := range n.order {
		c.put(name, n.children[name].clone())
	}
	return c
}
