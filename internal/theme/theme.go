package theme

import (
	"sort"
)

// Value is a node in a design-token tree. It is implemented only by Leaf and Tree.
type Value interface {
	isValue()
}

// Leaf is a terminal token value such as "#101010" or "1rem".
type Leaf string

// Tree maps token names (or categories) to nested values.
type Tree map[string]Value

func (Leaf) isValue() {}
func (Tree) isValue() {}

// Merge deep-merges override onto base and returns a new tree.
// Nested trees present on both sides are merged key by key; in every other
// case the override value replaces the base value. Neither input is modified.
func Merge(base, override Tree) Tree {
	out := base.Clone()
	for key, value := range override {
		baseTree, baseIsTree := out[key].(Tree)
		overrideTree, overrideIsTree := value.(Tree)
		if baseIsTree && overrideIsTree {
			out[key] = Merge(baseTree, overrideTree)
			continue
		}
		out[key] = cloneValue(value)
	}
	return out
}

// Clone returns a deep copy of the tree. A nil tree clones to an empty one.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for key, value := range t {
		out[key] = cloneValue(value)
	}
	return out
}

// Lookup walks the tree along path and returns the value found there.
func (t Tree) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return t, true
	}
	value, ok := t[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return value, true
	}
	child, ok := value.(Tree)
	if !ok {
		return nil, false
	}
	return child.Lookup(path[1:]...)
}

// Keys returns the tree's top-level keys in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v Value) Value {
	if tree, ok := v.(Tree); ok {
		return tree.Clone()
	}
	return v
}
