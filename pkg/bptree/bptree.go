// Package bptree is an in-memory B+ tree with ordered keys and linked leaves
// for range scans.
package bptree

import (
	"cmp"
	"slices"
	"sync"
)

// DefaultOrder is used when the requested order is too small.
const DefaultOrder = 32

// Tree maps ordered keys to values. It is safe for concurrent use.
type Tree[K cmp.Ordered, V any] struct {
	mutex  sync.RWMutex
	root   *node[K, V]
	order  int
	height int
	size   int
}

// node is a leaf when children is nil. Leaves are chained through next in
// key order.
type node[K cmp.Ordered, V any] struct {
	keys     []K
	values   []V
	children []*node[K, V]
	next     *node[K, V]
}

func (n *node[K, V]) leaf() bool { return n.children == nil }

// New returns an empty tree holding at most order keys per node.
func New[K cmp.Ordered, V any](order int) *Tree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &Tree[K, V]{
		root:   &node[K, V]{},
		order:  order,
		height: 1,
	}
}

// Len returns the number of keys.
func (t *Tree[K, V]) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.size
}

// Height returns the number of levels, 1 for a tree that is a single leaf.
func (t *Tree[K, V]) Height() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.height
}

// Search returns the value stored under key.
func (t *Tree[K, V]) Search(key K) (V, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	leaf := t.findLeaf(key)
	if i, ok := slices.BinarySearch(leaf.keys, key); ok {
		return leaf.values[i], true
	}
	var zero V
	return zero, false
}

// Insert stores value under key, replacing any previous value.
func (t *Tree[K, V]) Insert(key K, value V) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.put(key, value)
}

// Update replaces the value under key with fn(old, found).
func (t *Tree[K, V]) Update(key K, fn func(old V, found bool) V) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	leaf := t.findLeaf(key)
	if i, ok := slices.BinarySearch(leaf.keys, key); ok {
		leaf.values[i] = fn(leaf.values[i], true)
		return
	}
	var zero V
	t.put(key, fn(zero, false))
}

func (t *Tree[K, V]) put(key K, value V) {
	sepKey, sibling := t.insert(t.root, key, value)
	if sibling == nil {
		return
	}
	t.root = &node[K, V]{
		keys:     []K{sepKey},
		children: []*node[K, V]{t.root, sibling},
	}
	t.height++
}

// Range calls fn for every key in [from, to] in ascending order until fn
// returns false.
func (t *Tree[K, V]) Range(from, to K, fn func(key K, value V) bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if from > to {
		return
	}
	leaf := t.findLeaf(from)
	i, _ := slices.BinarySearch(leaf.keys, from)
	for leaf != nil {
		for ; i < len(leaf.keys); i++ {
			if leaf.keys[i] > to {
				return
			}
			if !fn(leaf.keys[i], leaf.values[i]) {
				return
			}
		}
		leaf, i = leaf.next, 0
	}
}

// Ascend calls fn for every key in ascending order until fn returns false.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	n := t.root
	for !n.leaf() {
		n = n.children[0]
	}
	for ; n != nil; n = n.next {
		for i := range n.keys {
			if !fn(n.keys[i], n.values[i]) {
				return
			}
		}
	}
}

func (t *Tree[K, V]) findLeaf(key K) *node[K, V] {
	n := t.root
	for !n.leaf() {
		n = n.children[childIndex(n.keys, key)]
	}
	return n
}

// childIndex picks the child whose range holds key: keys equal to a
// separator live in the right subtree.
func childIndex[K cmp.Ordered](keys []K, key K) int {
	i, found := slices.BinarySearch(keys, key)
	if found {
		return i + 1
	}
	return i
}

// insert adds key below n and returns the separator and new right sibling
// when n had to split.
func (t *Tree[K, V]) insert(n *node[K, V], key K, value V) (K, *node[K, V]) {
	var zero K
	if n.leaf() {
		i, found := slices.BinarySearch(n.keys, key)
		if found {
			n.values[i] = value
			return zero, nil
		}
		n.keys = slices.Insert(n.keys, i, key)
		n.values = slices.Insert(n.values, i, value)
		t.size++
		if len(n.keys) <= t.order {
			return zero, nil
		}
		return splitLeaf(n)
	}

	i := childIndex(n.keys, key)
	sepKey, sibling := t.insert(n.children[i], key, value)
	if sibling == nil {
		return zero, nil
	}
	n.keys = slices.Insert(n.keys, i, sepKey)
	n.children = slices.Insert(n.children, i+1, sibling)
	if len(n.keys) <= t.order {
		return zero, nil
	}
	return splitInternal(n)
}

func splitLeaf[K cmp.Ordered, V any](n *node[K, V]) (K, *node[K, V]) {
	mid := len(n.keys) / 2
	right := &node[K, V]{
		keys:   slices.Clone(n.keys[mid:]),
		values: slices.Clone(n.values[mid:]),
		next:   n.next,
	}
	n.keys = slices.Clip(n.keys[:mid])
	n.values = slices.Clip(n.values[:mid])
	n.next = right
	return right.keys[0], right
}

func splitInternal[K cmp.Ordered, V any](n *node[K, V]) (K, *node[K, V]) {
	mid := len(n.keys) / 2
	sepKey := n.keys[mid]
	right := &node[K, V]{
		keys:     slices.Clone(n.keys[mid+1:]),
		children: slices.Clone(n.children[mid+1:]),
	}
	n.keys = slices.Clip(n.keys[:mid])
	n.children = slices.Clip(n.children[:mid+1])
	return sepKey, right
}
