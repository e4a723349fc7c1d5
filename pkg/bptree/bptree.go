// Package bptree is an in-memory B+Tree keyed by any ordered type. Leaves are
// linked so range scans walk them in key order.
package bptree

import (
	"cmp"
	"sort"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// findChildIndex determines which child pointer to follow in an internal node.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	return sort.Search(len(keys), func(i int) bool {
		return cmp.Less(searchKey, keys[i])
	})
}

// findKeyIndex returns the position of key in a leaf, or where it would be inserted.
func findKeyIndex[K cmp.Ordered](keys []K, key K) (int, bool) {
	idx := sort.Search(len(keys), func(i int) bool {
		return cmp.Compare(keys[i], key) >= 0
	})
	return idx, idx < len(keys) && cmp.Compare(keys[idx], key) == 0
}

// BPlusTree is safe for concurrent use. Readers share the tree latch;
// Insert and Delete hold it exclusively.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	m      sync.RWMutex
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates and returns a B+Tree with the given order.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root:   newLeaf[K, V](order),
		order:  order,
		height: 1,
	}
}

func newLeaf[K cmp.Ordered, V any](order int) *node[K, V] {
	return &node[K, V]{
		isLeaf: true,
		keys:   make([]K, 0, order),
		values: make([]V, 0, order),
	}
}

// Height returns the number of levels, 1 for a lone leaf
func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys stored
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// findLeaf walks from the root to the leaf that would hold key.
// Must be called with the tree latch held.
func (tree *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[findChildIndex(current.keys, key)]
	}
	return current
}

// leftmostLeaf returns the first leaf in key order.
func (tree *BPlusTree[K, V]) leftmostLeaf() *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[0]
	}
	return current
}

// Search locates the value associated with `key` (if it exists).
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(key)
	if idx, ok := findKeyIndex(leaf.keys, key); ok {
		return leaf.values[idx], true
	}
	var zero V
	return zero, false
}

// Insert adds a (key, value) pair, replacing the value of an existing key.
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	if insertKeyValueInLeaf(leaf, key, value) {
		tree.size++
	}

	// Check overflow
	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// Delete removes key and reports whether it was present. Leaves are not
// merged on underflow; separator keys in internal nodes still route
// searches correctly.
func (tree *BPlusTree[K, V]) Delete(key K) bool {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	idx, ok := findKeyIndex(leaf.keys, key)
	if !ok {
		return false
	}
	leaf.keys = append(leaf.keys[:idx], leaf.keys[idx+1:]...)
	leaf.values = append(leaf.values[:idx], leaf.values[idx+1:]...)
	tree.size--

	if tree.size == 0 {
		tree.root = newLeaf[K, V](tree.order)
		tree.height = 1
	}
	return true
}

// Range calls fn for every key in [lo, hi] in ascending order until fn
// returns false. fn must not modify the tree.
func (tree *BPlusTree[K, V]) Range(lo, hi K, fn func(key K, value V) bool) {
	if cmp.Less(hi, lo) {
		return
	}
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(lo)
	idx, _ := findKeyIndex(leaf.keys, lo)
	for leaf != nil {
		for ; idx < len(leaf.keys); idx++ {
			if cmp.Less(hi, leaf.keys[idx]) {
				return
			}
			if !fn(leaf.keys[idx], leaf.values[idx]) {
				return
			}
		}
		leaf, idx = leaf.next, 0
	}
}

// Ascend calls fn for every key in ascending order until fn returns false.
// fn must not modify the tree.
func (tree *BPlusTree[K, V]) Ascend(fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	for leaf := tree.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		for i := range leaf.keys {
			if !fn(leaf.keys[i], leaf.values[i]) {
				return
			}
		}
	}
}

// insertKeyValueInLeaf reports whether key was new.
func insertKeyValueInLeaf[K cmp.Ordered, V any](leaf *node[K, V], key K, value V) bool {
	idx, exists := findKeyIndex(leaf.keys, key)
	if exists {
		leaf.values[idx] = value
		return false
	}
	leaf.keys = append(leaf.keys, key)
	leaf.values = append(leaf.values, value)

	// Shift elements to make room at idx
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	leaf.keys[idx] = key

	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.values[idx] = value
	return true
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	sibling := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}

	// Adjust the original leaf
	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = sibling

	if leaf.parent == nil {
		tree.growRoot(leaf, sibling.keys[0], sibling)
		return
	}
	tree.insertKeyInParent(leaf.parent, sibling.keys[0], sibling)
}

// growRoot places a new root above left and right.
func (tree *BPlusTree[K, V]) growRoot(left *node[K, V], key K, right *node[K, V]) {
	root := &node[K, V]{
		keys:     []K{key},
		children: []*node[K, V]{left, right},
	}
	left.parent = root
	right.parent = root
	tree.root = root
	tree.height++
}

// insertKeyInParent inserts `key` and links `rightChild` after its left sibling.
func (tree *BPlusTree[K, V]) insertKeyInParent(parent *node[K, V], key K, rightChild *node[K, V]) {
	idx := findChildIndex(parent.keys, key)

	parent.keys = append(parent.keys, key)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, rightChild)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = rightChild

	rightChild.parent = parent

	// Check for overflow
	if len(parent.keys) > tree.order {
		tree.splitInternalNode(parent)
	}
}

// splitInternalNode handles splitting an internal node that has overflowed.
func (tree *BPlusTree[K, V]) splitInternalNode(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	sibling := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range sibling.children {
		child.parent = sibling
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	if internal.parent == nil {
		tree.growRoot(internal, splitKey, sibling)
		return
	}
	tree.insertKeyInParent(internal.parent, splitKey, sibling)
}
