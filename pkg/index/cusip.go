package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/armon/go-radix"
	"github.com/ssargent/fixedrec/pkg/codec"
)

// CusipIndex maps cusip strings to record offsets in a radix tree. Keys are
// stored with padding trimmed, so a left-padded write and a plain write of
// the same identifier land on the same key.
type CusipIndex struct {
	mu   sync.RWMutex
	tree *radix.Tree // string -> *roaring.Bitmap
	size int
}

// NewCusipIndex creates an empty index
func NewCusipIndex() *CusipIndex {
	return &CusipIndex{tree: radix.New()}
}

// Add indexes offset under cusip
func (idx *CusipIndex) Add(cusip string, offset int) {
	key := codec.TrimASCII(cusip)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var bm *roaring.Bitmap
	if v, ok := idx.tree.Get(key); ok {
		bm = v.(*roaring.Bitmap)
	} else {
		bm = roaring.New()
		idx.tree.Insert(key, bm)
	}
	if bm.CheckedAdd(uint32(offset)) {
		idx.size++
	}
}

// Remove drops the (cusip, offset) pair if present
func (idx *CusipIndex) Remove(cusip string, offset int) bool {
	key := codec.TrimASCII(cusip)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	v, ok := idx.tree.Get(key)
	if !ok {
		return false
	}
	bm := v.(*roaring.Bitmap)
	if !bm.CheckedRemove(uint32(offset)) {
		return false
	}
	idx.size--
	if bm.IsEmpty() {
		idx.tree.Delete(key)
	}
	return true
}

// Exact returns the offsets indexed under cusip
func (idx *CusipIndex) Exact(cusip string) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	v, ok := idx.tree.Get(codec.TrimASCII(cusip))
	if !ok {
		return nil
	}
	return toOffsets(v.(*roaring.Bitmap))
}

// Prefix returns the offsets of every cusip starting with prefix, in key order
func (idx *CusipIndex) Prefix(prefix string) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []int
	idx.tree.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		out = appendOffsets(out, v.(*roaring.Bitmap))
		return false
	})
	return out
}

// Walk visits keys in lexical order until fn returns false
func (idx *CusipIndex) Walk(fn func(cusip string, offsets []int) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.tree.Walk(func(key string, v interface{}) bool {
		return !fn(key, toOffsets(v.(*roaring.Bitmap)))
	})
}

// Keys returns the number of distinct cusips
func (idx *CusipIndex) Keys() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Len returns the number of indexed (cusip, offset) pairs
func (idx *CusipIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}
