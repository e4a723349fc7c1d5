package index

import (
	"math"

	"github.com/ssargent/fixedrec/pkg/bptree"
)

// SecurityIndex maps securityId to record offsets. Entries are stored in a
// B+Tree under a composite key of value and offset so one value can point
// at many records while keeping range scans ordered.
type SecurityIndex struct {
	tree *bptree.BPlusTree[int64, int]
}

// NewSecurityIndex creates an empty index backed by a tree of the given order
func NewSecurityIndex(order int) *SecurityIndex {
	return &SecurityIndex{tree: bptree.NewBPlusTree[int64, int](order)}
}

// compositeKey orders by value first, then offset
func compositeKey(value int32, offset uint32) int64 {
	return int64(value)<<32 | int64(offset)
}

// Add indexes offset under value
func (idx *SecurityIndex) Add(value int32, offset int) {
	idx.tree.Insert(compositeKey(value, uint32(offset)), offset)
}

// Remove drops the (value, offset) pair if present
func (idx *SecurityIndex) Remove(value int32, offset int) bool {
	return idx.tree.Delete(compositeKey(value, uint32(offset)))
}

// Equal returns the offsets indexed under value in ascending order
func (idx *SecurityIndex) Equal(value int32) []int {
	return idx.Range(value, value)
}

// Range returns the offsets whose value lies in [lo, hi], ordered by value then offset
func (idx *SecurityIndex) Range(lo, hi int32) []int {
	var out []int
	idx.tree.Range(compositeKey(lo, 0), compositeKey(hi, math.MaxUint32), func(_ int64, offset int) bool {
		out = append(out, offset)
		return true
	})
	return out
}

// Len returns the number of indexed (value, offset) pairs
func (idx *SecurityIndex) Len() int {
	return idx.tree.Len()
}
