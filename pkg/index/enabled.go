package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// EnabledIndex partitions record offsets by the enabled flag
type EnabledIndex struct {
	mu       sync.RWMutex
	enabled  *roaring.Bitmap
	disabled *roaring.Bitmap
}

// NewEnabledIndex creates an empty index
func NewEnabledIndex() *EnabledIndex {
	return &EnabledIndex{
		enabled:  roaring.New(),
		disabled: roaring.New(),
	}
}

func (idx *EnabledIndex) set(value bool) *roaring.Bitmap {
	if value {
		return idx.enabled
	}
	return idx.disabled
}

// Add indexes offset under value
func (idx *EnabledIndex) Add(value bool, offset int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.set(value).Add(uint32(offset))
}

// Remove drops the (value, offset) pair if present
func (idx *EnabledIndex) Remove(value bool, offset int) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.set(value).CheckedRemove(uint32(offset))
}

// Offsets returns the offsets indexed under value in ascending order
func (idx *EnabledIndex) Offsets(value bool) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return toOffsets(idx.set(value))
}

// Count returns the number of offsets indexed under value
func (idx *EnabledIndex) Count(value bool) uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.set(value).GetCardinality()
}

func toOffsets(bm *roaring.Bitmap) []int {
	return appendOffsets(make([]int, 0, bm.GetCardinality()), bm)
}

func appendOffsets(out []int, bm *roaring.Bitmap) []int {
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
