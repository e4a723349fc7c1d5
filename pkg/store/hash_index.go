package store

import (
	"cmp"
	"slices"
	"sync"
)

// HashIndex provides O(1) average-case lookups from instrument id to slot
type HashIndex struct {
	entries map[int32]*IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates a new hash index
func NewHashIndex(config HashIndexConfig) *HashIndex {
	return &HashIndex{
		entries: make(map[int32]*IndexEntry, config.InitialCapacity),
	}
}

// Put adds or updates the entry for id
func (idx *HashIndex) Put(id int32, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries[id] = entry
}

// Get retrieves the entry for id
func (idx *HashIndex) Get(id int32) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	entry, exists := idx.entries[id]
	return entry, exists
}

// Delete removes id from the index
func (idx *HashIndex) Delete(id int32) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	delete(idx.entries, id)
}

// Size returns the number of ids in the index
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}

// Clear removes all entries from the index
func (idx *HashIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[int32]*IndexEntry)
}

// BySlot returns all entries ordered by slot
func (idx *HashIndex) BySlot() []IndexEntry {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	out := make([]IndexEntry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b IndexEntry) int { return cmp.Compare(a.Slot, b.Slot) })
	return out
}
