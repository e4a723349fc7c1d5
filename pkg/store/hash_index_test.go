package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHashIndex(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{InitialCapacity: 16})

	assert.NotNil(t, idx)
	assert.NotNil(t, idx.entries)
	assert.Equal(t, 0, idx.Size())
}

func TestHashIndex_PutAndGet(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{})
	entry := &IndexEntry{Slot: 3, Offset: 90}

	idx.Put(42, entry)

	retrieved, exists := idx.Get(42)
	assert.True(t, exists)
	assert.Equal(t, entry, retrieved)

	_, exists = idx.Get(7)
	assert.False(t, exists)
}

func TestHashIndex_Put_Overwrite(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{})

	idx.Put(1, &IndexEntry{Slot: 1, Offset: 30})
	idx.Put(1, &IndexEntry{Slot: 2, Offset: 60})

	retrieved, exists := idx.Get(1)
	assert.True(t, exists)
	assert.Equal(t, 2, retrieved.Slot)
	assert.Equal(t, 1, idx.Size())
}

func TestHashIndex_Delete(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{})
	idx.Put(1, &IndexEntry{})

	idx.Delete(1)
	_, exists := idx.Get(1)
	assert.False(t, exists)

	// deleting a missing id is a no-op
	idx.Delete(1)
	assert.Equal(t, 0, idx.Size())
}

func TestHashIndex_BySlot(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{})
	idx.Put(30, &IndexEntry{Slot: 0, Offset: 0})
	idx.Put(-4, &IndexEntry{Slot: 2, Offset: 60})
	idx.Put(12, &IndexEntry{Slot: 1, Offset: 30})

	assert.Equal(t, []IndexEntry{{0, 0}, {1, 30}, {2, 60}}, idx.BySlot())
}

func TestHashIndex_Clear(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{})
	for i := int32(0); i < 3; i++ {
		idx.Put(i, &IndexEntry{})
	}
	assert.Equal(t, 3, idx.Size())

	idx.Clear()
	assert.Equal(t, 0, idx.Size())
	_, ok := idx.Get(1)
	assert.False(t, ok)
}

func TestHashIndex_ConcurrentAccess(t *testing.T) {
	idx := NewHashIndex(HashIndexConfig{})

	done := make(chan bool, 3)

	// Writer goroutine
	go func() {
		for i := 0; i < 100; i++ {
			idx.Put(int32(i), &IndexEntry{Slot: i, Offset: i * 30})
		}
		done <- true
	}()

	// Reader goroutine 1
	go func() {
		for i := 0; i < 50; i++ {
			idx.Get(int32(i % 100))
		}
		done <- true
	}()

	// Reader goroutine 2
	go func() {
		for i := 0; i < 50; i++ {
			idx.Size()
			idx.BySlot()
		}
		done <- true
	}()

	<-done
	<-done
	<-done
}

func BenchmarkHashIndex_Put(b *testing.B) {
	idx := NewHashIndex(HashIndexConfig{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Put(int32(i), &IndexEntry{Slot: i, Offset: i * 30})
	}
}

func BenchmarkHashIndex_Get(b *testing.B) {
	idx := NewHashIndex(HashIndexConfig{})
	for i := 0; i < 10000; i++ {
		idx.Put(int32(i), &IndexEntry{Slot: i, Offset: i * 30})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Get(int32(i % 10000))
	}
}
