package store

import (
	"github.com/ssargent/fixedrec/pkg/index"
	"github.com/ssargent/fixedrec/pkg/logging"
)

// IndexEntry locates one instrument in the slab
type IndexEntry struct {
	Slot   int // Slot number within the slab
	Offset int // Byte offset of the record region
}

// HashIndexConfig holds configuration for the hash index
type HashIndexConfig struct {
	// InitialCapacity presizes the map
	InitialCapacity int
}

// Config holds configuration for the instrument store
type Config struct {
	DataDir    string          // Directory for the slab file and checkpoints; empty keeps everything in memory
	Capacity   int             // Number of record slots
	Mmap       bool            // Back the slab with a memory-mapped file in DataDir
	BTreeOrder int             // Branching factor of the securityId index
	Logger     *logging.Logger // Defaults to a no-op logger
}

const (
	// DefaultCapacity is the slot count used when Config.Capacity is zero
	DefaultCapacity = 4096

	slabFileName   = "instruments.slab"
	checkpointsDir = "checkpoints"
)

// RecoveryResult reports what Open found in the slab
type RecoveryResult struct {
	SlotsScanned     int   `json:"slots_scanned"`
	RecordsRecovered int   `json:"records_recovered"`
	SlotsSkipped     int   `json:"slots_skipped"` // non-empty slots without a valid header, or duplicate ids
	IndexRebuilt     bool  `json:"index_rebuilt"`
	RecoveryTime     int64 `json:"recovery_time_ns"`
}

// StoreStats holds statistics about the store
type StoreStats struct {
	Records   int         `json:"records"`
	Capacity  int         `json:"capacity"`
	FreeSlots int         `json:"free_slots"`
	SlabBytes int         `json:"slab_bytes"`
	Mapped    bool        `json:"mapped"`
	Indexes   index.Stats `json:"indexes"`
}

// Errors
var (
	ErrKeyNotFound        = &StoreError{"instrument not found"}
	ErrStoreFull          = &StoreError{"no free slots"}
	ErrStoreClosed        = &StoreError{"store is not open"}
	ErrCorruption         = &StoreError{"data corruption detected"}
	ErrNoCheckpointTarget = &StoreError{"checkpoints need a data directory"}
)

// StoreError represents an instrument store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
