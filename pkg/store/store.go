// Package store keeps Instrument records in a slab: consecutive 30-byte
// slots in one buffer, heap-allocated or backed by a memory-mapped file.
// A slot is live when its header validates. Flyweights read and write the
// slab in place; snapshots are only taken at the API edges.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/codec"
	"github.com/ssargent/fixedrec/pkg/index"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/logging"
	"github.com/ssargent/fixedrec/pkg/query"
	"github.com/ssargent/fixedrec/pkg/storage"
)

const recordLength = instrument.BufferLength

// Store is an instrument store over a slab of fixed-length slots.
// Writes are serialized by the store; the single write flyweight carries
// the index hooks.
type Store struct {
	config   Config
	capacity int

	slab        buffer.Writer
	mapped      *buffer.Mapped
	primary     *HashIndex
	indexes     *index.Manager
	free        *roaring.Bitmap // free slot numbers
	writer      *instrument.Instrument
	checkpoints *storage.CheckpointStorage
	logger      *logging.Logger

	mutex  sync.RWMutex
	isOpen bool
}

// NewStore validates config and prepares a store. Call Open before use.
func NewStore(config Config) (*Store, error) {
	if config.Capacity < 0 {
		return nil, fmt.Errorf("invalid capacity %d", config.Capacity)
	}
	if config.Capacity == 0 {
		config.Capacity = DefaultCapacity
	}
	if config.Capacity > math.MaxUint32/recordLength {
		return nil, fmt.Errorf("capacity %d exceeds the addressable slab size", config.Capacity)
	}
	if config.Mmap && config.DataDir == "" {
		return nil, fmt.Errorf("mmap requires a data directory")
	}
	if config.Logger == nil {
		config.Logger = logging.NoopLogger()
	}
	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			return nil, err
		}
	}

	return &Store{
		config:   config,
		capacity: config.Capacity,
		logger:   config.Logger.WithComponent("store"),
	}, nil
}

// Open allocates or maps the slab, recovers live records and rebuilds the indexes
func (s *Store) Open(ctx context.Context) (*RecoveryResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isOpen {
		return &RecoveryResult{}, nil
	}
	start := time.Now()

	if err := s.openSlab(); err != nil {
		s.logger.LogOpen(ctx, s.config.DataDir, 0, 0, 0, err)
		return nil, err
	}
	if s.config.DataDir != "" {
		cs, err := storage.NewCheckpointStorage(filepath.Join(s.config.DataDir, checkpointsDir))
		if err != nil {
			_ = s.mapped.Close()
			return nil, err
		}
		s.checkpoints = cs
	}

	s.primary = NewHashIndex(HashIndexConfig{InitialCapacity: s.capacity})
	s.indexes = index.NewManager(s.slab, s.config.BTreeOrder)
	s.writer = instrument.New()
	s.indexes.Attach(s.writer)

	result := s.recover()
	if err := s.indexes.Rebuild(ctx, s.records()); err != nil {
		_ = s.closeResources()
		return nil, err
	}
	result.IndexRebuilt = true
	result.RecoveryTime = time.Since(start).Nanoseconds()

	s.isOpen = true
	s.logger.LogOpen(ctx, s.config.DataDir, result.RecordsRecovered, result.SlotsSkipped, time.Since(start), nil)
	return result, nil
}

func (s *Store) openSlab() error {
	size := s.capacity * recordLength
	if !s.config.Mmap {
		s.slab = buffer.Allocate(size)
		return nil
	}

	m, err := buffer.CreateMapped(filepath.Join(s.config.DataDir, slabFileName), size)
	if err != nil {
		return fmt.Errorf("failed to map slab: %w", err)
	}
	s.mapped = m
	s.slab = m.Buffer().(buffer.Writer)
	// an existing file may be larger than the configured capacity
	s.capacity = m.Len() / recordLength
	return nil
}

// recover scans every slot. Slots with a valid header are live; other
// non-empty slots and later duplicates of an id are cleared.
func (s *Store) recover() *RecoveryResult {
	result := &RecoveryResult{}
	s.free = roaring.New()
	view := instrument.NewView()

	for slot := 0; slot < s.capacity; slot++ {
		off := slot * recordLength
		result.SlotsScanned++
		_ = view.Bind(s.slab, off)

		if view.ValidateHeader() {
			id := view.ReadID()
			if _, dup := s.primary.Get(id); !dup {
				s.primary.Put(id, &IndexEntry{Slot: slot, Offset: off})
				result.RecordsRecovered++
				continue
			}
		}
		if slices.ContainsFunc(view.Region(), func(b byte) bool { return b != 0 }) {
			result.SlotsSkipped++
			s.slab.Fill(off, recordLength, 0)
		}
		s.free.Add(uint32(slot))
	}
	return result
}

// records yields a reused view over every live record in slot order.
// Must be called with the mutex held.
func (s *Store) records() iter.Seq[instrument.View] {
	return func(yield func(instrument.View) bool) {
		view := instrument.NewView()
		for _, e := range s.primary.BySlot() {
			if err := view.Bind(s.slab, e.Offset); err != nil {
				return
			}
			if !yield(view) {
				return
			}
		}
	}
}

func validateSnapshot(snap instrument.Snapshot) error {
	if n := codec.ASCIILength(snap.Cusip); n > instrument.CusipLength {
		return fmt.Errorf("cusip %q has %d characters: %w", snap.Cusip, n, instrument.ErrValueTooLong)
	}
	return nil
}

// Put inserts snap, or updates the non-key fields of an existing instrument
// with the same id. It reports whether a new record was created.
func (s *Store) Put(snap instrument.Snapshot) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return false, ErrStoreClosed
	}
	if err := validateSnapshot(snap); err != nil {
		return false, err
	}

	if e, ok := s.primary.Get(snap.ID); ok {
		if err := s.writer.Bind(s.slab, e.Offset); err != nil {
			return false, err
		}
		s.writer.LockKey()
		return false, s.writer.UpdateFrom(snap)
	}

	if s.free.IsEmpty() {
		return false, ErrStoreFull
	}
	slot := int(s.free.Minimum())
	off := slot * recordLength

	if err := s.writer.BindAndInitialize(s.slab, off); err != nil {
		return false, err
	}
	if err := s.writer.WriteID(snap.ID); err != nil {
		s.release(slot, off)
		return false, err
	}
	s.writer.LockKey()
	if err := s.writer.UpdateFrom(snap); err != nil {
		s.release(slot, off)
		return false, err
	}

	s.free.Remove(uint32(slot))
	s.primary.Put(snap.ID, &IndexEntry{Slot: slot, Offset: off})
	return true, nil
}

// release drops a slot from the indexes and clears it
func (s *Store) release(slot, off int) {
	view := instrument.NewView()
	if err := view.Bind(s.slab, off); err == nil {
		s.indexes.Remove(view)
	}
	s.slab.Fill(off, recordLength, 0)
	s.free.Add(uint32(slot))
}

// Get returns a read-only view of instrument id. The view reads the live
// slab, so it observes later writes; use Lookup for a detached copy.
func (s *Store) Get(id int32) (instrument.View, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return instrument.View{}, ErrStoreClosed
	}
	e, ok := s.primary.Get(id)
	if !ok {
		return instrument.View{}, ErrKeyNotFound
	}
	view := instrument.NewView()
	if err := view.Bind(s.slab, e.Offset); err != nil {
		return instrument.View{}, err
	}
	return view, nil
}

// Lookup returns a snapshot of instrument id
func (s *Store) Lookup(id int32) (instrument.Snapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return instrument.Snapshot{}, ErrStoreClosed
	}
	e, ok := s.primary.Get(id)
	if !ok {
		return instrument.Snapshot{}, ErrKeyNotFound
	}
	view := instrument.NewView()
	if err := view.Bind(s.slab, e.Offset); err != nil {
		return instrument.Snapshot{}, err
	}
	return view.Snapshot(), nil
}

// Delete removes instrument id from the indexes and clears its slot
func (s *Store) Delete(id int32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrStoreClosed
	}
	e, ok := s.primary.Get(id)
	if !ok {
		return ErrKeyNotFound
	}
	s.release(e.Slot, e.Offset)
	s.primary.Delete(id)
	return nil
}

// Update binds the store's write flyweight to instrument id with its key
// locked and calls fn. Index hooks fire for every indexed write. Writes made
// before fn returns an error are not rolled back. fn must not rebind inst.
func (s *Store) Update(id int32, fn func(inst *instrument.Instrument) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrStoreClosed
	}
	e, ok := s.primary.Get(id)
	if !ok {
		return ErrKeyNotFound
	}
	if err := s.writer.Bind(s.slab, e.Offset); err != nil {
		return err
	}
	s.writer.LockKey()
	return fn(s.writer)
}

// Scan calls fn for every live record in slot order until fn returns false.
// The view is reused between calls.
func (s *Store) Scan(fn func(v instrument.View) bool) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return ErrStoreClosed
	}
	for v := range s.records() {
		if !fn(v) {
			break
		}
	}
	return nil
}

// Query runs q against the secondary indexes and returns snapshots of the matches
func (s *Store) Query(ctx context.Context, q query.FieldQuery) ([]instrument.Snapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return nil, ErrStoreClosed
	}
	it, err := query.NewSimpleQueryEngine(lockedSource{s}).ExecuteQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	return query.Collect(it)
}

// Indexes returns the secondary index manager
func (s *Store) Indexes() *index.Manager {
	return s.indexes
}

// Slab returns a read-only view of the slab
func (s *Store) Slab() buffer.Reader {
	return buffer.Freeze(s.slab)
}

// lockedSource exposes the store to the query engine. Only valid while
// the store mutex is held.
type lockedSource struct {
	s *Store
}

func (l lockedSource) Indexes() *index.Manager { return l.s.indexes }
func (l lockedSource) Slab() buffer.Reader     { return buffer.Freeze(l.s.slab) }

func (l lockedSource) OffsetOf(id int32) (int, bool) {
	e, ok := l.s.primary.Get(id)
	if !ok {
		return 0, false
	}
	return e.Offset, true
}

// Len returns the number of live records
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return 0
	}
	return s.primary.Size()
}

// Stats returns store statistics
func (s *Store) Stats() *StoreStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return &StoreStats{}
	}
	return &StoreStats{
		Records:   s.primary.Size(),
		Capacity:  s.capacity,
		FreeSlots: int(s.free.GetCardinality()),
		SlabBytes: s.slab.Capacity(),
		Mapped:    s.mapped != nil,
		Indexes:   s.indexes.Stats(),
	}
}

// Sync flushes a memory-mapped slab to its file
func (s *Store) Sync() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.mapped.Sync()
}

// Checkpoint saves every live record region to the checkpoint storage
func (s *Store) Checkpoint(ctx context.Context) (storage.Manifest, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return storage.Manifest{}, ErrStoreClosed
	}
	if s.checkpoints == nil {
		return storage.Manifest{}, ErrNoCheckpointTarget
	}
	if err := ctx.Err(); err != nil {
		return storage.Manifest{}, err
	}

	regions := func(yield func(int32, []byte) bool) {
		for v := range s.records() {
			if !yield(v.ReadID(), v.Region()) {
				return
			}
		}
	}
	m, err := s.checkpoints.Save(regions, recordLength)
	s.logger.LogCheckpoint(ctx, m.ID.String(), m.Records, err)
	return m, err
}

// Checkpoints lists saved checkpoints, oldest first
func (s *Store) Checkpoints() ([]storage.Manifest, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.checkpoints == nil {
		return nil, ErrNoCheckpointTarget
	}
	return s.checkpoints.List()
}

// Restore replaces the slab contents with checkpoint id, or with the latest
// checkpoint when id is ksuid.Nil, and rebuilds every index. Regions are
// loaded into a scratch slab first; on any failure the store is unchanged.
func (s *Store) Restore(ctx context.Context, id ksuid.KSUID) (storage.Manifest, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return storage.Manifest{}, ErrStoreClosed
	}
	if s.checkpoints == nil {
		return storage.Manifest{}, ErrNoCheckpointTarget
	}

	var (
		m   storage.Manifest
		err error
	)
	if id == ksuid.Nil {
		m, err = s.checkpoints.Latest()
	} else {
		m, err = s.checkpoints.Get(id)
	}
	if err != nil {
		return m, err
	}
	if m.RecordLength != recordLength {
		return m, fmt.Errorf("checkpoint %s has record length %d: %w", m.ID, m.RecordLength, ErrCorruption)
	}
	if m.Records > s.capacity {
		return m, fmt.Errorf("checkpoint %s has %d records: %w", m.ID, m.Records, ErrStoreFull)
	}

	loader := newSlabLoader(s.slab.Capacity(), s.capacity)
	err = s.checkpoints.Load(m.ID, func(recordID int32, region []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return loader.load(recordID, region)
	})
	if err != nil {
		err = fmt.Errorf("checkpoint %s: %w", m.ID, err)
		s.logger.LogRestore(ctx, m.ID.String(), 0, err)
		return m, err
	}

	s.slab.PutBytes(0, loader.slab.Bytes(0, loader.slab.Capacity()))
	s.primary = loader.primary
	s.free = loader.free
	// the slab is committed, so the indexes must follow it even if ctx ends now
	err = s.indexes.Rebuild(context.WithoutCancel(ctx), s.records())
	s.logger.LogRestore(ctx, m.ID.String(), loader.slot, err)
	return m, err
}

// slabLoader fills a scratch slab from checkpoint regions, one slot per
// region in load order.
type slabLoader struct {
	slab     *buffer.Mutable
	primary  *HashIndex
	free     *roaring.Bitmap
	view     instrument.View
	capacity int
	slot     int
}

func newSlabLoader(size, capacity int) *slabLoader {
	free := roaring.New()
	free.AddRange(0, uint64(capacity))
	return &slabLoader{
		slab:     buffer.Allocate(size),
		primary:  NewHashIndex(HashIndexConfig{InitialCapacity: capacity}),
		free:     free,
		view:     instrument.NewView(),
		capacity: capacity,
	}
}

func (l *slabLoader) load(recordID int32, region []byte) error {
	if len(region) != recordLength {
		return fmt.Errorf("record %d has length %d: %w", recordID, len(region), ErrCorruption)
	}
	if l.slot >= l.capacity {
		return fmt.Errorf("record %d exceeds %d slots: %w", recordID, l.capacity, ErrCorruption)
	}
	if _, dup := l.primary.Get(recordID); dup {
		return fmt.Errorf("record %d appears twice: %w", recordID, ErrCorruption)
	}

	off := l.slot * recordLength
	l.slab.PutBytes(off, region)
	if err := l.view.Bind(l.slab, off); err != nil {
		return err
	}
	if !l.view.ValidateHeader() || l.view.ReadID() != recordID {
		return fmt.Errorf("record %d: %w", recordID, ErrCorruption)
	}
	l.primary.Put(recordID, &IndexEntry{Slot: l.slot, Offset: off})
	l.free.Remove(uint32(l.slot))
	l.slot++
	return nil
}

// Export writes every live record region to w as one zstd stream
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return 0, ErrStoreClosed
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("failed to create compressor: %w", err)
	}

	n := 0
	for v := range s.records() {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return n, err
		}
		if _, err := zw.Write(v.Region()); err != nil {
			_ = zw.Close()
			return n, err
		}
		n++
	}
	err = zw.Close()
	s.logger.LogTransfer(ctx, "export", n, err)
	return n, err
}

// Import reads a stream written by Export and puts every record. Records
// with an existing id update it.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer zr.Close()

	chunk := make([]byte, recordLength)
	view := instrument.NewView()
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, err := io.ReadFull(zr, chunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("truncated record after %d records: %w", n, ErrCorruption)
		}
		if err != nil {
			return n, err
		}

		if err := view.Bind(buffer.NewReadOnly(chunk), 0); err != nil {
			return n, err
		}
		if !view.ValidateHeader() {
			return n, fmt.Errorf("record %d has header %s: %w", n, view.Header(), ErrCorruption)
		}
		if _, err := s.Put(view.Snapshot()); err != nil {
			return n, err
		}
		n++
	}
	s.logger.LogTransfer(ctx, "import", n, nil)
	return n, nil
}

// Close flushes and unmaps the slab and closes the checkpoint storage
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil
	}
	s.isOpen = false
	return s.closeResources()
}

func (s *Store) closeResources() error {
	var result *multierror.Error
	if err := s.mapped.Sync(); err != nil {
		result = multierror.Append(result, fmt.Errorf("sync slab: %w", err))
	}
	if err := s.mapped.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("unmap slab: %w", err))
	}
	s.mapped = nil
	if s.checkpoints != nil {
		if err := s.checkpoints.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close checkpoints: %w", err))
		}
		s.checkpoints = nil
	}
	return result.ErrorOrNil()
}
