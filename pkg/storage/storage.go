// Package storage persists checkpoints of record regions in pebble. Each
// checkpoint is identified by a KSUID, so checkpoints sort by creation time.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// ErrNoCheckpoint is returned when no checkpoint exists
var ErrNoCheckpoint = errors.New("no checkpoint found")

const (
	manifestPrefix = "checkpoint/"
	regionPrefix   = "record/"
)

// Manifest describes one checkpoint
type Manifest struct {
	ID           ksuid.KSUID `json:"id"`
	Created      time.Time   `json:"created"`
	Records      int         `json:"records"`
	RecordLength int         `json:"record_length"`
}

// CheckpointStorage stores checkpoints in a pebble database
type CheckpointStorage struct {
	db *pebble.DB
}

// NewCheckpointStorage opens or creates the pebble database at path
func NewCheckpointStorage(path string) (*CheckpointStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint storage: %w", err)
	}
	return &CheckpointStorage{db: db}, nil
}

func manifestKey(id ksuid.KSUID) []byte {
	return []byte(manifestPrefix + id.String())
}

func regionKeyPrefix(id ksuid.KSUID) []byte {
	return []byte(regionPrefix + id.String() + "/")
}

// regionKey encodes the record id so that keys sort by signed id
func regionKey(id ksuid.KSUID, recordID int32) []byte {
	return fmt.Appendf(regionKeyPrefix(id), "%08x", uint32(recordID)^0x80000000)
}

// prefixEnd returns the smallest key greater than every key starting with prefix
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}

// nextID returns a fresh KSUID that sorts after every existing checkpoint.
// KSUIDs only carry second resolution, so two checkpoints in the same second
// fall back to the successor of the latest one.
func (s *CheckpointStorage) nextID() (ksuid.KSUID, error) {
	id := ksuid.New()
	latest, err := s.Latest()
	if errors.Is(err, ErrNoCheckpoint) {
		return id, nil
	}
	if err != nil {
		return ksuid.Nil, err
	}
	if ksuid.Compare(id, latest.ID) <= 0 {
		id = latest.ID.Next()
	}
	return id, nil
}

// Save writes every region yielded by regions and a manifest in one batch
func (s *CheckpointStorage) Save(regions iter.Seq2[int32, []byte], recordLength int) (Manifest, error) {
	id, err := s.nextID()
	if err != nil {
		return Manifest{}, err
	}
	m := Manifest{ID: id, Created: time.Now().UTC(), RecordLength: recordLength}

	batch := s.db.NewBatch()
	defer batch.Close()

	for recordID, region := range regions {
		if len(region) != recordLength {
			return Manifest{}, fmt.Errorf("record %d: region length %d, expected %d", recordID, len(region), recordLength)
		}
		if err := batch.Set(regionKey(m.ID, recordID), region, nil); err != nil {
			return Manifest{}, fmt.Errorf("failed to stage record %d: %w", recordID, err)
		}
		m.Records++
	}

	data, err := json.Marshal(m)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := batch.Set(manifestKey(m.ID), data, nil); err != nil {
		return Manifest{}, fmt.Errorf("failed to stage manifest: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return Manifest{}, fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return m, nil
}

// List returns every manifest, oldest first
func (s *CheckpointStorage) List() ([]Manifest, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(manifestPrefix),
		UpperBound: prefixEnd([]byte(manifestPrefix)),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Manifest
	for it.First(); it.Valid(); it.Next() {
		var m Manifest
		if err := json.Unmarshal(it.Value(), &m); err != nil {
			return nil, fmt.Errorf("corrupt manifest %s: %w", it.Key(), err)
		}
		out = append(out, m)
	}
	return out, it.Error()
}

// Latest returns the most recent manifest or ErrNoCheckpoint
func (s *CheckpointStorage) Latest() (Manifest, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(manifestPrefix),
		UpperBound: prefixEnd([]byte(manifestPrefix)),
	})
	if err != nil {
		return Manifest{}, err
	}
	defer it.Close()

	if !it.Last() {
		if err := it.Error(); err != nil {
			return Manifest{}, err
		}
		return Manifest{}, ErrNoCheckpoint
	}
	var m Manifest
	if err := json.Unmarshal(it.Value(), &m); err != nil {
		return Manifest{}, fmt.Errorf("corrupt manifest %s: %w", it.Key(), err)
	}
	return m, nil
}

// Get returns the manifest of checkpoint id
func (s *CheckpointStorage) Get(id ksuid.KSUID) (Manifest, error) {
	data, closer, err := s.db.Get(manifestKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Manifest{}, fmt.Errorf("checkpoint %s: %w", id, ErrNoCheckpoint)
	}
	if err != nil {
		return Manifest{}, err
	}
	defer closer.Close()

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("corrupt manifest %s: %w", id, err)
	}
	return m, nil
}

// Load calls fn for every region of checkpoint id in ascending record id
// order. The region slice is only valid during the call.
func (s *CheckpointStorage) Load(id ksuid.KSUID, fn func(recordID int32, region []byte) error) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	prefix := regionKeyPrefix(id)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return err
	}
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		encoded, err := strconv.ParseUint(string(it.Key()[len(prefix):]), 16, 32)
		if err != nil {
			return fmt.Errorf("corrupt region key %s: %w", it.Key(), err)
		}
		if err := fn(int32(uint32(encoded)^0x80000000), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

// Delete removes checkpoint id and its regions
func (s *CheckpointStorage) Delete(id ksuid.KSUID) error {
	prefix := regionKeyPrefix(id)
	if err := s.db.DeleteRange(prefix, prefixEnd(prefix), pebble.Sync); err != nil {
		return err
	}
	return s.db.Delete(manifestKey(id), pebble.Sync)
}

// Prune keeps the newest keep checkpoints and deletes the rest
func (s *CheckpointStorage) Prune(keep int) (int, error) {
	manifests, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := 0; i < len(manifests)-keep; i++ {
		if err := s.Delete(manifests[i].ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Close closes the database
func (s *CheckpointStorage) Close() error {
	return s.db.Close()
}
