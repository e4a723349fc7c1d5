package api

import (
	"context"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/query"
	"github.com/ssargent/fixedrec/pkg/storage"
	"github.com/ssargent/fixedrec/pkg/store"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PutResponse reports the outcome of a put
type PutResponse struct {
	Created    bool                `json:"created"`
	Instrument instrument.Snapshot `json:"instrument"`
}

// RestoreRequest selects a checkpoint; an empty ID restores the latest one
type RestoreRequest struct {
	ID string `json:"id"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
}

// InstrumentStore defines the store operations the API serves
type InstrumentStore interface {
	Put(snap instrument.Snapshot) (bool, error)
	Lookup(id int32) (instrument.Snapshot, error)
	Delete(id int32) error
	Scan(fn func(v instrument.View) bool) error
	Query(ctx context.Context, q query.FieldQuery) ([]instrument.Snapshot, error)
	Stats() *store.StoreStats

	// Checkpoints
	Checkpoint(ctx context.Context) (storage.Manifest, error)
	Checkpoints() ([]storage.Manifest, error)
	Restore(ctx context.Context, id ksuid.KSUID) (storage.Manifest, error)
}
