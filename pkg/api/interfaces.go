// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/fixedrec/pkg/logging"
	"github.com/ssargent/fixedrec/pkg/store"
)

// StoreOpener opens an instrument store
type StoreOpener interface {
	// OpenStore creates the store and runs recovery
	OpenStore(ctx context.Context, config store.Config) (*store.Store, *store.RecoveryResult, error)
}

// StoreFactory creates store openers
type StoreFactory interface {
	CreateStoreOpener() StoreOpener
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, store InstrumentStore, config ServerConfig, logger *logging.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
