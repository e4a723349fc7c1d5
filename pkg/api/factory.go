// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/fixedrec/pkg/logging"
	"github.com/ssargent/fixedrec/pkg/store"
)

// DefaultStoreFactory is the default implementation of StoreFactory
type DefaultStoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() StoreFactory {
	return &DefaultStoreFactory{}
}

// CreateStoreOpener creates a store opener
func (f *DefaultStoreFactory) CreateStoreOpener() StoreOpener {
	return &DefaultStoreOpener{}
}

// DefaultStoreOpener is the default implementation of StoreOpener
type DefaultStoreOpener struct{}

// OpenStore creates and opens a store. The store is closed again if
// recovery fails.
func (o *DefaultStoreOpener) OpenStore(ctx context.Context, config store.Config) (*store.Store, *store.RecoveryResult, error) {
	s, err := store.NewStore(config)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Open(ctx)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, result, nil
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter registers metrics with the default Prometheus registry
type DefaultServerStarter struct{}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, st InstrumentStore, config ServerConfig, logger *logging.Logger) error {
	return StartServer(ctx, st, config, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}
