// Package api serves the instrument store over HTTP.
//
// Every route under /api/v1 requires the X-API-Key header. /metrics is left
// open for Prometheus scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/fixedrec/pkg/logging"
)

const (
	metricsInterval = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// ErrMissingAPIKey is returned when the server is started without an API key
var ErrMissingAPIKey = errors.New("api key is required to serve")

// Routes builds the router. gatherer backs the /metrics endpoint.
func (s *Server) Routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	m := s.metrics
	instrumented := func(method, endpoint string, h http.HandlerFunc) http.HandlerFunc {
		if m == nil {
			return h
		}
		return m.InstrumentHandler(method, endpoint, h)
	}

	r.Route("/api/v1", func(r chi.Router) {
		auth := apiKeyMiddleware(s.config.APIKey)
		if m != nil {
			auth = m.InstrumentAuthMiddleware(auth)
		}
		r.Use(auth)

		r.Get("/health", instrumented("GET", "/api/v1/health", s.handleHealth))

		r.Get("/instruments", instrumented("GET", "/api/v1/instruments", s.handleList))
		r.Put("/instruments/{id}", instrumented("PUT", "/api/v1/instruments/{id}", s.handlePut))
		r.Get("/instruments/{id}", instrumented("GET", "/api/v1/instruments/{id}", s.handleGet))
		r.Delete("/instruments/{id}", instrumented("DELETE", "/api/v1/instruments/{id}", s.handleDelete))

		r.Get("/checkpoints", instrumented("GET", "/api/v1/checkpoints", s.handleListCheckpoints))
		r.Post("/checkpoints", instrumented("POST", "/api/v1/checkpoints", s.handleCheckpoint))
		r.Post("/checkpoints/restore", instrumented("POST", "/api/v1/checkpoints/restore", s.handleRestore))

		r.Get("/stats", instrumented("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// startMetricsUpdater refreshes the store gauges until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	s.metrics.UpdateStoreStats(s.store.Stats())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateStoreStats(s.store.Stats())
		}
	}
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully. Metrics are registered with reg and exposed from gatherer.
func StartServer(ctx context.Context, store InstrumentStore, config ServerConfig, logger *logging.Logger,
	reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	if config.APIKey == "" {
		return ErrMissingAPIKey
	}
	if logger == nil {
		logger = logging.NoopLogger()
	}

	server := NewServer(store, config, NewMetrics(reg), logger)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go server.startMetricsUpdater(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting REST API server", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	logger.Info("shutting down REST API server", "addr", addr)
	return httpServer.Shutdown(shutdownCtx)
}
