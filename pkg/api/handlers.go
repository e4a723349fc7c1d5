package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/logging"
	"github.com/ssargent/fixedrec/pkg/query"
)

const maxBodyBytes = 1 << 16

// Server holds the API server state
type Server struct {
	store   InstrumentStore
	config  ServerConfig
	metrics *Metrics
	logger  *logging.Logger
}

// NewServer creates a new API server
func NewServer(store InstrumentStore, config ServerConfig, metrics *Metrics, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoopLogger()
	}
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger.WithComponent("api"),
	}
}

// observe records a store operation when metrics are configured
func (s *Server) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(operation, err == nil, time.Since(start))
	}
}

func parseID(r *http.Request) (int32, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return int32(id), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RecordHealthCheck(true)
	}
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handlePut stores the instrument in the body under the id in the path.
// A body id, when present, must match the path.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := parseID(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var snap instrument.Snapshot
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if snap.ID != 0 && snap.ID != id {
		sendError(w, fmt.Sprintf("body id %d does not match path id %d", snap.ID, id), http.StatusBadRequest)
		return
	}
	snap.ID = id

	created, err := s.store.Put(snap)
	s.observe("put", start, err)
	if err != nil {
		s.logger.WithID(id).ErrorContext(r.Context(), "put failed", "error", err)
		sendStoreError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	sendJSON(w, status, PutResponse{Created: created, Instrument: snap})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := parseID(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := s.store.Lookup(id)
	s.observe("get", start, err)
	if err != nil {
		sendStoreError(w, err)
		return
	}
	sendSuccess(w, snap)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := parseID(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.store.Delete(id)
	s.observe("delete", start, err)
	if err != nil {
		sendStoreError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Instrument deleted successfully"})
}

// handleList returns every instrument, or the matches of a field query
// given as ?field=&op=&value=. op defaults to "=".
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()

	limit := 0
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	field := params.Get("field")
	if field == "" {
		results := []instrument.Snapshot{}
		err := s.store.Scan(func(v instrument.View) bool {
			results = append(results, v.Snapshot())
			return limit == 0 || len(results) < limit
		})
		s.observe("scan", start, err)
		if err != nil {
			sendStoreError(w, err)
			return
		}
		sendSuccess(w, results)
		return
	}

	op := params.Get("op")
	if op == "" {
		op = query.OpEqual
	}
	q, err := query.ParseFieldQuery(field, op, params.Get("value"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.store.Query(r.Context(), q)
	s.observe("query", start, err)
	if err != nil {
		sendStoreError(w, err)
		return
	}
	if results == nil {
		results = []instrument.Snapshot{}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	sendSuccess(w, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, s.store.Stats())
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Checkpoint(r.Context())
	if s.metrics != nil {
		s.metrics.RecordCheckpointOperation("checkpoint", err == nil)
	}
	if err != nil {
		sendStoreError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	manifests, err := s.store.Checkpoints()
	if err != nil {
		sendStoreError(w, err)
		return
	}
	sendSuccess(w, manifests)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	id := ksuid.Nil
	if req.ID != "" {
		parsed, err := ksuid.Parse(req.ID)
		if err != nil {
			sendError(w, fmt.Sprintf("invalid checkpoint id %q", req.ID), http.StatusBadRequest)
			return
		}
		id = parsed
	}

	m, err := s.store.Restore(r.Context(), id)
	if s.metrics != nil {
		s.metrics.RecordCheckpointOperation("restore", err == nil)
	}
	if err != nil {
		sendStoreError(w, err)
		return
	}
	sendSuccess(w, m)
}
