package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Server wraps a Records implementation and provides HTTP endpoints.
type Server struct {
	records Records
	logger  *zap.Logger
}

// NewServer creates a new records HTTP server.
func NewServer(records Records, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		records: records,
		logger:  logger,
	}
}

// Handler returns the http.Handler for the records endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /id", s.handleGetID)
	mux.HandleFunc("GET /{address}", s.handleGet)
	mux.HandleFunc("POST /{address}", s.handleMutation(s.records.Put))
	mux.HandleFunc("PUT /{address}", s.handleMutation(s.records.Post))
	mux.HandleFunc("DELETE /{address}", s.handleMutation(s.records.Delete))

	return mux
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

func (s *Server) handleGetID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(s.records.ID()))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	var tag uint64
	if raw := r.URL.Query().Get("tag"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "Bad Request: invalid tag", http.StatusBadRequest)
			return
		}
		tag = parsed
	}

	rec, err := s.records.Get(r.Context(), address, tag)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.FormatUint(rec.Version, 10))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		s.logger.Warn("failed to encode record", zap.String("address", address), zap.Error(err))
	}
}

func (s *Server) handleMutation(op func(context.Context, Record) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")

		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "Bad Request: valid JSON expected", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if rec.Address != address {
			http.Error(w, "Bad Request: address does not match path", http.StatusBadRequest)
			return
		}

		if err := op(r.Context(), rec); err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("ETag", strconv.FormatUint(rec.Version, 10))
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, ErrRecordExists), errors.Is(err, ErrConflict):
		http.Error(w, "Conflict: "+err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrTagMismatch), errors.Is(err, ErrInvalidRecord):
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
	default:
		s.logger.Warn("record request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
