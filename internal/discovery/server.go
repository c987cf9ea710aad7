package discovery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"namereg/internal/identity"
)

// Server exposes a Discovery over HTTP under /discovery.
type Server struct {
	id        string
	discovery Discovery
	logger    *zap.Logger
}

func NewServer(discovery Discovery, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		id:        identity.NewID(),
		discovery: discovery,
		logger:    logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /id", s.handleGetID)
	mux.HandleFunc("GET /discovery/{id}", s.handleGet)
	mux.HandleFunc("GET /discovery", s.handleFind)
	mux.HandleFunc("PUT /discovery", s.handlePut)

	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

func (s *Server) handleGetID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(s.id))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	desc, err := s.discovery.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrServiceNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("discovery get failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(desc)
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	protocol := r.URL.Query().Get("protocol")
	if protocol == "" {
		http.Error(w, "protocol is required", http.StatusBadRequest)
		return
	}
	count := 1
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if parsed, err := strconv.Atoi(countStr); err == nil && parsed > 0 {
			count = parsed
		}
	}

	descs, err := s.discovery.Find(r.Context(), protocol, count)
	if err != nil {
		s.logger.Error("discovery find failed", zap.String("protocol", protocol), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if descs == nil {
		descs = []ServiceDescription{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(descs)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var desc ServiceDescription
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := s.discovery.Register(r.Context(), desc); err != nil {
		if errors.Is(err, ErrInvalidRegistration) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("discovery register failed", zap.String("id", desc.ID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.logger.Info("service registered", zap.String("id", desc.ID), zap.String("address", desc.Address), zap.Strings("protocols", desc.Protocols))

	w.WriteHeader(http.StatusOK)
}
