package storage

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"namereg/internal/identity"
)

// Server exposes a Storage over HTTP under /storage/.
type Server struct {
	id      string
	storage Storage
	logger  *zap.Logger
}

func NewServer(storage Storage, logger *zap.Logger) *Server {
	id := identity.NewID()
	if provider, ok := storage.(identity.Provider); ok {
		id = provider.ID()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		id:      id,
		storage: storage,
		logger:  logger,
	}
}

// ID returns the ID the server reports at /id.
func (s *Server) ID() string {
	return s.id
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /id", s.handleGetID)

	mux.HandleFunc("POST /storage/", s.handlePost)
	mux.HandleFunc("GET /storage/{address}", s.handleGet)
	mux.HandleFunc("HEAD /storage/{address}", s.handleHead)
	mux.HandleFunc("PUT /storage/{address}", s.handlePut)

	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

func (s *Server) handleGetID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(s.id))
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	address, err := s.storage.Store(r.Context(), r.Body)
	if err != nil {
		s.logger.Warn("store failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(address))
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	defer r.Body.Close()

	err := s.storage.StoreAt(r.Context(), address, r.Body)
	if errors.Is(err, ErrAddressMismatch) {
		http.Error(w, "Bad Request: content does not match address", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Warn("store failed", zap.String("address", address), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(address))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	data, err := s.storage.Get(r.Context(), address)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Warn("get failed", zap.String("address", address), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer data.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "immutable")
	w.Header().Set("ETag", address)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, data)
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	ok, err := s.storage.Has(r.Context(), address)
	if err != nil {
		s.logger.Warn("has failed", zap.String("address", address), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("ETag", address)
	w.WriteHeader(http.StatusOK)
}
