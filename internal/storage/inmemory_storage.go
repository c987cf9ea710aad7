package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"namereg/internal/identity"
)

var _ Storage = (*MemoryStorage)(nil)

var _ identity.Provider = (*MemoryStorage)(nil)

// MemoryStorage keeps blobs in a map.
type MemoryStorage struct {
	id    string
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		id:    identity.NewID(),
		blobs: make(map[string][]byte),
	}
}

func (s *MemoryStorage) ID() string {
	return s.id
}

func (s *MemoryStorage) Has(ctx context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[address]
	return ok, nil
}

func (s *MemoryStorage) Get(ctx context.Context, address string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[address]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) Store(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	address := Address(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[address] = data
	return address, nil
}

func (s *MemoryStorage) StoreAt(ctx context.Context, address string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if Address(data) != address {
		return ErrAddressMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[address] = data
	return nil
}
