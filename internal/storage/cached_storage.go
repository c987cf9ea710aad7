package storage

import (
	"bytes"
	"context"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStorage keeps recently read blobs in memory in front of another
// Storage. Blobs are immutable so cached entries never go stale.
type CachedStorage struct {
	backing Storage
	cache   *lru.Cache[string, []byte]
	maxBlob int
}

var _ Storage = (*CachedStorage)(nil)

// DefaultMaxCachedBlob is the largest blob CachedStorage keeps in memory.
const DefaultMaxCachedBlob = 1 << 20

// NewCachedStorage caches up to size blobs read from backing.
func NewCachedStorage(backing Storage, size int) (*CachedStorage, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStorage{
		backing: backing,
		cache:   cache,
		maxBlob: DefaultMaxCachedBlob,
	}, nil
}

func (s *CachedStorage) Has(ctx context.Context, address string) (bool, error) {
	if s.cache.Contains(address) {
		return true, nil
	}
	return s.backing.Has(ctx, address)
}

func (s *CachedStorage) Get(ctx context.Context, address string) (io.ReadCloser, error) {
	if data, ok := s.cache.Get(address); ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	rc, err := s.backing.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, int64(s.maxBlob)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > s.maxBlob {
		// Too large to cache: hand back what was read followed by the rest.
		rest, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(append(data, rest...))), nil
	}

	s.cache.Add(address, data)
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *CachedStorage) Store(ctx context.Context, r io.Reader) (string, error) {
	return s.backing.Store(ctx, r)
}

func (s *CachedStorage) StoreAt(ctx context.Context, address string, r io.Reader) error {
	return s.backing.StoreAt(ctx, address, r)
}

// Len returns the number of cached blobs.
func (s *CachedStorage) Len() int {
	return s.cache.Len()
}
