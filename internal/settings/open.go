package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"namereg/internal/discovery"
	"namereg/internal/records"
	"namereg/internal/storage"
)

func nopClose() error { return nil }

// Locate replaces discovery backends with the http backend pointed at a
// service found through the discovery service.
func (s *Settings) Locate(ctx context.Context, d discovery.Discovery) error {
	if s.Records.Backend == "discovery" {
		addr, err := discovery.Locate(ctx, d, discovery.RecordsProtocol)
		if err != nil {
			return err
		}
		s.Records.Backend, s.Records.URL = "http", addr
	}
	if s.Storage.Backend == "discovery" {
		addr, err := discovery.Locate(ctx, d, discovery.StorageProtocol)
		if err != nil {
			return err
		}
		s.Storage.Backend, s.Storage.URL = "http", addr
	}
	return nil
}

// OpenRecords opens the configured record store. The returned function
// releases it.
func OpenRecords(s RecordsSettings, logger *zap.Logger) (records.Records, func() error, error) {
	switch s.Backend {
	case "memory":
		return records.NewMemoryRecords(""), nopClose, nil
	case "fs":
		store, err := records.NewFileSystemRecords(s.Dir, s.SnapshotInterval, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "badger":
		store, err := records.OpenBadgerRecords(s.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "http":
		return records.NewClient(s.URL, nil), nopClose, nil
	default:
		return nil, nil, fmt.Errorf("%w: records.backend %q", ErrUnknownBackend, s.Backend)
	}
}

// OpenStorage opens the configured blob store, behind a read cache when
// CacheSize is positive.
func OpenStorage(ctx context.Context, s StorageSettings) (storage.Storage, error) {
	var (
		blobs storage.Storage
		err   error
	)
	switch s.Backend {
	case "memory":
		blobs = storage.NewMemoryStorage()
	case "fs":
		blobs, err = storage.NewFileSystemStorage(s.Dir)
	case "http":
		blobs = storage.NewClient(s.URL, nil)
	case "s3":
		blobs, err = storage.OpenS3Storage(ctx, s.Bucket, s.Prefix, s.Region)
	default:
		err = fmt.Errorf("%w: storage.backend %q", ErrUnknownBackend, s.Backend)
	}
	if err != nil {
		return nil, err
	}

	if s.CacheSize > 0 {
		return storage.NewCachedStorage(blobs, s.CacheSize)
	}
	return blobs, nil
}
