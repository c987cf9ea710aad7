// Package storage holds immutable blobs addressed by the sha256 of their content.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"io"

	"github.com/minio/sha256-simd"
)

// ErrNotFound is returned when no blob is stored at an address.
var ErrNotFound = errors.New("blob not found")

// ErrAddressMismatch is returned by StoreAt when the content does not hash to the address.
var ErrAddressMismatch = errors.New("content does not match address")

// Storage is a content-addressed blob store.
type Storage interface {
	Has(ctx context.Context, address string) (bool, error)
	Get(ctx context.Context, address string) (io.ReadCloser, error)
	Store(ctx context.Context, r io.Reader) (string, error)
	StoreAt(ctx context.Context, address string, r io.Reader) error
}

// Address returns the content address of data.
func Address(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadAll fetches the whole blob at address.
func ReadAll(ctx context.Context, s Storage, address string) ([]byte, error) {
	rc, err := s.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
